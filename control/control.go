// Package control implements the stateless command dispatcher that the REPL
// calls into: submit, list, nthreads, wait, waitall, delete, schedule, and
// help.
package control

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/rpnahm/jobsched/internal/validate"
	"github.com/rpnahm/jobsched/job"
	"github.com/rpnahm/jobsched/policy"
	"github.com/rpnahm/jobsched/pool"
	"github.com/rpnahm/jobsched/registry"
)

// Controller holds no state beyond the current scheduling policy; the
// one-shot nthreads guard is kept by the Pool, and every other operation is
// a direct translation to a Registry call.
type Controller struct {
	reg  *registry.Registry
	pool *pool.Pool

	mu         sync.Mutex
	policyName policy.Name
	selector   policy.Selector
}

// New creates a Controller over reg and pool, starting under the FCFS
// policy unless initialPolicy is set.
func New(reg *registry.Registry, p *pool.Pool, initialPolicy policy.Name) (*Controller, error) {
	if initialPolicy == "" {
		initialPolicy = policy.FCFSName
	}
	sel, err := policy.Lookup(initialPolicy)
	if err != nil {
		return nil, err
	}
	return &Controller{reg: reg, pool: p, policyName: initialPolicy, selector: sel}, nil
}

// Selector returns the currently active policy Selector. It is the
// pool.PolicySource this Controller should be wired up with; the pool reads
// it once per dispatch so a Schedule change affects only subsequent
// selections.
func (c *Controller) Selector() policy.Selector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selector
}

// Submit enqueues inputPath and returns the new job id.
func (c *Controller) Submit(inputPath string) (int, error) {
	id, err := c.reg.Submit(inputPath)
	if err != nil {
		return 0, fmt.Errorf("jobsched-submit: %v", err)
	}
	return id, nil
}

// NThreads starts n workers under the current policy. It may only be called
// once per process lifetime.
func (c *Controller) NThreads(n int) error {
	v := validate.New()
	v.Assert(n > 0, "number of threads must be greater than zero")
	if err := v.Err(); err != nil {
		return fmt.Errorf("jobsched-nthreads: %v", err)
	}
	if err := c.pool.Start(n); err != nil {
		return fmt.Errorf("jobsched-nthreads: %v", err)
	}
	return nil
}

// ctimeLayout mirrors ctime's "Www Mmm dd hh:mm:ss yyyy" rendering.
const ctimeLayout = "Mon Jan _2 15:04:05 2006"

// Wait blocks until the named job is Done and reports its outcome: a
// Failure report for a job whose OutputSize is zero (the subprocess
// failure signal), or a Success report plus its submitted/started/finished
// timestamps otherwise.
func (c *Controller) Wait(id int) (string, error) {
	if err := c.reg.Wait(id); err != nil {
		return "", fmt.Errorf("jobsched-wait: %v", err)
	}
	j, ok := c.reg.Get(id)
	if !ok {
		return "", fmt.Errorf("jobsched-wait: %v: job %d", registry.ErrNotFound, id)
	}

	var b strings.Builder
	if j.Failed() {
		fmt.Fprintf(&b, "Job %d was a Failure!\n", id)
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Job %d was a Success!\n", id)
	fmt.Fprintf(&b, "Job %d was submitted at: %s\n", id, j.SubmittedAt.Format(ctimeLayout))
	fmt.Fprintf(&b, "Job %d started running at %s\n", id, j.StartedAt.Format(ctimeLayout))
	fmt.Fprintf(&b, "Job %d finished at %s\n", id, j.FinishedAt.Format(ctimeLayout))
	return b.String(), nil
}

// WaitAll blocks until every submitted job is Done.
func (c *Controller) WaitAll() {
	c.reg.WaitAll()
}

// Delete removes a Waiting or Done job and its output file.
func (c *Controller) Delete(id int) error {
	if err := c.reg.Delete(id); err != nil {
		return fmt.Errorf("jobsched-delete: %v", err)
	}
	return nil
}

// Schedule changes the active policy for subsequent selections.
func (c *Controller) Schedule(name string) error {
	sel, err := policy.Lookup(policy.Name(name))
	if err != nil {
		return fmt.Errorf("jobsched-schedule: must choose from fcfs, sjf, or balanced")
	}
	c.mu.Lock()
	c.policyName = policy.Name(name)
	c.selector = sel
	c.mu.Unlock()
	return nil
}

// List renders the job table and summary aggregates.
func (c *Controller) List() string {
	snap := c.reg.Snapshot()
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOBID\tSTATE\tINPUT_FILENAME\tINPUT_SIZE\tOUTPUT_FILE\tOUTPUT_SIZE")
	for _, j := range snap.Jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dB\t%s\t%dB\n",
			j.ID, j.State, j.InputPath, j.InputSize, outputDisplay(j), j.OutputSize)
	}
	tw.Flush()
	fmt.Fprintf(&b, "Total input file size: %d B\n", snap.TotalInputBytes)
	fmt.Fprintf(&b, "Total output file size: %d B\n", snap.TotalOutputBytes)
	if hasDone(snap.Jobs) {
		fmt.Fprintf(&b, "Average turnaround time: %s\n", snap.MeanTurnaround)
		fmt.Fprintf(&b, "Average response time: %s\n", snap.MeanResponseTime)
	}
	return b.String()
}

func outputDisplay(j job.Job) string {
	if j.OutputPath == "" {
		return "-"
	}
	return j.OutputPath
}

func hasDone(jobs []job.Job) bool {
	for _, j := range jobs {
		if j.State == job.StateDone {
			return true
		}
	}
	return false
}

// Help returns the full help text.
func Help() string {
	return `Jobsched: help
    Usage: help
    displays help message

Jobsched Functions:
    submit:
        usage: submit <filename>
        submits a file to the job queue
    nthreads:
        usage: nthreads <number of threads>
        starts n worker threads to process the jobs
        can only be called once per run
    list:
        usage: list
        lists the jobs and their data
    wait:
        usage: wait <jobid>
        waits for the job with the specified jobid
    waitall:
        usage: waitall
        blocks until all jobs are done
    delete:
        usage: delete <jobid>
        deletes the specified job and its output file
        will not delete a job that is running
    schedule:
        usage: schedule <fcfs|sjf|balanced>
        selects the scheduling algorithm
    quit:
        usage: quit
        exits the scheduler
`
}

// ParseJobID validates and parses a jobid argument the way every command
// that takes one requires: a positive integer.
func ParseJobID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	v := validate.New()
	v.Assert(err == nil && n > 0, "jobid must be a positive integer")
	if verr := v.Err(); verr != nil {
		return 0, verr
	}
	return n, nil
}

// ParseThreadCount validates and parses an nthreads argument.
func ParseThreadCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	v := validate.New()
	v.Assert(err == nil && n > 0, "thread count must be a positive integer")
	if verr := v.Err(); verr != nil {
		return 0, verr
	}
	return n, nil
}
