// Package registry implements the shared job registry: the only mutable
// state shared between the control surface and the worker pool, guarded by
// a single mutex and a single condition variable.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rpnahm/jobsched/internal/logging"
	"github.com/rpnahm/jobsched/job"
	"github.com/rpnahm/jobsched/policy"
)

// OutputCap is the default output-size admission gate (100 MiB). It can be
// overridden per Registry via Config.OutputCap for testing.
const OutputCap int64 = 100 * 1024 * 1024

// Errors returned by Registry operations. These map onto the error kinds in
// the control surface's diagnostics.
var (
	ErrInputRejected  = errors.New("input rejected")
	ErrNotFound       = errors.New("not found")
	ErrRunningConflict = errors.New("running conflict")
)

// Config configures a Registry.
type Config struct {
	// OutputCap overrides OutputCap when non-zero.
	OutputCap int64
	// Logger receives diagnostics for non-fatal failures, such as a failed
	// output-file removal during Delete. If nil, a logger writing to
	// os.Stderr is used.
	Logger *logging.Logger
}

// Registry is the ordered collection of jobs plus its aggregate counters.
type Registry struct {
	mu   sync.Mutex
	cond *sync.Cond

	order []*job.Job
	byID  map[int]*job.Job
	nextID int

	waitingCount    int
	doneCount       int
	totalOutputSize int64

	outputCap int64
	logger    *logging.Logger
}

// New creates an empty Registry.
func New(cfg Config) *Registry {
	r := &Registry{
		byID:      map[int]*job.Job{},
		nextID:    1,
		outputCap: cfg.OutputCap,
		logger:    cfg.Logger,
	}
	if r.outputCap == 0 {
		r.outputCap = OutputCap
	}
	if r.logger == nil {
		l := logging.New(os.Stderr, "jobsched: ")
		r.logger = l
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Submit stats inputPath and, if it names a non-empty file, registers a new
// Waiting job and returns its id. A missing or empty file is rejected with
// ErrInputRejected and causes no state change.
func (r *Registry) Submit(inputPath string) (int, error) {
	info, err := os.Stat(inputPath)
	if err != nil || info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInputRejected, inputPath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	j := &job.Job{
		ID:          r.nextID,
		InputPath:   inputPath,
		InputSize:   info.Size(),
		SubmittedAt: time.Now(),
		State:       job.StateWaiting,
	}
	r.nextID++
	r.order = append(r.order, j)
	r.byID[j.ID] = j
	r.waitingCount++
	r.cond.Broadcast()
	return j.ID, nil
}

// Delete removes a Waiting or Done job and, for a Done job, its output file.
// It returns ErrNotFound or ErrRunningConflict as appropriate.
func (r *Registry) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: job %d", ErrNotFound, id)
	}
	if j.State == job.StateRunning {
		return fmt.Errorf("%w: job %d is running", ErrRunningConflict, id)
	}

	switch j.State {
	case job.StateWaiting:
		r.waitingCount--
	case job.StateDone:
		r.doneCount--
		r.totalOutputSize -= j.OutputSize
		if j.OutputPath != "" {
			if err := os.Remove(j.OutputPath); err != nil && !os.IsNotExist(err) {
				r.logger.Warnf("removing output file %s for job %d: %v", j.OutputPath, id, err)
			}
		}
	}

	delete(r.byID, id)
	for i, other := range r.order {
		if other.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.cond.Broadcast()
	return nil
}

// Wait blocks until the named job reaches Done, or returns ErrNotFound if it
// is absent now or becomes absent (via Delete) while waiting.
func (r *Registry) Wait(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: job %d", ErrNotFound, id)
	}
	for j.State != job.StateDone {
		r.cond.Wait()
		j, ok = r.byID[id]
		if !ok {
			return fmt.Errorf("%w: job %d", ErrNotFound, id)
		}
	}
	return nil
}

// WaitAll blocks until every submitted job has reached Done.
func (r *Registry) WaitAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.doneCount != len(r.order) {
		r.cond.Wait()
	}
}

// Snapshot is a point-in-time view over the registry, used by the `list`
// command.
type Snapshot struct {
	Jobs              []job.Job
	TotalInputBytes    int64
	TotalOutputBytes   int64
	MeanTurnaround     time.Duration
	MeanResponseTime   time.Duration
}

// Snapshot walks the job sequence once under the lock and returns a copy of
// every job plus the derived aggregates.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{Jobs: make([]job.Job, 0, len(r.order))}
	var turnaroundSum, responseSum time.Duration
	var doneSeen int
	for _, j := range r.order {
		s.Jobs = append(s.Jobs, *j)
		s.TotalInputBytes += j.InputSize
		if j.State == job.StateDone {
			s.TotalOutputBytes += j.OutputSize
			turnaroundSum += j.FinishedAt.Sub(j.SubmittedAt)
			responseSum += j.StartedAt.Sub(j.SubmittedAt)
			doneSeen++
		}
	}
	if doneSeen > 0 {
		s.MeanTurnaround = turnaroundSum / time.Duration(doneSeen)
		s.MeanResponseTime = responseSum / time.Duration(doneSeen)
	}
	return s
}

// Dispatch performs the worker-side claim: it blocks until a job is Waiting
// and the output-size gate is open, picks one via sel, marks it Running, and
// returns it with the lock already released. The caller owns the returned
// job exclusively until it calls Commit. It returns nil only if sel returned
// nil despite waitingCount > 0, which callers treat as a fatal invariant
// violation.
func (r *Registry) Dispatch(sel policy.Selector, outputPathFor func(id int) string) *job.Job {
	r.mu.Lock()
	for r.waitingCount == 0 || r.totalOutputSize >= r.outputCap {
		r.cond.Wait()
	}
	j := sel(r.order)
	if j == nil {
		r.mu.Unlock()
		return nil
	}
	j.OutputPath = outputPathFor(j.ID)
	j.State = job.StateRunning
	r.waitingCount--
	r.mu.Unlock()
	return j
}

// Commit records the result of running j and transitions it to Done. Per
// the worker loop's commit step, startedAt is written here too, under the
// lock, even though it was captured before Run was invoked: no field of j
// may be mutated outside the lock, since Snapshot walks every job
// (including Running ones) while holding it.
func (r *Registry) Commit(j *job.Job, startedAt time.Time, outputSize int64, finishedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.StartedAt = startedAt
	j.FinishedAt = finishedAt
	j.OutputSize = outputSize
	j.State = job.StateDone
	r.totalOutputSize += outputSize
	r.doneCount++
	r.cond.Broadcast()
}

// Get returns a copy of the job with the given id, and whether it was
// found. Used to report a finished job's outcome after Wait returns.
func (r *Registry) Get(id int) (job.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.byID[id]
	if !ok {
		return job.Job{}, false
	}
	return *j, true
}

// Counts returns the current total, waiting, and done counts under lock.
func (r *Registry) Counts() (total, waiting, done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order), r.waitingCount, r.doneCount
}
