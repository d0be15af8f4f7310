// Package pool implements the worker pool: a one-shot set of long-lived
// goroutines that loop over wait -> select -> run -> commit.
package pool

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rpnahm/jobsched/internal/logging"
	"github.com/rpnahm/jobsched/policy"
	"github.com/rpnahm/jobsched/registry"
	"github.com/rpnahm/jobsched/runner"
)

// ErrAlreadyStarted is returned by Start if it has already been called.
var ErrAlreadyStarted = errors.New("worker pool already started")

// ErrInvalidThreadCount is returned by Start for n <= 0.
var ErrInvalidThreadCount = errors.New("invalid thread count")

// PolicySource supplies the current Selector; the pool calls it once per
// dispatch so that a `schedule` change takes effect on the very next
// selection, without affecting jobs already claimed.
type PolicySource func() policy.Selector

// Pool runs jobs claimed from a Registry across n worker goroutines.
type Pool struct {
	reg    *registry.Registry
	run    *runner.Runner
	policy PolicySource
	logger *logging.Logger

	started bool
	mu      sync.Mutex
}

// New creates a Pool bound to reg, run, and a policy source.
func New(reg *registry.Registry, run *runner.Runner, policySource PolicySource, logger *logging.Logger) *Pool {
	return &Pool{reg: reg, run: run, policy: policySource, logger: logger}
}

// Start launches n long-lived worker goroutines. Only the first call to
// Start on a Pool succeeds; subsequent calls return ErrAlreadyStarted, and
// n <= 0 returns ErrInvalidThreadCount without starting anything.
func (p *Pool) Start(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreadCount, n)
	}

	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < n; i++ {
		go p.workerLoop()
	}
	return nil
}

func (p *Pool) workerLoop() {
	for {
		sel := p.policy()
		j := p.reg.Dispatch(sel, outputPathFor)
		if j == nil {
			p.logger.Errorf("selector returned no job despite a waiting job being available; worker exiting")
			return
		}

		startedAt := time.Now()
		outputSize, err := p.run.Run(j)
		if err != nil {
			p.logger.Warnf("job %d: %v", j.ID, err)
		}
		p.reg.Commit(j, startedAt, outputSize, time.Now())
	}
}

// outputPathFor computes the deterministic output filename for a job id, as
// required by the subprocess contract: job<ID>.wav in the current working
// directory.
func outputPathFor(id int) string {
	return filepath.Join(".", fmt.Sprintf("job%d.wav", id))
}
