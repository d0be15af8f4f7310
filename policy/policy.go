// Package policy implements the pure selection functions the worker pool
// uses to pick the next job to dispatch.
package policy

import (
	"fmt"

	"github.com/rpnahm/jobsched/job"
)

// Selector picks the next Waiting job from order, which is the registry's
// full arrival-ordered sequence (including non-Waiting jobs, which a
// Selector must skip). It is called under the registry's lock. A nil result
// indicates no Waiting job was found and is a fatal invariant violation if
// the caller believed one existed.
type Selector func(order []*job.Job) *job.Job

// Name identifies one of the three scheduling policies.
type Name string

const (
	FCFSName     Name = "fcfs"
	SJFName      Name = "sjf"
	BalancedName Name = "balanced"
)

// Lookup resolves a policy name to its Selector, or an error if unknown.
func Lookup(name Name) (Selector, error) {
	switch name {
	case FCFSName:
		return FCFS, nil
	case SJFName:
		return SJF, nil
	case BalancedName:
		return Balanced, nil
	default:
		return nil, fmt.Errorf("unknown policy: %s", name)
	}
}

// FCFS returns the first Waiting job in arrival order.
func FCFS(order []*job.Job) *job.Job {
	for _, c := range order {
		if c.State == job.StateWaiting {
			return c
		}
	}
	return nil
}

// SJF returns the Waiting job with the smallest InputSize, ties broken by
// earliest arrival.
func SJF(order []*job.Job) *job.Job {
	var best *job.Job
	for _, c := range order {
		if c.State != job.StateWaiting {
			continue
		}
		if best == nil || c.InputSize < best.InputSize {
			best = c
		}
	}
	return best
}

// balancedThreshold is the number of times a job may be passed over by a
// smaller competitor before it escapes and is selected unconditionally.
const balancedThreshold = 3

// Balanced walks arrival order maintaining a current best candidate. Every
// candidate, including the one that establishes the initial best, is
// checked against the threshold: if a Waiting job has already been passed
// over balancedThreshold times, it is returned immediately regardless of
// size. Otherwise, a strictly smaller later job displaces the current best,
// and the displaced job's PassedOver count is incremented. This mirrors the
// reference job_scheduling balanced_worker algorithm, where the
// threshold check runs unconditionally on every iteration rather than only
// on iterations after the first candidate is established.
func Balanced(order []*job.Job) *job.Job {
	var best *job.Job
	for _, c := range order {
		if c.State != job.StateWaiting {
			continue
		}
		if best == nil {
			best = c
		}
		if c.PassedOver >= balancedThreshold {
			return c
		}
		if c.InputSize < best.InputSize {
			best.PassedOver++
			best = c
		}
	}
	return best
}
