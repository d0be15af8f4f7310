package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpnahm/jobsched/job"
)

func waiting(id int, size int64) *job.Job {
	return &job.Job{ID: id, InputSize: size, State: job.StateWaiting}
}

func TestFCFSReturnsFirstWaiting(t *testing.T) {
	a, b, c := waiting(1, 100), waiting(2, 200), waiting(3, 50)
	b.State = job.StateRunning
	got := FCFS([]*job.Job{a, b, c})
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
}

func TestFCFSSkipsNonWaiting(t *testing.T) {
	a := waiting(1, 100)
	a.State = job.StateDone
	b := waiting(2, 200)
	got := FCFS([]*job.Job{a, b})
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
}

func TestSJFPicksSmallest(t *testing.T) {
	// scenario 2: A(100B), B(200B), C(50B) -> execution order C, A, B
	a, b, c := waiting(1, 100), waiting(2, 200), waiting(3, 50)
	order := []*job.Job{a, b, c}

	first := SJF(order)
	require.NotNil(t, first)
	assert.Equal(t, c.ID, first.ID)
	first.State = job.StateRunning

	second := SJF(order)
	require.NotNil(t, second)
	assert.Equal(t, a.ID, second.ID)
	second.State = job.StateRunning

	third := SJF(order)
	require.NotNil(t, third)
	assert.Equal(t, b.ID, third.ID)
}

func TestSJFTieBreaksByArrival(t *testing.T) {
	a, b := waiting(1, 100), waiting(2, 100)
	got := SJF([]*job.Job{a, b})
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
}

func TestBalancedEscapesAtThreshold(t *testing.T) {
	// scenario 3: L(1000B) submitted first, then S(10B) submitted four times.
	// After L has been passed over threshold(3) times, it escapes and is
	// selected ahead of any remaining S.
	l := waiting(1, 1000)
	order := []*job.Job{l}

	var smalls []*job.Job
	for i := 0; i < 4; i++ {
		s := waiting(2+i, 10)
		order = append(order, s)
		smalls = append(smalls, s)
	}

	// First three dispatches: each picks a small job, passing L over once per
	// pick since L starts as best and a strictly smaller job displaces it.
	for i := 0; i < 3; i++ {
		got := Balanced(order)
		require.NotNil(t, got)
		assert.Equal(t, smalls[i].ID, got.ID, "dispatch %d", i)
		got.State = job.StateRunning
	}
	assert.Equal(t, 3, l.PassedOver)

	// The fourth waiting small job is still there, but L has now reached the
	// threshold and escapes on the very next evaluation.
	got := Balanced(order)
	require.NotNil(t, got)
	assert.Equal(t, l.ID, got.ID)
}

func TestBalancedReturnsNilWhenNothingWaiting(t *testing.T) {
	a := waiting(1, 100)
	a.State = job.StateDone
	assert.Nil(t, Balanced([]*job.Job{a}))
	assert.Nil(t, FCFS([]*job.Job{a}))
	assert.Nil(t, SJF([]*job.Job{a}))
}

func TestLookup(t *testing.T) {
	for _, name := range []Name{FCFSName, SJFName, BalancedName} {
		sel, err := Lookup(name)
		require.NoError(t, err)
		assert.NotNil(t, sel)
	}
	_, err := Lookup("nonsense")
	assert.Error(t, err)
}
