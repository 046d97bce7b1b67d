package stn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleTimePointAlwaysConsistent(t *testing.T) {
	s := New()
	s.AddTimePoint("only")
	assert.True(t, s.Consistent())
}

func TestEmptyNetworkConsistent(t *testing.T) {
	s := New()
	assert.True(t, s.Consistent())
}

// Scenario 5 — first variant: consistent.
func TestScenario5Consistent(t *testing.T) {
	s := New()
	s.AddConstraint("start", "middle", 0, 10)
	s.AddConstraint("middle", "end", 5, 15)
	s.AddConstraint("start", "end", 5, 25)
	assert.True(t, s.Consistent())
}

// Scenario 5 — second variant: inconsistent (sum forces 10, but hard
// constraint demands 15).
func TestScenario5Inconsistent(t *testing.T) {
	s := New()
	s.AddConstraint("start", "middle", 5, 5)
	s.AddConstraint("middle", "end", 5, 5)
	s.AddConstraint("start", "end", 15, 15)
	assert.False(t, s.Consistent())
}

// Boundary: [10,10] forward and [10,10] backward between two points is
// inconsistent (sum != 0).
func TestForwardBackwardMismatchInconsistent(t *testing.T) {
	s := New()
	s.AddConstraint("p", "q", 10, 10)
	s.AddConstraint("q", "p", 10, 10)
	assert.False(t, s.Consistent())
}

func TestGetConstraintDerivesTighterBound(t *testing.T) {
	s := New()
	s.AddConstraint("start", "middle", 0, 10)
	s.AddConstraint("middle", "end", 5, 15)
	b, ok := s.GetConstraint("start", "end")
	require.True(t, ok)
	// derived upper bound on end-start should be tightened to 10+15=25 at
	// most, and lower bound to 0+5=5 at least, absent any direct
	// constraint narrowing it further.
	assert.LessOrEqual(t, b.Hi, 25.0)
	assert.GreaterOrEqual(t, b.Lo, 5.0)
}

func TestAddIntervalAndRemoveInterval(t *testing.T) {
	s := New()
	require.NoError(t, s.AddInterval("a-start", "a-end", Bound{Lo: 10, Hi: 10}, "act-a", nil))
	assert.True(t, s.Consistent())

	err := s.AddInterval("a-start", "a-end", Bound{Lo: 10, Hi: 10}, "act-a", nil)
	assert.Error(t, err, "duplicate interval id should be rejected")

	require.NoError(t, s.RemoveInterval("act-a"))
	err = s.RemoveInterval("act-a")
	assert.Error(t, err, "removing a nonexistent interval should error")
}

func TestSegmentPartitionsAndFindsBoundary(t *testing.T) {
	s := New()
	for i := 0; i < 7; i++ {
		s.AddTimePoint(TimePoint(rune('a' + i)))
	}
	s.AddConstraint("a", "b", 0, 5) // within first segment (size 5)
	s.AddConstraint("e", "f", 0, 5) // crosses segment boundary (index 4 vs 5)

	segments, boundary := s.Segment(5)
	require.Len(t, segments, 2)
	assert.Len(t, boundary, 1)
}

func TestParallelSolveConsistentNetwork(t *testing.T) {
	s := New()
	s.AddConstraint("start", "middle", 0, 10)
	s.AddConstraint("middle", "end", 5, 15)
	s.AddConstraint("start", "end", 5, 25)
	ok, err := s.ParallelSolve(2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParallelSolveInconsistentNetwork(t *testing.T) {
	s := New()
	s.AddConstraint("start", "middle", 5, 5)
	s.AddConstraint("middle", "end", 5, 5)
	s.AddConstraint("start", "end", 15, 15)
	ok, err := s.ParallelSolve(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSolverRequestResponseRoundTrip(t *testing.T) {
	s := New()
	s.AddConstraint("start", "end", 5, 10)
	req := s.BuildSolverRequest()
	require.Len(t, req.Points, 2)

	require.NoError(t, s.ApplySolverResponse(req, SolverResponse{
		Status:     Satisfiable,
		Timepoints: []int64{0, 7},
	}))
	assert.True(t, s.Consistent())
	v, ok := s.SolvedTime("end")
	require.True(t, ok)
	assert.EqualValues(t, 7, v)

	require.NoError(t, s.ApplySolverResponse(req, SolverResponse{Status: Unsatisfiable}))
	assert.False(t, s.Consistent())
	_, ok = s.SolvedTime("end")
	assert.False(t, ok)
}

func TestApplySolverResponseMismatchedLength(t *testing.T) {
	s := New()
	s.AddConstraint("start", "end", 5, 10)
	req := s.BuildSolverRequest()
	err := s.ApplySolverResponse(req, SolverResponse{Status: Satisfiable, Timepoints: []int64{0}})
	assert.Error(t, err)
}
