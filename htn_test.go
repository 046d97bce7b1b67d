package htn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	htn "github.com/V-Sekai-fire/aria-hybrid-planner-sub007"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/internal/blocksworld"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/internal/travel"
)

// primitiveNames walks a solved Result's tree in DFS order and renders
// each primitive leaf as "name(args...)" for comparison against spec.md
// §8's expected sequences.
func primitiveNames(t *testing.T, res *htn.Result) []string {
	t.Helper()
	var out []string
	for _, id := range res.Tree.PrimitiveActionsDFS() {
		n, err := res.Tree.Get(id)
		require.NoError(t, err)
		out = append(out, n.ActionName)
	}
	return out
}

// Scenario 1 — Sussman anomaly.
func TestSussmanAnomaly(t *testing.T) {
	d := blocksworld.NewDomain()
	s := htn.NewState().
		Set("pos", "c", "a").
		Set("pos", "a", blocksworld.Table).
		Set("pos", "b", blocksworld.Table).
		Set("clear", "c", true).
		Set("clear", "a", false).
		Set("clear", "b", true)

	mg := htn.Multigoal{Name: "sussman", Goals: []htn.Goal{
		{Predicate: "pos", Subject: "a", Value: "b"},
		{Predicate: "pos", Subject: "b", Value: "c"},
	}}

	res, err := htn.Plan(d, s, []htn.Item{htn.MultigoalItem(mg)}, htn.Options{})
	require.NoError(t, err)

	names := primitiveNames(t, res)
	assert.Equal(t, []string{"unstack", "putdown", "pickup", "stack", "pickup", "stack"}, names)

	v, ok := res.FinalState.Get("pos", "a")
	require.True(t, ok)
	assert.Equal(t, "b", v)
	v, ok = res.FinalState.Get("pos", "b")
	require.True(t, ok)
	assert.Equal(t, "c", v)
}

// Scenario 2 — rearrangement.
func TestRearrangement(t *testing.T) {
	d := blocksworld.NewDomain()
	s := htn.NewState().
		Set("pos", "a", "c").
		Set("pos", "b", "d").
		Set("pos", "c", blocksworld.Table).
		Set("pos", "d", blocksworld.Table).
		Set("clear", "a", true).
		Set("clear", "b", true).
		Set("clear", "c", false).
		Set("clear", "d", false)

	mg := htn.Multigoal{Name: "rearrange", Goals: []htn.Goal{
		{Predicate: "pos", Subject: "b", Value: "c"},
		{Predicate: "pos", Subject: "a", Value: "d"},
	}}

	res, err := htn.Plan(d, s, []htn.Item{htn.MultigoalItem(mg)}, htn.Options{})
	require.NoError(t, err)

	v, ok := res.FinalState.Get("pos", "b")
	require.True(t, ok)
	assert.Equal(t, "c", v)
	v, ok = res.FinalState.Get("pos", "a")
	require.True(t, ok)
	assert.Equal(t, "d", v)
}

// Scenario 3 — simple travel, short walk.
func TestSimpleTravelShortWalk(t *testing.T) {
	d := travel.NewDomain()
	s := htn.NewState().
		Set("location", "bob", "home_b").
		Set("distance", "bob", 2.0).
		Set("cash", "bob", 15.0)

	res, err := htn.Plan(d, s, []htn.Item{htn.GoalItem(htn.Goal{
		Predicate: "location", Subject: "bob", Value: "park",
	})}, htn.Options{})
	require.NoError(t, err)

	names := primitiveNames(t, res)
	assert.Equal(t, []string{"walk_step", "walk_step"}, names)

	loc, ok := res.FinalState.Get("location", "bob")
	require.True(t, ok)
	assert.Equal(t, "park", loc)
	cash, ok := res.FinalState.Get("cash", "bob")
	require.True(t, ok)
	assert.Equal(t, 15.0, cash)
}

// Scenario 4 — simple travel, taxi trip.
func TestSimpleTravelTaxiTrip(t *testing.T) {
	d := travel.NewDomain()
	s := htn.NewState().
		Set("location", "alice", "home_a").
		Set("distance", "alice", 8.0).
		Set("cash", "alice", 20.0)

	res, err := htn.Plan(d, s, []htn.Item{htn.GoalItem(htn.Goal{
		Predicate: "location", Subject: "alice", Value: "park",
	})}, htn.Options{})
	require.NoError(t, err)

	names := primitiveNames(t, res)
	require.Len(t, names, 10) // call_taxi + 8 ride_step + pay_driver
	assert.Equal(t, "call_taxi", names[0])
	for i := 1; i <= 8; i++ {
		assert.Equal(t, "ride_step", names[i])
	}
	assert.Equal(t, "pay_driver", names[9])

	owe, ok := res.FinalState.Get("owe", "alice")
	require.True(t, ok)
	assert.Equal(t, 0.0, owe)
	cash, ok := res.FinalState.Get("cash", "alice")
	require.True(t, ok)
	assert.InDelta(t, 14.5, cash, 1e-9)
}

// RunLazy end to end: planning and execution agree on the final state.
func TestRunLazyMatchesPlan(t *testing.T) {
	d := travel.NewDomain()
	s := htn.NewState().
		Set("location", "bob", "home_b").
		Set("distance", "bob", 2.0).
		Set("cash", "bob", 15.0)
	goal := []htn.Item{htn.GoalItem(htn.Goal{Predicate: "location", Subject: "bob", Value: "park"})}

	planned, err := htn.Plan(d, s, goal, htn.Options{})
	require.NoError(t, err)

	executed, err := htn.RunLazy(d, s, goal, htn.Options{})
	require.NoError(t, err)

	loc, ok := executed.FinalState.Get("location", "bob")
	require.True(t, ok)
	assert.Equal(t, "park", loc)
	assert.Equal(t, planned.FinalState, executed.FinalState)
}

// Empty todos: success, no expansion, state unchanged.
func TestEmptyTodosIsNoOp(t *testing.T) {
	d := blocksworld.NewDomain()
	s := htn.NewState().Set("pos", "a", blocksworld.Table)
	res, err := htn.Plan(d, s, nil, htn.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tree.Len()) // root only
	assert.Equal(t, s, res.FinalState)
}

// An unsatisfiable goal (no method registered) surfaces as no_plan.
func TestUnsatisfiableGoalIsNoPlan(t *testing.T) {
	d := htn.NewDomain()
	s := htn.NewState()
	_, err := htn.Plan(d, s, []htn.Item{htn.GoalItem(htn.Goal{
		Predicate: "nonexistent", Subject: "x", Value: 1,
	})}, htn.Options{})
	require.Error(t, err)
	var perr *htn.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, htn.KindNoPlan, perr.Kind)
}
