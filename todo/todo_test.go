package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
)

func TestItemConstructorsAndAccessors(t *testing.T) {
	ti := TaskItem(Task{Name: "pickup", Args: []any{"a"}})
	require.Equal(t, KindTask, ti.Kind())
	task, ok := ti.AsTask()
	require.True(t, ok)
	assert.Equal(t, "pickup", task.Name)
	_, ok = ti.AsGoal()
	assert.False(t, ok)

	gi := GoalItem(Goal{Predicate: "pos", Subject: "a", Value: "b"})
	require.Equal(t, KindGoal, gi.Kind())
	g, ok := gi.AsGoal()
	require.True(t, ok)
	assert.Equal(t, "pos", g.Predicate)

	mgi := MultigoalItem(Multigoal{Name: "m1", Goals: []Goal{g}})
	require.Equal(t, KindMultigoal, mgi.Kind())
	mg, ok := mgi.AsMultigoal()
	require.True(t, ok)
	assert.Len(t, mg.Goals, 1)
}

func TestGoalSatisfied(t *testing.T) {
	s := state.New().Set("pos", "a", "b")
	g := Goal{Predicate: "pos", Subject: "a", Value: "b"}
	assert.True(t, g.Satisfied(s))
	assert.False(t, Goal{Predicate: "pos", Subject: "a", Value: "c"}.Satisfied(s))
}

func TestMultigoalUnsatisfiedOrderPreserved(t *testing.T) {
	s := state.New().Set("pos", "a", "b")
	mg := Multigoal{Goals: []Goal{
		{Predicate: "pos", Subject: "a", Value: "b"}, // satisfied
		{Predicate: "pos", Subject: "c", Value: "d"}, // unsatisfied
		{Predicate: "pos", Subject: "e", Value: "f"}, // unsatisfied
	}}
	unsat := mg.Unsatisfied(s)
	require.Len(t, unsat, 2)
	assert.Equal(t, "c", unsat[0].Subject)
	assert.Equal(t, "e", unsat[1].Subject)
	assert.False(t, mg.Satisfied(s))
}

func TestMultigoalSatisfiedEmpty(t *testing.T) {
	mg := Multigoal{}
	assert.True(t, mg.Satisfied(state.New()))
}
