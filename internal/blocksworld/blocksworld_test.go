/*
   Copyright 2021 Joseph Cumines

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package blocksworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

func TestPosAndClearDefaults(t *testing.T) {
	s := state.New()
	assert.Equal(t, Table, pos(s, "a")) // untracked block defaults to the table
	assert.True(t, clear(s, Table))     // the table is always clear
	assert.False(t, clear(s, "a"))      // untracked block defaults to not clear
	_, held := holding(s)
	assert.False(t, held)
}

func TestMoveOneFromTableToTarget(t *testing.T) {
	s := state.New().Set("pos", "a", Table).Set("clear", "a", true).Set("clear", "b", true)
	items, err := moveOne(s, []any{"a", "b"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	tk, ok := items[0].AsTask()
	require.True(t, ok)
	assert.Equal(t, "pickup", tk.Name)
	tk, ok = items[1].AsTask()
	require.True(t, ok)
	assert.Equal(t, "stack", tk.Name)
}

func TestMoveOneAlreadyHoldingToTable(t *testing.T) {
	s := state.New().Set("holding", Hand, "a")
	items, err := moveOne(s, []any{"a", Table})
	require.NoError(t, err)
	require.Len(t, items, 1)
	tk, ok := items[0].AsTask()
	require.True(t, ok)
	assert.Equal(t, "putdown", tk.Name)
}

// blockerStatus classification against the Sussman anomaly's initial state:
// c sits on a and is clear, so it's immediately movable to the table.
func TestStatusClassifiesBlockerBeforeGoalSubjects(t *testing.T) {
	s := state.New().
		Set("pos", "c", "a").
		Set("pos", "a", Table).
		Set("pos", "b", Table).
		Set("clear", "c", true).
		Set("clear", "a", false).
		Set("clear", "b", true)
	goals := map[string]string{"a": "b", "b": "c"}

	assert.Equal(t, statusMoveToTable, status("c", s, goals))
	assert.Equal(t, statusInaccessible, status("a", s, goals))
	assert.Equal(t, statusWaiting, status("b", s, goals))
}

func TestMoveBlocksPicksTheBlockerFirst(t *testing.T) {
	s := state.New().
		Set("pos", "c", "a").
		Set("pos", "a", Table).
		Set("pos", "b", Table).
		Set("clear", "c", true).
		Set("clear", "a", false).
		Set("clear", "b", true)
	mg := todo.Multigoal{Goals: []todo.Goal{
		{Predicate: "pos", Subject: "a", Value: "b"},
		{Predicate: "pos", Subject: "b", Value: "c"},
	}}

	result, err := moveBlocks(s, mg)
	require.NoError(t, err)
	require.False(t, result.Reduced)
	require.Len(t, result.Todos, 1)
	tk, ok := result.Todos[0].AsTask()
	require.True(t, ok)
	assert.Equal(t, "move_one", tk.Name)
	assert.Equal(t, []any{"c", Table}, tk.Args)
}

func TestStackAndUnstackPreconditions(t *testing.T) {
	d := NewDomain()
	stack, ok := d.Action("stack")
	require.True(t, ok)

	s := state.New().Set("holding", Hand, "a").Set("clear", "b", true)
	assert.True(t, stack.Precondition(s, []any{"a", "b"}))
	assert.False(t, stack.Precondition(s, []any{"x", "b"})) // not holding x

	unstack, ok := d.Action("unstack")
	require.True(t, ok)
	s2 := state.New().Set("pos", "a", "b").Set("clear", "a", true)
	assert.True(t, unstack.Precondition(s2, []any{"a", "b"}))
}

func TestOnGoalWrapsSingleGoalAsMoveOne(t *testing.T) {
	items, err := onGoal(state.New(), todo.Goal{Predicate: "pos", Subject: "a", Value: "b"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	tk, ok := items[0].AsTask()
	require.True(t, ok)
	assert.Equal(t, "move_one", tk.Name)
	assert.Equal(t, []any{"a", "b"}, tk.Args)
}
