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

// Package todo implements the tagged-variant types the planner dispatches
// on: Task, Goal and Multigoal, unified behind the Item sum type. A
// primitive action invocation is a Task whose name is a registered action.
package todo

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
)

type (
	// Kind tags which variant an Item actually holds.
	Kind int

	// Goal asserts that (Predicate, Subject) must equal Value in the final
	// state.
	Goal struct {
		Predicate string
		Subject   string
		Value     any
	}

	// Multigoal is an ordered set of Goals to be simultaneously satisfied.
	Multigoal struct {
		Name  string
		Goals []Goal
	}

	// Task names a task method or primitive action, with its argument list
	// passed through to methods unchanged.
	Task struct {
		Name string
		Args []any
	}

	// Item is one of {Goal, Multigoal, Task}; exactly one of the pointer
	// fields is non-nil, matching the Kind tag. Construct with GoalItem,
	// MultigoalItem, or TaskItem rather than building the struct directly.
	Item struct {
		kind      Kind
		goal      *Goal
		multigoal *Multigoal
		task      *Task
	}
)

const (
	// KindTask marks an Item holding a Task.
	KindTask Kind = iota
	// KindGoal marks an Item holding a Goal.
	KindGoal
	// KindMultigoal marks an Item holding a Multigoal.
	KindMultigoal
)

// TaskItem wraps a Task as an Item.
func TaskItem(t Task) Item { return Item{kind: KindTask, task: &t} }

// GoalItem wraps a Goal as an Item.
func GoalItem(g Goal) Item { return Item{kind: KindGoal, goal: &g} }

// MultigoalItem wraps a Multigoal as an Item.
func MultigoalItem(mg Multigoal) Item { return Item{kind: KindMultigoal, multigoal: &mg} }

// Kind reports which variant this Item holds.
func (i Item) Kind() Kind { return i.kind }

// AsTask returns the wrapped Task and true, or the zero Task and false.
func (i Item) AsTask() (Task, bool) {
	if i.kind != KindTask || i.task == nil {
		return Task{}, false
	}
	return *i.task, true
}

// AsGoal returns the wrapped Goal and true, or the zero Goal and false.
func (i Item) AsGoal() (Goal, bool) {
	if i.kind != KindGoal || i.goal == nil {
		return Goal{}, false
	}
	return *i.goal, true
}

// AsMultigoal returns the wrapped Multigoal and true, or the zero value and
// false.
func (i Item) AsMultigoal() (Multigoal, bool) {
	if i.kind != KindMultigoal || i.multigoal == nil {
		return Multigoal{}, false
	}
	return *i.multigoal, true
}

// String renders the Item for diagnostics/tracing.
func (i Item) String() string {
	switch i.kind {
	case KindTask:
		return fmt.Sprintf("task(%s, %v)", i.task.Name, i.task.Args)
	case KindGoal:
		return fmt.Sprintf("goal(%s, %s, %v)", i.goal.Predicate, i.goal.Subject, i.goal.Value)
	case KindMultigoal:
		return fmt.Sprintf("multigoal(%s, %d goals)", i.multigoal.Name, len(i.multigoal.Goals))
	default:
		return "todo(invalid)"
	}
}

// Satisfied reports whether the Goal already holds in s.
func (g Goal) Satisfied(s state.State) bool {
	return s.Matches(g.Predicate, g.Subject, g.Value)
}

// Unsatisfied returns the sub-slice of goals that do not hold in s, in the
// original left-to-right order, per spec.md §4.G.3's pruning order.
func (mg Multigoal) Unsatisfied(s state.State) []Goal {
	var out []Goal
	for _, g := range mg.Goals {
		if !g.Satisfied(s) {
			out = append(out, g)
		}
	}
	return out
}

// Satisfied reports whether every goal in the multigoal already holds in s.
func (mg Multigoal) Satisfied(s state.State) bool {
	return len(mg.Unsatisfied(s)) == 0
}
