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

// Package htn is the external-facing facade (spec.md §6): a thin
// re-export of the planner/domain/state/todo/duration/stn packages so a
// caller can build a domain, describe a goal, and plan/execute against it
// without importing each subpackage individually.
package htn

import (
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/duration"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/planner"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/stn"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/tree"
)

type (
	// Domain is the read-only registry of actions and methods, per
	// spec.md §6.2.
	Domain = domain.Domain

	// State is the relational fact store, per spec.md §3.1.
	State = state.State

	// Goal, Multigoal, Task and Item are the todo-list vocabulary, per
	// spec.md §6.3.
	Goal      = todo.Goal
	Multigoal = todo.Multigoal
	Task      = todo.Task
	Item      = todo.Item

	// Tree is the planner's solution tree, per spec.md §3.4.
	Tree = tree.Tree

	// Options controls a Plan/RunLazy/RunLazyTree call, per spec.md §5.
	Options = planner.Options

	// Result is what Plan/RunLazy/RunLazyTree return on success.
	Result = planner.Result

	// Error is the planner's structured failure type, per spec.md §7.
	Error = planner.Error

	// Kind tags an Error's failure class, per spec.md §7.
	Kind = planner.Kind

	// Duration describes an action's temporal extent, per spec.md §4.D.
	Duration = duration.Spec

	// STN is a Simple Temporal Network, per spec.md §4.H.
	STN = stn.STN
)

// Error kind constants, re-exported at root per spec.md §7.
const (
	KindPreconditionUnmet  = planner.KindPreconditionUnmet
	KindNoMethodApplicable = planner.KindNoMethodApplicable
	KindNoPlan             = planner.KindNoPlan
	KindDepthExceeded      = planner.KindDepthExceeded
	KindCancelled          = planner.KindCancelled
	KindInconsistentSTN    = planner.KindInconsistentSTN
	KindExecutionFailure   = planner.KindExecutionFailure
	KindMalformedInput     = planner.KindMalformedInput
)

// NewDomain returns an empty Domain ready for Add* calls, per spec.md
// §6.2's new_domain().
func NewDomain() *Domain { return domain.New() }

// NewState returns an empty State, per spec.md §3.1.
func NewState() State { return state.New() }

// TaskItem, GoalItem and MultigoalItem wrap a Task/Goal/Multigoal as an
// Item, per spec.md §6.3.
func TaskItem(t Task) Item            { return todo.TaskItem(t) }
func GoalItem(g Goal) Item            { return todo.GoalItem(g) }
func MultigoalItem(mg Multigoal) Item { return todo.MultigoalItem(mg) }

// ParseISO8601 parses an ISO 8601 duration (the PT<n>H<n>M<n>S subset) or a
// plain integer, per spec.md §6.4.
func ParseISO8601(src string) (uint64, error) { return duration.ParseISO8601(src) }

// NewSTN returns an empty Simple Temporal Network, per spec.md §4.H.
func NewSTN() *STN { return stn.New() }

// Plan refines todos against s0 using d, producing a solution tree and
// final state without executing anything, per spec.md §6.1's plan().
func Plan(d *Domain, s0 State, todos []Item, opts Options) (*Result, error) {
	return planner.Plan(d, s0, todos, opts)
}

// RunLazy plans and then immediately executes, per spec.md §6.1's
// run_lazy().
func RunLazy(d *Domain, s0 State, todos []Item, opts Options) (*Result, error) {
	return planner.RunLazy(d, s0, todos, opts)
}

// RunLazyTree executes a pre-planned tree, re-refining on failure, per
// spec.md §6.1's run_lazy_tree().
func RunLazyTree(d *Domain, s0 State, t *Tree, opts Options) (*Result, error) {
	return planner.RunLazyTree(d, s0, t, opts)
}
