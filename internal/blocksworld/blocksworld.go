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

// Package blocksworld is a sample domain exercising the planner against
// spec.md §8's Scenarios 1 and 2 (the Sussman anomaly and a rearrangement
// problem): four primitive actions (pickup, unstack, putdown, stack) plus
// the classic "move one block, then reconsider the rest of the multigoal"
// method pair, grounded in shape on the teacher's templatePick/
// templatePlace/templateMove actions (examples/tcell-pick-and-place/logic/
// logic.go) — one function per named action, preconditions and effects as
// separate closures over the relevant state, rather than a monolithic
// switch.
package blocksworld

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

// Table is the location value denoting "on the table" rather than on
// another block.
const Table = "table"

// Hand is the subject name the "holding" predicate is recorded against;
// there is exactly one hand in this domain.
const Hand = "hand"

func pos(s state.State, b string) string {
	v, ok := s.Get("pos", b)
	if !ok {
		return Table
	}
	loc, ok := v.(string)
	if !ok || loc == "" {
		return Table
	}
	return loc
}

func clear(s state.State, loc string) bool {
	if loc == Table {
		return true
	}
	v, ok := s.Get("clear", loc)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func holding(s state.State) (string, bool) {
	v, ok := s.Get("holding", Hand)
	if !ok {
		return "", false
	}
	if b, ok := v.(string); ok && b != "" {
		return b, true
	}
	return "", false
}

// NewDomain builds the blocksworld Domain: pickup/unstack/putdown/stack
// actions, a move_one task method, and an onGoal unigoal method plus
// moveBlocks multigoal method implementing the standard "status of each
// block" decision procedure (Gupta & Nau's algorithm for avoiding Sussman-
// anomaly deadlocks) that emits one move_one task per call.
func NewDomain() *domain.Domain {
	d := domain.New().SetMetadata("name", "blocksworld")

	d.AddAction("pickup", domain.ActionSpec{
		Arity: 1,
		Precondition: func(s state.State, args []any) bool {
			b := args[0].(string)
			_, held := holding(s)
			return !held && pos(s, b) == Table && clear(s, b)
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			b := args[0].(string)
			return s.Set("holding", Hand, b).Set("pos", b, ""), nil
		},
	})

	d.AddAction("unstack", domain.ActionSpec{
		Arity: 2,
		Precondition: func(s state.State, args []any) bool {
			b, c := args[0].(string), args[1].(string)
			_, held := holding(s)
			return !held && pos(s, b) == c && clear(s, b)
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			b, c := args[0].(string), args[1].(string)
			return s.Set("holding", Hand, b).Set("pos", b, "").Set("clear", c, true), nil
		},
	})

	d.AddAction("putdown", domain.ActionSpec{
		Arity: 1,
		Precondition: func(s state.State, args []any) bool {
			b := args[0].(string)
			held, ok := holding(s)
			return ok && held == b
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			b := args[0].(string)
			return s.Set("holding", Hand, "").Set("pos", b, Table).Set("clear", b, true), nil
		},
	})

	d.AddAction("stack", domain.ActionSpec{
		Arity: 2,
		Precondition: func(s state.State, args []any) bool {
			b, c := args[0].(string), args[1].(string)
			held, ok := holding(s)
			return ok && held == b && clear(s, c)
		},
		Effect: func(s state.State, args []any) (state.State, error) {
			b, c := args[0].(string), args[1].(string)
			return s.Set("holding", Hand, "").Set("pos", b, c).Set("clear", c, false).Set("clear", b, true), nil
		},
	})

	d.AddTaskMethod("move_one", moveOne)
	d.AddUnigoalMethod("pos", onGoal)
	d.AddMultigoalMethod(moveBlocks)

	return d
}

// moveOne expands the task move_one(b, target) into the concrete
// pickup/unstack + stack/putdown pair, choosing based on whether the hand
// already holds b and whether b currently sits on the table.
func moveOne(s state.State, args []any) ([]todo.Item, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("blocksworld: move_one needs exactly 2 args, got %d", len(args))
	}
	b, target := args[0].(string), args[1].(string)

	if target == Table {
		if held, ok := holding(s); ok && held == b {
			return []todo.Item{todo.TaskItem(todo.Task{Name: "putdown", Args: []any{b}})}, nil
		}
		return []todo.Item{
			todo.TaskItem(todo.Task{Name: "unstack", Args: []any{b, pos(s, b)}}),
			todo.TaskItem(todo.Task{Name: "putdown", Args: []any{b}}),
		}, nil
	}

	if held, ok := holding(s); ok && held == b {
		return []todo.Item{todo.TaskItem(todo.Task{Name: "stack", Args: []any{b, target}})}, nil
	}
	if pos(s, b) == Table {
		return []todo.Item{
			todo.TaskItem(todo.Task{Name: "pickup", Args: []any{b}}),
			todo.TaskItem(todo.Task{Name: "stack", Args: []any{b, target}}),
		}, nil
	}
	return []todo.Item{
		todo.TaskItem(todo.Task{Name: "unstack", Args: []any{b, pos(s, b)}}),
		todo.TaskItem(todo.Task{Name: "stack", Args: []any{b, target}}),
	}, nil
}

// onGoal is the unigoal method for a single (pos, b, target) goal: move b
// directly to target, for when the caller isn't driving through a
// multigoal (and so doesn't need the blocker-clearing dance moveBlocks
// does).
func onGoal(s state.State, g todo.Goal) ([]todo.Item, error) {
	target, ok := g.Value.(string)
	if !ok {
		return nil, fmt.Errorf("blocksworld: pos goal value must be a string, got %T", g.Value)
	}
	return []todo.Item{todo.TaskItem(todo.Task{Name: "move_one", Args: []any{g.Subject, target}})}, nil
}

// blockerStatus classifies a block within a multigoal, per Gupta & Nau's
// blocks-world status procedure: done, inaccessible (something's on it),
// move-to-table, move-to-block (its target is ready and clear), or
// waiting (its target is itself not yet in place).
type blockerStatus int

const (
	statusDone blockerStatus = iota
	statusInaccessible
	statusMoveToTable
	statusMoveToBlock
	statusWaiting
)

func isDone(b string, s state.State, goals map[string]string) bool {
	if b == Table {
		return true
	}
	if target, ok := goals[b]; ok && target != pos(s, b) {
		return false
	}
	if pos(s, b) == Table {
		return true
	}
	return isDone(pos(s, b), s, goals)
}

func status(b string, s state.State, goals map[string]string) blockerStatus {
	if isDone(b, s, goals) {
		return statusDone
	}
	if !clear(s, b) {
		return statusInaccessible
	}
	target, has := goals[b]
	if !has || target == Table {
		return statusMoveToTable
	}
	if isDone(target, s, goals) && clear(s, target) {
		return statusMoveToBlock
	}
	return statusWaiting
}

// moveBlocks is the multigoal method implementing Gupta & Nau's algorithm:
// find any block that can make direct progress (move-to-table or
// move-to-block) and emit a single move_one task for it; failing that,
// unstick a "waiting" block by moving it to the table to break the cycle.
// It always returns a non-reduced result (Reduced: false); the planner
// re-prunes the multigoal and calls back in after each move_one completes
// (see planner.expandMultigoalReduced).
func moveBlocks(s state.State, mg todo.Multigoal) (domain.MultigoalMethodResult, error) {
	goals := make(map[string]string, len(mg.Goals))
	for _, g := range mg.Goals {
		if g.Predicate != "pos" {
			continue
		}
		target, ok := g.Value.(string)
		if !ok {
			return domain.MultigoalMethodResult{}, fmt.Errorf("blocksworld: pos goal value must be a string, got %T", g.Value)
		}
		goals[g.Subject] = target
	}

	// Status must be checked for every block in the world, not just the
	// goal's named subjects: a block blocking a goal subject (e.g. a block
	// sitting on top of one we need to move) may itself have no goal of
	// its own, but still needs to be classified and moved out of the way.
	seen := make(map[string]bool)
	var order []string
	for _, b := range s.SubjectsWithPredicate("pos") {
		if !seen[b] {
			seen[b] = true
			order = append(order, b)
		}
	}
	for b := range goals {
		if !seen[b] {
			seen[b] = true
			order = append(order, b)
		}
	}

	for _, b := range order {
		switch status(b, s, goals) {
		case statusMoveToTable:
			return todos(b, Table), nil
		case statusMoveToBlock:
			return todos(b, goals[b]), nil
		}
	}
	for _, b := range order {
		if status(b, s, goals) == statusWaiting {
			return todos(b, Table), nil
		}
	}
	return domain.MultigoalMethodResult{}, fmt.Errorf("blocksworld: no progress possible on remaining multigoal")
}

func todos(b, target string) domain.MultigoalMethodResult {
	return domain.MultigoalMethodResult{
		Todos: []todo.Item{todo.TaskItem(todo.Task{Name: "move_one", Args: []any{b, target}})},
	}
}
