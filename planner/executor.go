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

package planner

import (
	"context"
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/tree"
)

// RunLazy plans todos against s0 and then executes the resulting tree, per
// spec.md §6.1's run_lazy: the two-phase "plan once, walk the tree, re-plan
// only the failing subtree" behavior that gives the executor its name.
func RunLazy(d *domain.Domain, s0 state.State, todos []todo.Item, opts Options) (*Result, error) {
	planned, err := Plan(d, s0, todos, opts)
	if err != nil {
		return nil, err
	}
	return RunLazyTree(d, s0, planned.Tree, opts)
}

// RunLazyTree walks t's primitive leaves in DFS order (tree.
// PrimitiveActionsDFS) by ticking them as a go-behaviortree Sequence, one
// leaf per primitive, re-checking each primitive's precondition against the
// actual running state rather than trusting the snapshot captured at plan
// time. A primitive whose precondition no longer holds, or whose effect
// errors, triggers re-refinement of the smallest enclosing subtree with
// untried alternatives (spec.md §4.I): that subtree is replanned from the
// current state and immediately executed in turn, and a fresh sequence is
// built from whatever primitives remain un-Executed. If no ancestor has
// alternatives left, the failure surfaces as KindExecutionFailure.
func RunLazyTree(d *domain.Domain, s0 state.State, t *tree.Tree, opts Options) (*Result, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := &planRun{domain: d, tree: t, opts: opts, ctx: ctx}

	cur := s0
	for {
		primitives := t.PrimitiveActionsDFS()
		var leaves []bt.Node
		for _, nodeID := range primitives {
			n, err := t.Get(nodeID)
			if err != nil {
				return nil, newErr(KindMalformedInput, err.Error())
			}
			if n.Status == tree.Executed {
				continue
			}
			nodeID := nodeID
			leaves = append(leaves, bt.New(p.tickPrimitive(nodeID, &cur)))
		}
		if len(leaves) == 0 {
			break
		}

		root := bt.New(bt.Memorize(bt.Sequence), leaves...)
		var status bt.Status
		var err error
		for {
			if cerr := p.cancelled(); cerr != nil {
				return nil, cerr
			}
			status, err = root.Tick()
			if status != bt.Running {
				break
			}
		}
		if err != nil {
			if perr, ok := err.(*Error); ok {
				return nil, perr
			}
			return nil, newErr(KindExecutionFailure, err.Error())
		}
		if status == bt.Success {
			break
		}

		// status == bt.Failure: p.failedNode names the leaf that failed.
		refinedState, rerr := p.reRefine(p.failedNode, cur)
		if rerr != nil {
			return nil, rerr
		}
		cur = refinedState
	}

	return &Result{Tree: t, FinalState: cur, Trace: p.trace}, nil
}

// tickPrimitive returns the bt.Tick for a single primitive leaf: it
// re-validates the primitive's precondition and applies its effect against
// *cur, advancing *cur on success. On failure it records the node so the
// caller can locate it for re-refinement, per the newConditionNode pattern
// the teacher uses to report outcome through a shared variable.
func (p *planRun) tickPrimitive(nodeID tree.NodeID, cur *state.State) bt.Tick {
	return func([]bt.Node) (bt.Status, error) {
		n, err := p.tree.Get(nodeID)
		if err != nil {
			return bt.Failure, newErr(KindMalformedInput, err.Error())
		}
		spec, ok := p.domain.Action(n.ActionName)
		if !ok {
			return bt.Failure, newErr(KindMalformedInput, fmt.Sprintf("tree references unknown action %q", n.ActionName))
		}

		preOK, perr := safePrecondition(spec, *cur, n.ActionArgs)
		if perr != nil || !preOK {
			p.failedNode = nodeID
			return bt.Failure, nil
		}
		newState, eerr := safeEffect(spec, *cur, n.ActionArgs)
		if eerr != nil {
			p.failedNode = nodeID
			return bt.Failure, nil
		}

		n.StateAfter = newState
		_ = p.tree.Put(n)
		_ = p.tree.SetStatus(nodeID, tree.Executed)
		*cur = newState
		return bt.Success, nil
	}
}

// reRefine finds the nearest ancestor of failingNode whose method cursor
// still has alternatives, replans that ancestor's subtree from curState
// using the next alternative onward, and executes the freshly-planned
// subtree immediately (so the caller can simply resume its primitive scan
// afterward).
func (p *planRun) reRefine(failingNode tree.NodeID, curState state.State) (state.State, error) {
	ancestor, total, startCursor, err := p.findReRefinable(failingNode)
	if err != nil {
		return curState, newErr(KindExecutionFailure, fmt.Sprintf("action failed and no ancestor has remaining alternatives: %v", err))
	}

	n, err := p.tree.Get(ancestor)
	if err != nil {
		return curState, err
	}

	var newState state.State
	var rerr error
	switch n.Kind {
	case tree.KindTaskExpansion:
		methods := p.domain.TaskMethods(n.TaskName)
		newState, _, rerr = p.tryMethods(
			curState, 0, ancestor, tree.KindTaskExpansion, 0, total, startCursor,
			func(nd *tree.Node) { nd.TaskName = n.TaskName; nd.TaskArgs = n.TaskArgs },
			func(i int) ([]todo.Item, error) { return methods[i](curState, n.TaskArgs) },
		)
	case tree.KindGoalExpansion:
		methods := p.domain.UnigoalMethods(n.Goal.Predicate)
		newState, _, rerr = p.tryMethods(
			curState, 0, ancestor, tree.KindGoalExpansion, 0, total, startCursor,
			func(nd *tree.Node) { nd.Goal = n.Goal },
			func(i int) ([]todo.Item, error) { return methods[i](curState, n.Goal) },
		)
	default:
		return curState, newErr(KindExecutionFailure, "re-refinable ancestor has an unsupported kind")
	}
	if rerr != nil {
		return curState, newErr(KindExecutionFailure, fmt.Sprintf("re-refinement failed: %v", rerr))
	}

	// Execute every primitive newly attached under ancestor, in DFS order,
	// immediately: the outer scan will simply see them already Executed.
	sub := p.tree.PrimitiveActionsDFS()
	for _, id := range sub {
		node, _ := p.tree.Get(id)
		if node.Status == tree.Executed || !descendsFrom(p.tree, id, ancestor) {
			continue
		}
		spec, ok := p.domain.Action(node.ActionName)
		if !ok {
			return curState, newErr(KindMalformedInput, fmt.Sprintf("tree references unknown action %q", node.ActionName))
		}
		ok2, perr := safePrecondition(spec, newState, node.ActionArgs)
		if perr != nil || !ok2 {
			return curState, newErr(KindExecutionFailure, fmt.Sprintf("re-refined action %q still fails its precondition", node.ActionName))
		}
		applied, eerr := safeEffect(spec, newState, node.ActionArgs)
		if eerr != nil {
			return curState, newErr(KindExecutionFailure, eerr.Error())
		}
		node.StateAfter = applied
		_ = p.tree.Put(node)
		_ = p.tree.SetStatus(id, tree.Executed)
		newState = applied
	}

	return newState, nil
}

func descendsFrom(t *tree.Tree, id, ancestor tree.NodeID) bool {
	for cur := id; cur != 0; {
		if cur == ancestor {
			return true
		}
		n, err := t.Get(cur)
		if err != nil {
			return false
		}
		cur = n.Parent
	}
	return false
}

// findReRefinable walks up from node's parent looking for the nearest
// Task-expansion or Goal-expansion ancestor whose ChosenMethod has not
// exhausted its method list, per spec.md §4.I. Multigoal-expansion
// ancestors are skipped (see expandMultigoal's doc comment).
func (p *planRun) findReRefinable(node tree.NodeID) (ancestor tree.NodeID, total, startCursor int, err error) {
	cur, err := p.tree.Parent(node)
	if err != nil {
		return 0, 0, 0, err
	}
	for cur != 0 {
		n, gerr := p.tree.Get(cur)
		if gerr != nil {
			return 0, 0, 0, gerr
		}
		switch n.Kind {
		case tree.KindTaskExpansion:
			count := len(p.domain.TaskMethods(n.TaskName))
			if n.ChosenMethod+1 < count {
				return cur, count, n.ChosenMethod + 1, nil
			}
		case tree.KindGoalExpansion:
			count := len(p.domain.UnigoalMethods(n.Goal.Predicate))
			if n.ChosenMethod+1 < count {
				return cur, count, n.ChosenMethod + 1, nil
			}
		}
		cur = n.Parent
	}
	return 0, 0, 0, fmt.Errorf("no ancestor with remaining alternatives")
}
