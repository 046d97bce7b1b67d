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

// Package planner implements the HTN planner core (spec.md §4.G): iterative
// refinement of a todo list into a solution tree, with backtracking driven
// by the call stack rather than an explicit frame list — each expand*
// method is itself the "try the next alternative, else fail upward" loop,
// so the recursive return chain performs exactly the cursor-advance the
// Design Notes describe at every enclosing level for free.
//
// Grounded on the teacher's top-level retry loop (pabt.go's Plan.Tick,
// which repeatedly re-ticks a behavior tree of conditions until the whole
// thing reports success or failure) generalized from PA-BT's flat
// condition/action model to method enumeration with backtracking. The
// panic-to-error guard around every caller-supplied method/precondition/
// effect function is grounded on the teacher's defer-recover pattern in
// util.go's action wrappers.
package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/tree"
)

// Options controls planner behavior. The zero value is usable: no limits,
// no tracing, a background context.
type Options struct {
	// Context, if non-nil, is checked between method attempts and between
	// todo items so a caller can cancel or time out a long search.
	Context context.Context

	// MethodTriesLimit caps how many alternatives are tried for any single
	// Task/Goal/Multigoal expansion before that node fails. 0 means
	// unlimited.
	MethodTriesLimit int

	// DeepeningLimit caps the recursion depth (expansions nested inside
	// expansions) before the whole search surfaces KindDepthExceeded. 0
	// means unlimited.
	DeepeningLimit int

	// Verbosity, when > 0, causes Plan to populate Result.Trace with one
	// entry per successful Task/Goal expansion and per applied primitive.
	// RunLazy/RunLazyTree return only the entries recorded while
	// re-refining during execution.
	Verbosity int
}

// TraceEntry records one successful expansion or applied primitive,
// emitted when Options.Verbosity > 0.
type TraceEntry struct {
	NodeID      tree.NodeID
	Description string
}

// Result is what a successful Plan/RunLazy/RunLazyTree call returns.
type Result struct {
	Tree       *tree.Tree
	FinalState state.State
	Trace      []TraceEntry
}

type planRun struct {
	domain *domain.Domain
	tree   *tree.Tree
	opts   Options
	ctx    context.Context
	trace  []TraceEntry

	// failedNode is set by RunLazyTree's bt.Tick leaves (see
	// tickPrimitive in executor.go) to report which primitive failed,
	// since a bt.Tick's only channel back to the caller besides its
	// return value is a variable closed over by reference.
	failedNode tree.NodeID
}

func (p *planRun) log(nodeID tree.NodeID, format string, args ...any) {
	if p.opts.Verbosity <= 0 {
		return
	}
	p.trace = append(p.trace, TraceEntry{NodeID: nodeID, Description: fmt.Sprintf(format, args...)})
}

func (p *planRun) cancelled() error {
	select {
	case <-p.ctx.Done():
		return newErr(KindCancelled, p.ctx.Err().Error())
	default:
		return nil
	}
}

// Plan refines todos against s0 using d, producing a solution tree whose
// primitive leaves, executed in DFS order, transform s0 into Result.
// FinalState. It never mutates state.State values (copy-on-write); it does
// build and mutate a fresh tree.Tree per call.
func Plan(d *domain.Domain, s0 state.State, todos []todo.Item, opts Options) (*Result, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	t, root := tree.NewRoot()
	p := &planRun{domain: d, tree: t, opts: opts, ctx: ctx}

	final, err := p.processTodos(s0, todos, root, 0)
	if err != nil {
		if recoverable(kindOf(err)) {
			return nil, newErr(KindNoPlan, "no plan satisfies the given todos")
		}
		return nil, err
	}
	return &Result{Tree: t, FinalState: final, Trace: p.trace}, nil
}

// processTodos threads state through todos in order, each one expanded (or,
// for an already-satisfied Goal/Multigoal, skipped) under parent.
func (p *planRun) processTodos(s state.State, todos []todo.Item, parent tree.NodeID, depth int) (state.State, error) {
	if p.opts.DeepeningLimit > 0 && depth > p.opts.DeepeningLimit {
		return s, newErr(KindDepthExceeded, fmt.Sprintf("deepening limit %d exceeded", p.opts.DeepeningLimit))
	}
	for _, item := range todos {
		if err := p.cancelled(); err != nil {
			return s, err
		}
		var err error
		s, err = p.processItem(s, item, parent, depth)
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func (p *planRun) processItem(s state.State, item todo.Item, parent tree.NodeID, depth int) (state.State, error) {
	switch item.Kind() {
	case todo.KindTask:
		task, _ := item.AsTask()
		return p.expandTask(s, task, parent, depth)
	case todo.KindGoal:
		g, _ := item.AsGoal()
		return p.expandGoal(s, g, parent, depth)
	case todo.KindMultigoal:
		mg, _ := item.AsMultigoal()
		return p.expandMultigoal(s, mg, parent, depth)
	default:
		return s, newErr(KindMalformedInput, "todo item has no recognized kind")
	}
}

// safeCall invokes a caller-supplied method function, converting any panic
// into a recoverable no_method_applicable error instead of letting it cross
// the planner's API boundary.
func safeCall(call func() ([]todo.Item, error)) (result []todo.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindNoMethodApplicable, fmt.Sprintf("method panicked: %v", r))
		}
	}()
	return call()
}

func safeMultigoalCall(call func() (domain.MultigoalMethodResult, error)) (result domain.MultigoalMethodResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindNoMethodApplicable, fmt.Sprintf("multigoal method panicked: %v", r))
		}
	}()
	return call()
}

func safePrecondition(spec domain.ActionSpec, s state.State, args []any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindPreconditionUnmet, fmt.Sprintf("precondition panicked: %v", r))
		}
	}()
	return spec.Precondition(s, args), nil
}

func safeEffect(spec domain.ActionSpec, s state.State, args []any) (result state.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindExecutionFailure, fmt.Sprintf("effect panicked: %v", r))
		}
	}()
	return spec.Effect(s, args)
}

// tryMethods is the shared backtracking loop for Task and Goal expansions
// (fresh expansion and re-refinement alike): it tries methods[startCursor:]
// in order, each in its own tree checkpoint, recursing into the resulting
// sub-todos, and restoring on any recoverable failure before trying the
// next alternative. existingNode, if non-zero, is reused in place (its old
// children are discarded first) rather than creating a fresh child of
// parent — the path re-refinement takes when resuming a node whose cursor
// still has alternatives left.
func (p *planRun) tryMethods(
	s state.State,
	parent, existingNode tree.NodeID,
	kind tree.Kind,
	depth int,
	total int,
	startCursor int,
	fill func(n *tree.Node),
	call func(i int) ([]todo.Item, error),
) (state.State, tree.NodeID, error) {
	nodeID := existingNode
	if nodeID == 0 {
		payload := tree.Node{StateBefore: s}
		fill(&payload)
		id, err := p.tree.AddChild(parent, kind, payload)
		if err != nil {
			return s, 0, err
		}
		nodeID = id
	} else {
		n, err := p.tree.Get(nodeID)
		if err != nil {
			return s, 0, err
		}
		n.StateBefore = s
		fill(&n)
		if err := p.tree.Put(n); err != nil {
			return s, 0, err
		}
		if err := p.tree.ReplaceSubtree(nodeID, nil); err != nil {
			return s, 0, err
		}
	}

	limit := total
	if p.opts.MethodTriesLimit > 0 && startCursor+p.opts.MethodTriesLimit < limit {
		limit = startCursor + p.opts.MethodTriesLimit
	}

	var lastErr error = newErr(KindNoMethodApplicable, "no methods available")
	for i := startCursor; i < limit; i++ {
		if err := p.cancelled(); err != nil {
			return s, nodeID, err
		}
		subtodos, err := safeCall(func() ([]todo.Item, error) { return call(i) })
		if err != nil {
			lastErr = err
			continue
		}

		checkpoint := p.tree.Checkpoint()
		n, _ := p.tree.Get(nodeID)
		n.ChosenMethod = i
		n.MethodCursor = i
		_ = p.tree.Put(n)

		newState, rerr := p.processTodos(s, subtodos, nodeID, depth+1)
		if rerr == nil {
			_ = p.tree.SetStatus(nodeID, tree.Expanded)
			p.log(nodeID, "expanded via method %d", i)
			return newState, nodeID, nil
		}
		if !recoverable(kindOf(rerr)) {
			return s, nodeID, rerr
		}
		lastErr = rerr
		_ = p.tree.Restore(checkpoint)
	}

	_ = p.tree.SetStatus(nodeID, tree.Failed)
	return s, nodeID, lastErr
}

func (p *planRun) expandTask(s state.State, task todo.Task, parent tree.NodeID, depth int) (state.State, error) {
	if spec, ok := p.domain.Action(task.Name); ok {
		return p.applyPrimitive(s, task, spec, parent)
	}

	methods := p.domain.TaskMethods(task.Name)
	if len(methods) == 0 {
		return s, newErr(KindNoMethodApplicable, fmt.Sprintf("no action or task method registered for %q", task.Name))
	}

	newState, _, err := p.tryMethods(
		s, parent, 0, tree.KindTaskExpansion, depth, len(methods), 0,
		func(n *tree.Node) { n.TaskName = task.Name; n.TaskArgs = task.Args },
		func(i int) ([]todo.Item, error) { return methods[i](s, task.Args) },
	)
	return newState, err
}

func (p *planRun) expandGoal(s state.State, g todo.Goal, parent tree.NodeID, depth int) (state.State, error) {
	if g.Satisfied(s) {
		return s, nil
	}

	methods := p.domain.UnigoalMethods(g.Predicate)
	if len(methods) == 0 {
		return s, newErr(KindNoMethodApplicable, fmt.Sprintf("no unigoal method registered for predicate %q", g.Predicate))
	}

	newState, _, err := p.tryMethods(
		s, parent, 0, tree.KindGoalExpansion, depth, len(methods), 0,
		func(n *tree.Node) { n.Goal = g },
		func(i int) ([]todo.Item, error) { return methods[i](s, g) },
	)
	return newState, err
}

// expandMultigoal prunes already-satisfied goals and, if any remain,
// dispatches to a chain of multigoal-expansion nodes: each multigoal method
// either returns sub-todos (terminal) or a reduced multigoal to keep
// iterating on (spec.md §3.3). Re-refinement of a multigoal-expansion
// subtree is not supported; the lazy executor's ancestor search skips
// these nodes and looks further up.
func (p *planRun) expandMultigoal(s state.State, mg todo.Multigoal, parent tree.NodeID, depth int) (state.State, error) {
	unsat := mg.Unsatisfied(s)
	if len(unsat) == 0 {
		return s, nil
	}
	return p.expandMultigoalReduced(s, todo.Multigoal{Name: mg.Name, Goals: unsat}, parent, depth)
}

func (p *planRun) expandMultigoalReduced(s state.State, mg todo.Multigoal, parent tree.NodeID, depth int) (state.State, error) {
	if p.opts.DeepeningLimit > 0 && depth > p.opts.DeepeningLimit {
		return s, newErr(KindDepthExceeded, fmt.Sprintf("deepening limit %d exceeded", p.opts.DeepeningLimit))
	}

	methods := p.domain.MultigoalMethods()
	if len(methods) == 0 {
		return s, newErr(KindNoMethodApplicable, "no multigoal methods registered")
	}

	limit := len(methods)
	if p.opts.MethodTriesLimit > 0 && p.opts.MethodTriesLimit < limit {
		limit = p.opts.MethodTriesLimit
	}

	var lastErr error = newErr(KindNoMethodApplicable, "no multigoal method applicable")
	for i := 0; i < limit; i++ {
		if err := p.cancelled(); err != nil {
			return s, err
		}
		result, err := safeMultigoalCall(func() (domain.MultigoalMethodResult, error) { return methods[i](s, mg) })
		if err != nil {
			lastErr = err
			continue
		}

		checkpoint := p.tree.Checkpoint()
		nodeID, aerr := p.tree.AddChild(parent, tree.KindMultigoalExpansion, tree.Node{
			Multigoal: mg, ChosenMethod: i, StateBefore: s,
		})
		if aerr != nil {
			return s, aerr
		}

		var newState state.State
		var rerr error
		if result.Reduced {
			next := result.Remainder.Unsatisfied(s)
			if len(next) == 0 {
				newState, rerr = s, nil
			} else {
				newState, rerr = p.expandMultigoalReduced(s, todo.Multigoal{Name: result.Remainder.Name, Goals: next}, nodeID, depth+1)
			}
		} else {
			newState, rerr = p.processTodos(s, result.Todos, nodeID, depth+1)
			if rerr == nil {
				// A method that returns Todos (rather than a reduced
				// multigoal) typically makes incremental progress on one
				// or two goals at a time, per GTPyhop's classic
				// move-one-block-then-reconsider pattern (see
				// internal/blocksworld's moveBlocks). Re-prune against
				// the post-todos state and keep going if anything remains.
				remaining := mg.Unsatisfied(newState)
				if len(remaining) > 0 {
					newState, rerr = p.expandMultigoalReduced(newState, todo.Multigoal{Name: mg.Name, Goals: remaining}, nodeID, depth+1)
				}
			}
		}

		if rerr == nil {
			_ = p.tree.SetStatus(nodeID, tree.Expanded)
			return newState, nil
		}
		if !recoverable(kindOf(rerr)) {
			return s, rerr
		}
		lastErr = rerr
		_ = p.tree.Restore(checkpoint)
	}

	return s, lastErr
}

func (p *planRun) applyPrimitive(s state.State, task todo.Task, spec domain.ActionSpec, parent tree.NodeID) (state.State, error) {
	if err := p.cancelled(); err != nil {
		return s, err
	}
	ok, err := safePrecondition(spec, s, task.Args)
	if err != nil {
		return s, err
	}
	if !ok {
		return s, newErr(KindPreconditionUnmet, fmt.Sprintf("precondition failed for action %q", task.Name))
	}

	newState, err := safeEffect(spec, s, task.Args)
	if err != nil {
		if kindOf(err) == KindExecutionFailure {
			// At plan time (not lazy execution) an effect failure is just
			// another reason this alternative doesn't work out.
			return s, newErr(KindPreconditionUnmet, err.Error())
		}
		return s, err
	}

	start := fmt.Sprintf("%s/%s/start", task.Name, uuid.NewString())
	end := fmt.Sprintf("%s/%s/end", task.Name, uuid.NewString())
	nodeID, err := p.tree.AddChild(parent, tree.KindPrimitive, tree.Node{
		ActionName: task.Name, ActionArgs: task.Args,
		StateBefore: s, StateAfter: newState,
		StartPoint: start, EndPoint: end,
	})
	if err != nil {
		return s, err
	}
	p.log(nodeID, "applied primitive %s", task.Name)
	return newState, nil
}
