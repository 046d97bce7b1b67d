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

// Package tree implements the planner's solution tree: a DAG of expansions
// terminating in primitive actions, per spec.md §3.4/§4.E. Per the spec's
// Design Notes ("store nodes in an arena ... addressed by integer IDs"),
// nodes live in a single append-only slice addressed by NodeID rather than
// the teacher's pointer-linked node struct (pabt.go), which avoids cyclic
// ownership and makes backtracking a cheap ID-range truncation.
package tree

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

type (
	// NodeID addresses a node within a Tree's arena. The zero value is not
	// a valid node ID (indices start at 1); it is used as a "no parent"/
	// "no such node" sentinel.
	NodeID int

	// Kind tags the role a Node plays in the solution tree.
	Kind int

	// Status is the lifecycle state of a Node.
	Status int

	// Node is one arena slot. Only the fields relevant to Kind are
	// meaningful; zero values are used for all others.
	Node struct {
		ID           NodeID
		Parent       NodeID
		Children     []NodeID
		Kind         Kind
		Status       Status
		MethodCursor int // index of the next method to try on backtrack

		// Task-expansion payload
		TaskName     string
		TaskArgs     []any
		ChosenMethod int

		// Goal-expansion payload
		Goal todo.Goal

		// Multigoal-expansion payload
		Multigoal todo.Multigoal

		// shared by Task/Goal/Multigoal-expansion nodes
		StateBefore state.State

		// Primitive payload
		ActionName  string
		ActionArgs  []any
		StateAfter  state.State
		StartPoint  string
		EndPoint    string
	}

	// Tree is the arena. The zero value is not valid; construct with
	// NewRoot.
	Tree struct {
		nodes []Node // nodes[0] is an unused sentinel; real IDs start at 1
	}
)

const (
	// KindRoot is the tree's single root, whose children are the original
	// todo list.
	KindRoot Kind = iota
	// KindTaskExpansion is a node produced by expanding a Task via a task
	// method.
	KindTaskExpansion
	// KindGoalExpansion is a node produced by expanding a Goal via a
	// unigoal method.
	KindGoalExpansion
	// KindMultigoalExpansion is a node produced by expanding a Multigoal
	// via a multigoal method.
	KindMultigoalExpansion
	// KindPrimitive is a leaf: a single primitive action invocation.
	KindPrimitive
)

const (
	// Unexpanded marks a node not yet processed by the planner.
	Unexpanded Status = iota
	// Expanded marks a node whose children were produced successfully.
	Expanded
	// Failed marks a node all of whose methods have been exhausted.
	Failed
	// Executed marks a node (and, transitively, its whole subtree) whose
	// todos have all been satisfied or executed.
	Executed
)

// NewRoot constructs a Tree containing only a root node, and returns both
// the Tree and the root's NodeID. The root stores no todos itself; it
// gains children as the planner processes each of the original todos.
func NewRoot() (*Tree, NodeID) {
	t := &Tree{nodes: make([]Node, 1, 8)} // index 0 is the sentinel
	t.nodes = append(t.nodes, Node{ID: 1, Kind: KindRoot, Status: Unexpanded})
	return t, 1
}

func (t *Tree) valid(id NodeID) bool {
	return id > 0 && int(id) < len(t.nodes)
}

// Get returns a copy of the node addressed by id.
func (t *Tree) Get(id NodeID) (Node, error) {
	if !t.valid(id) {
		return Node{}, fmt.Errorf("tree: invalid node id %d", id)
	}
	return t.nodes[id], nil
}

// Put overwrites the node addressed by id (used by the planner to update a
// node's Status/MethodCursor/snapshots in place).
func (t *Tree) Put(n Node) error {
	if !t.valid(n.ID) {
		return fmt.Errorf("tree: invalid node id %d", n.ID)
	}
	t.nodes[n.ID] = n
	return nil
}

// AddChild appends a new node as the last child of parent and returns its
// NodeID. kind and the fields the caller sets on payload (all fields
// except ID/Parent/Children are taken verbatim) become the new node's
// contents.
func (t *Tree) AddChild(parent NodeID, kind Kind, payload Node) (NodeID, error) {
	if !t.valid(parent) {
		return 0, fmt.Errorf("tree: invalid parent id %d", parent)
	}
	id := NodeID(len(t.nodes))
	payload.ID = id
	payload.Parent = parent
	payload.Kind = kind
	payload.Children = nil
	t.nodes = append(t.nodes, payload)
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id, nil
}

// SetStatus updates a single node's Status in place.
func (t *Tree) SetStatus(id NodeID, status Status) error {
	if !t.valid(id) {
		return fmt.Errorf("tree: invalid node id %d", id)
	}
	t.nodes[id].Status = status
	return nil
}

// Children returns the child IDs of id, in left-to-right order.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	if !t.valid(id) {
		return nil, fmt.Errorf("tree: invalid node id %d", id)
	}
	return t.nodes[id].Children, nil
}

// Parent returns the parent of id, or 0 if id is the root.
func (t *Tree) Parent(id NodeID) (NodeID, error) {
	if !t.valid(id) {
		return 0, fmt.Errorf("tree: invalid node id %d", id)
	}
	return t.nodes[id].Parent, nil
}

// PrimitiveActionsDFS yields every KindPrimitive leaf in left-to-right
// depth-first order, per spec.md §3.4's execution-order invariant.
func (t *Tree) PrimitiveActionsDFS() []NodeID {
	var out []NodeID
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := t.nodes[id]
		if n.Kind == KindPrimitive {
			out = append(out, id)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	if len(t.nodes) > 1 {
		walk(1)
	}
	return out
}

// Checkpoint returns a token capturing the tree's current size, for later
// use with Restore. Taking a checkpoint is O(1).
func (t *Tree) Checkpoint() int { return len(t.nodes) }

// Restore truncates the tree back to a previously taken Checkpoint,
// discarding every node appended since (and any dangling child references
// to them), per the Design Notes' "Backtracking prunes by ID-range
// truncation." It is an error to restore to a token larger than the
// current size.
func (t *Tree) Restore(token int) error {
	if token < 1 || token > len(t.nodes) {
		return fmt.Errorf("tree: invalid restore token %d", token)
	}
	t.nodes = t.nodes[:token]
	for i := range t.nodes {
		kept := t.nodes[i].Children[:0:0]
		for _, c := range t.nodes[i].Children {
			if int(c) < token {
				kept = append(kept, c)
			}
		}
		t.nodes[i].Children = kept
	}
	return nil
}

// ReplaceSubtree rewires id's children to newChildren (already-present
// nodes within the same Tree, typically produced by a fresh round of
// AddChild calls), reparenting each of newChildren to id and resetting
// id's status to Expanded. Used by the planner/executor for re-refinement:
// the old subtree is simply no longer referenced by id and is abandoned
// in place (its nodes remain in the arena but are unreachable from the
// root, and will be physically discarded only by a later Restore to an
// earlier checkpoint).
func (t *Tree) ReplaceSubtree(id NodeID, newChildren []NodeID) error {
	if !t.valid(id) {
		return fmt.Errorf("tree: invalid node id %d", id)
	}
	for _, c := range newChildren {
		if !t.valid(c) {
			return fmt.Errorf("tree: invalid replacement child id %d", c)
		}
		t.nodes[c].Parent = id
	}
	t.nodes[id].Children = newChildren
	t.nodes[id].Status = Expanded
	return nil
}

// Len reports the number of live (addressable) nodes, excluding the
// sentinel slot.
func (t *Tree) Len() int { return len(t.nodes) - 1 }
