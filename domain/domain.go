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

// Package domain implements the registry of actions, task methods, unigoal
// methods, multigoal methods and multitodo methods that the planner
// consults during refinement, per spec.md §3.3/§4.D. A Domain is built with
// an explicit, functional-option-style builder and is read-only thereafter
// (spec.md §5: "the domain is read-only after construction").
package domain

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/duration"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

type (
	// PreconditionFunc reports whether an action's precondition holds in s
	// for the given argument list.
	PreconditionFunc func(s state.State, args []any) bool

	// EffectFunc applies an action's effect to s, returning the new state.
	// It must be pure: the planner relies on state.State's copy-on-write
	// semantics to backtrack simply by discarding the result.
	EffectFunc func(s state.State, args []any) (state.State, error)

	// TaskMethodFunc expands a task invocation into a list of sub-todos, or
	// returns an error to signal that this method does not apply (the
	// planner tries the next method in the registry).
	TaskMethodFunc func(s state.State, args []any) ([]todo.Item, error)

	// UnigoalMethodFunc expands a single-predicate goal into sub-todos.
	UnigoalMethodFunc func(s state.State, g todo.Goal) ([]todo.Item, error)

	// MultigoalMethodResult is the outcome of a MultigoalMethodFunc: either
	// a list of sub-todos to pursue, or a reduced multigoal to keep
	// iterating on (spec.md §3.3: "method may return either a todo list or
	// a reduced multigoal"). Exactly one of Todos/Remainder is meaningful,
	// selected by Reduced.
	MultigoalMethodResult struct {
		Todos     []todo.Item
		Remainder todo.Multigoal
		Reduced   bool
	}

	// MultigoalMethodFunc expands or reduces a multigoal.
	MultigoalMethodFunc func(s state.State, mg todo.Multigoal) (MultigoalMethodResult, error)

	// MultitodoMethodFunc rewrites a list of todos before the planner
	// processes them, e.g. to reorder or merge adjacent goals.
	MultitodoMethodFunc func(s state.State, todos []todo.Item) ([]todo.Item, error)

	// EntityRequirement names a resource/entity kind an action needs held
	// for its duration (e.g. "hand", "taxi"); purely descriptive metadata
	// consulted by callers building richer domains, not by the core loop.
	EntityRequirement struct {
		Kind string
		// Count is how many distinct entities of Kind are required.
		Count int
	}

	// ActionSpec describes a primitive action registered in a Domain.
	ActionSpec struct {
		Arity               int
		Duration            duration.Spec
		EntityRequirements  []EntityRequirement
		Precondition        PreconditionFunc
		Effect              EffectFunc
		TemporalConstraints []duration.TemporalConstraint
	}

	// Domain is the read-only registry the planner consults. The zero
	// value is not valid; construct with New.
	Domain struct {
		actions         map[string]ActionSpec
		taskMethods     map[string][]TaskMethodFunc
		unigoalMethods  map[string][]UnigoalMethodFunc
		multigoalMethod []MultigoalMethodFunc
		multitodoMethod []MultitodoMethodFunc
		metadata        map[string]any
	}
)

// New returns an empty Domain ready for Add* calls.
func New() *Domain {
	return &Domain{
		actions:        make(map[string]ActionSpec),
		taskMethods:    make(map[string][]TaskMethodFunc),
		unigoalMethods: make(map[string][]UnigoalMethodFunc),
		metadata:       make(map[string]any),
	}
}

// AddAction registers a primitive action under name. Re-registering the
// same name overwrites the previous spec (there is only ever one spec per
// action name, unlike methods which accumulate in order).
func (d *Domain) AddAction(name string, spec ActionSpec) *Domain {
	d.actions[name] = spec
	return d
}

// AddTaskMethod appends fn to the ordered list of methods tried for task
// name. Declaration order is preference order (spec.md §3.3).
func (d *Domain) AddTaskMethod(name string, fn TaskMethodFunc) *Domain {
	d.taskMethods[name] = append(d.taskMethods[name], fn)
	return d
}

// AddUnigoalMethod appends fn to the ordered list of methods tried for
// goals over predicate.
func (d *Domain) AddUnigoalMethod(predicate string, fn UnigoalMethodFunc) *Domain {
	d.unigoalMethods[predicate] = append(d.unigoalMethods[predicate], fn)
	return d
}

// AddMultigoalMethod appends fn to the ordered list of multigoal methods,
// tried against any multigoal regardless of which predicates it spans.
func (d *Domain) AddMultigoalMethod(fn MultigoalMethodFunc) *Domain {
	d.multigoalMethod = append(d.multigoalMethod, fn)
	return d
}

// AddMultitodoMethod appends fn to the ordered list of multitodo methods.
func (d *Domain) AddMultitodoMethod(fn MultitodoMethodFunc) *Domain {
	d.multitodoMethod = append(d.multitodoMethod, fn)
	return d
}

// SetMetadata stores a free-form annotation (name, version, description,
// ...) on the domain. spec.md §3.3 names a metadata slot without
// prescribing its fields.
func (d *Domain) SetMetadata(key string, value any) *Domain {
	d.metadata[key] = value
	return d
}

// Metadata returns a previously stored metadata value.
func (d *Domain) Metadata(key string) (any, bool) {
	v, ok := d.metadata[key]
	return v, ok
}

// Action looks up a registered action by name.
func (d *Domain) Action(name string) (ActionSpec, bool) {
	spec, ok := d.actions[name]
	return spec, ok
}

// TaskMethods returns the ordered methods registered for task name.
func (d *Domain) TaskMethods(name string) []TaskMethodFunc {
	return d.taskMethods[name]
}

// UnigoalMethods returns the ordered methods registered for predicate.
func (d *Domain) UnigoalMethods(predicate string) []UnigoalMethodFunc {
	return d.unigoalMethods[predicate]
}

// MultigoalMethods returns the ordered multigoal methods.
func (d *Domain) MultigoalMethods() []MultigoalMethodFunc {
	return d.multigoalMethod
}

// MultitodoMethods returns the ordered multitodo methods.
func (d *Domain) MultitodoMethods() []MultitodoMethodFunc {
	return d.multitodoMethod
}

// Validate reports a malformed_input-class error if name collides between
// action and task-method registries in a way that would make dispatch
// ambiguous, or if an ActionSpec is missing a precondition/effect.
func (d *Domain) Validate() error {
	for name, spec := range d.actions {
		if spec.Precondition == nil {
			return fmt.Errorf("domain: action %q has no precondition function", name)
		}
		if spec.Effect == nil {
			return fmt.Errorf("domain: action %q has no effect function", name)
		}
		if _, ok := d.taskMethods[name]; ok {
			return fmt.Errorf("domain: %q is registered both as an action and as a task method", name)
		}
	}
	return nil
}
