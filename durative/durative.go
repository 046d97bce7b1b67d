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

// Package durative implements the durative-action converter: translating
// a (at_start, over_all, at_end) conditioned action into a simple action
// plus a method decomposition, per spec.md §4.C. Grounded on the teacher's
// action/ppa split (pabt.go's action/ppa structs, util.go's
// generateAction) which already separates "the action's own node" from
// "the conditions wrapping it" — the same shape this conversion needs.
package durative

import (
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/domain"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/duration"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/todo"
)

type (
	// ConditionSpec is a (predicate, subject, value) triple required to
	// hold at some point in a durative action's temporal extent.
	ConditionSpec struct {
		Predicate string
		Subject   string
		Value     any
	}

	// EffectSpec is a (predicate, subject, value) triple an action
	// establishes.
	EffectSpec struct {
		Predicate string
		Subject   string
		Value     any
	}

	// Action is the input durative-action description: duration plus the
	// three condition-effect bundles, per spec.md §4.C.
	Action struct {
		Name                string
		Duration            duration.Spec
		EntityRequirements  []domain.EntityRequirement
		AtStart             []ConditionSpec
		OverAll             []ConditionSpec
		AtEnd               []ConditionSpec
		EffectsAtStart      []EffectSpec
		EffectsAtEnd        []EffectSpec
		TemporalConstraints []duration.TemporalConstraint
	}

	// Monitor holds the over_all conditions that must hold across an
	// action's entire temporal extent. Convert wires its Check in as the
	// simple action's Precondition, so it is checked when that one
	// primitive is applied (at plan time and again when the lazy executor
	// ticks it); it is not checked at the other primitives of the method.
	Monitor struct {
		Conditions []ConditionSpec
	}
)

// Check reports whether every over_all condition currently holds in s.
// An empty Monitor is vacuously satisfied.
func (m Monitor) Check(s state.State) bool {
	for _, c := range m.Conditions {
		if !s.Matches(c.Predicate, c.Subject, c.Value) {
			return false
		}
	}
	return true
}

// Convert translates a durative Action into:
//
//   - spec: a domain.ActionSpec carrying duration and entity requirements
//     from the original (per spec.md §4.C, "It carries no conditions or
//     effects" of its own — its Precondition, rather than being the
//     trivial always-true function, is the over_all monitor's Check: the
//     at_start conditions are reified as separate Goal todos ahead of it
//     in method, but over_all has nowhere else to live, and checking it
//     as this primitive's precondition is equivalent to checking it at
//     the single tick boundary our planner gives a primitive invocation.
//     Its Effect, unavoidably, applies the union of EffectsAtStart and
//     EffectsAtEnd, since the method's goal todos only verify state,
//     never mutate it, and something must still perform the actual
//     transition).
//   - method: [at_start conditions as Goal todos, the simple action's
//     Task invocation, at_end conditions as Goal todos], per spec.md
//     §4.C.
//   - monitor: the over_all conditions, returned separately so a caller
//     wiring a richer domain (one where "during" has real duration, e.g.
//     segmented by the STN) can re-check it more finely than the single
//     precondition check Convert itself wires up.
//
// Convert itself never mutates state; it is a pure description-to-
// description translation.
func Convert(a Action) (spec domain.ActionSpec, method []todo.Item, monitor Monitor, err error) {
	if a.Name == "" {
		return domain.ActionSpec{}, nil, Monitor{}, fmt.Errorf("durative: action has no name")
	}

	// A key may appear once in each bundle: an at_end effect overrides an
	// at_start effect on the same key, but two effects on one key within a
	// single bundle are ambiguous and rejected.
	for _, bundle := range [][]EffectSpec{a.EffectsAtStart, a.EffectsAtEnd} {
		seen := make(map[[2]string]bool, len(bundle))
		for _, e := range bundle {
			key := [2]string{e.Predicate, e.Subject}
			if seen[key] {
				return domain.ActionSpec{}, nil, Monitor{}, fmt.Errorf("durative: action %q has duplicate effect on (%s, %s)", a.Name, e.Predicate, e.Subject)
			}
			seen[key] = true
		}
	}
	effects := append(append([]EffectSpec{}, a.EffectsAtStart...), a.EffectsAtEnd...)

	monitor = Monitor{Conditions: a.OverAll}

	spec = domain.ActionSpec{
		Duration:            a.Duration,
		EntityRequirements:  a.EntityRequirements,
		TemporalConstraints: a.TemporalConstraints,
		Precondition:        func(s state.State, _ []any) bool { return monitor.Check(s) },
		Effect: func(s state.State, args []any) (state.State, error) {
			for _, e := range effects {
				s = s.Set(e.Predicate, e.Subject, e.Value)
			}
			return s, nil
		},
	}

	for _, c := range a.AtStart {
		method = append(method, todo.GoalItem(todo.Goal{Predicate: c.Predicate, Subject: c.Subject, Value: c.Value}))
	}
	method = append(method, todo.TaskItem(todo.Task{Name: a.Name}))
	for _, c := range a.AtEnd {
		method = append(method, todo.GoalItem(todo.Goal{Predicate: c.Predicate, Subject: c.Subject, Value: c.Value}))
	}

	return spec, method, monitor, nil
}
