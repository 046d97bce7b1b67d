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

// Package state implements the relational fact store: a pure-functional
// mapping from (predicate, subject) keys to opaque values, with the
// quantifier helpers the planner's goal/multigoal verification needs.
package state

import "fmt"

type (
	// Key identifies a single fact slot.
	Key struct {
		Predicate string
		Subject   string
	}

	// State is an immutable snapshot of facts. The zero value is an empty
	// state. All mutators return a new State, leaving the receiver intact.
	State struct {
		facts map[Key]any
	}

	// Filter restricts the subjects considered by Exists/ForAll to those for
	// which it returns true. A nil Filter imposes no restriction.
	Filter func(subject string) bool

	// Condition is one of the evaluate_condition shapes from spec.md §4.A:
	// either a plain triple match, or an existential/universal quantifier
	// over subjects satisfying an optional Filter.
	Condition struct {
		Kind      ConditionKind
		Predicate string
		Value     any
		Filter    Filter
		// Subject is only used when Kind == Triple.
		Subject string
	}

	// ConditionKind tags the shape of a Condition.
	ConditionKind int
)

const (
	// Triple checks a single (predicate, subject, value) fact.
	Triple ConditionKind = iota
	// Exists checks that at least one filtered subject holds the value.
	Exists
	// ForAll checks that every filtered subject holds the value (vacuously
	// true when no subject passes the filter).
	ForAll
)

// New returns an empty State.
func New() State { return State{} }

// FromTriples builds a State from an initial set of (predicate, subject,
// value) triples. Later triples for the same key overwrite earlier ones.
func FromTriples(triples [][3]any) (State, error) {
	s := New()
	for _, t := range triples {
		p, ok := t[0].(string)
		if !ok {
			return State{}, fmt.Errorf("state: predicate must be a string, got %T", t[0])
		}
		sub, ok := t[1].(string)
		if !ok {
			return State{}, fmt.Errorf("state: subject must be a string, got %T", t[1])
		}
		s = s.Set(p, sub, t[2])
	}
	return s, nil
}

// Set returns a new State with (predicate, subject) mapped to value,
// overwriting any prior value for that key.
func (s State) Set(predicate, subject string, value any) State {
	next := make(map[Key]any, len(s.facts)+1)
	for k, v := range s.facts {
		next[k] = v
	}
	next[Key{Predicate: predicate, Subject: subject}] = value
	return State{facts: next}
}

// Get returns the value stored for (predicate, subject), and whether it was
// present at all. Absence and a stored nil are distinguishable via ok.
func (s State) Get(predicate, subject string) (value any, ok bool) {
	v, ok := s.facts[Key{Predicate: predicate, Subject: subject}]
	return v, ok
}

// Remove returns a new State with (predicate, subject) unset.
func (s State) Remove(predicate, subject string) State {
	if _, ok := s.facts[Key{Predicate: predicate, Subject: subject}]; !ok {
		return s
	}
	next := make(map[Key]any, len(s.facts))
	for k, v := range s.facts {
		if k.Predicate == predicate && k.Subject == subject {
			continue
		}
		next[k] = v
	}
	return State{facts: next}
}

// Matches reports whether (predicate, subject) is present and equal to
// value, per Go's == for comparable underlying types. Non-comparable
// stored values (e.g. slices) never match and never panic.
func (s State) Matches(predicate, subject string, value any) (matched bool) {
	v, ok := s.facts[Key{Predicate: predicate, Subject: subject}]
	if !ok {
		return false
	}
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return v == value
}

// SubjectsWith enumerates every subject s for which Get(predicate, s) ==
// value. Order is unspecified; callers that need determinism should sort.
func (s State) SubjectsWith(predicate string, value any) []string {
	var out []string
	for k, v := range s.facts {
		if k.Predicate != predicate {
			continue
		}
		if func() (eq bool) {
			defer func() { recover() }()
			return v == value
		}() {
			out = append(out, k.Subject)
		}
	}
	return out
}

// SubjectsWithPredicate enumerates every subject that has any value stored
// for predicate.
func (s State) SubjectsWithPredicate(predicate string) []string {
	var out []string
	for k := range s.facts {
		if k.Predicate == predicate {
			out = append(out, k.Subject)
		}
	}
	return out
}

// Exists is the existential quantifier: true iff some subject, optionally
// restricted by filter, holds value for predicate.
func (s State) Exists(predicate string, value any, filter Filter) bool {
	for _, sub := range s.SubjectsWith(predicate, value) {
		if filter == nil || filter(sub) {
			return true
		}
	}
	return false
}

// ForAll is the universal quantifier: true iff every subject passing filter
// holds value for predicate. Vacuously true when no subject passes filter.
// The subjects considered are those with at least one fact stored (under
// any predicate); a nil filter considers all of them.
func (s State) ForAll(predicate string, value any, filter Filter) bool {
	for _, sub := range s.subjectsMatchingFilter(filter) {
		if !s.Matches(predicate, sub, value) {
			return false
		}
	}
	return true
}

func (s State) subjectsMatchingFilter(filter Filter) []string {
	seen := make(map[string]struct{})
	var out []string
	for k := range s.facts {
		if _, ok := seen[k.Subject]; ok {
			continue
		}
		if filter != nil && !filter(k.Subject) {
			continue
		}
		seen[k.Subject] = struct{}{}
		out = append(out, k.Subject)
	}
	return out
}

// EvaluateCondition dispatches on cond.Kind. An unrecognised Kind returns
// false rather than panicking, per spec.md §4.A ("never crashes").
func (s State) EvaluateCondition(cond Condition) bool {
	switch cond.Kind {
	case Triple:
		return s.Matches(cond.Predicate, cond.Subject, cond.Value)
	case Exists:
		return s.Exists(cond.Predicate, cond.Value, cond.Filter)
	case ForAll:
		return s.ForAll(cond.Predicate, cond.Value, cond.Filter)
	default:
		return false
	}
}

// Len reports the number of facts currently stored.
func (s State) Len() int { return len(s.facts) }
