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

// Package duration implements ISO 8601 duration parsing (a narrow subset:
// hours, minutes, seconds) and the five duration-kind variants an action
// may declare, per spec.md §4.B.
package duration

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/state"
)

// Kind tags which duration variant a Spec holds.
type Kind int

const (
	// Fixed is a constant number of seconds.
	Fixed Kind = iota
	// Variable has a min/max bound; Evaluate reports the average.
	Variable
	// Conditional selects a duration by the first matching fact triple.
	Conditional
	// ResourceDependent scales a base duration by an efficiency lookup.
	ResourceDependent
	// Calculated defers entirely to a caller-supplied function.
	Calculated
)

type (
	// ConditionalEntry pairs a fact triple with the seconds it selects.
	ConditionalEntry struct {
		Predicate string
		Subject   string
		Value     any
		Seconds   uint64
	}

	// CalculatedFunc computes a duration in seconds from the current state
	// and the task's argument list. It must be pure (no side effects),
	// per spec.md §5's "treated as synchronous pure functions."
	CalculatedFunc func(s state.State, args []any) (uint64, error)

	// Spec is a tagged duration specification. Exactly the fields relevant
	// to Kind are meaningful; construct with the New* helpers rather than
	// building the struct directly.
	Spec struct {
		kind Kind

		fixedSeconds uint64

		minSeconds uint64
		maxSeconds uint64

		conditional []ConditionalEntry

		resourceType   string
		baseSeconds    uint64
		efficiencyMap  map[string]float64
		defaultSkillID string

		calculated CalculatedFunc
	}
)

// NewFixed returns a Fixed duration of the given number of seconds.
func NewFixed(seconds uint64) Spec { return Spec{kind: Fixed, fixedSeconds: seconds} }

// NewVariable returns a Variable duration bounded by [min, max]. If
// max < min the bounds are swapped.
func NewVariable(min, max uint64) Spec {
	if max < min {
		min, max = max, min
	}
	return Spec{kind: Variable, minSeconds: min, maxSeconds: max}
}

// NewConditional returns a Conditional duration; entries are tried in
// order and the first whose triple matches the state selects its seconds.
func NewConditional(entries []ConditionalEntry) Spec {
	return Spec{kind: Conditional, conditional: entries}
}

// NewResourceDependent returns a ResourceDependent duration: seconds =
// base / efficiencyMap[skill], with skill looked up at evaluation time
// via the fact (resourceType, subject) -> skill ID. defaultSkillID is used
// when that fact is absent.
func NewResourceDependent(resourceType string, base uint64, efficiencyMap map[string]float64, defaultSkillID string) Spec {
	return Spec{
		kind:           ResourceDependent,
		resourceType:   resourceType,
		baseSeconds:    base,
		efficiencyMap:  efficiencyMap,
		defaultSkillID: defaultSkillID,
	}
}

// NewCalculated returns a Calculated duration delegating to fn.
func NewCalculated(fn CalculatedFunc) Spec { return Spec{kind: Calculated, calculated: fn} }

// Kind reports the Spec's variant.
func (d Spec) Kind() Kind { return d.kind }

// Bounds reports the (min, max) seconds this Spec could evaluate to,
// without consulting state; for Conditional/ResourceDependent/Calculated
// this is only a best-effort hint. The planner and the stn package do not
// call Bounds: nothing in this module turns a Spec into an STN constraint.
func (d Spec) Bounds() (min, max uint64) {
	switch d.kind {
	case Fixed:
		return d.fixedSeconds, d.fixedSeconds
	case Variable:
		return d.minSeconds, d.maxSeconds
	case Conditional:
		var lo, hi uint64
		first := true
		for _, e := range d.conditional {
			if first || e.Seconds < lo {
				lo = e.Seconds
			}
			if first || e.Seconds > hi {
				hi = e.Seconds
			}
			first = false
		}
		return lo, hi
	case ResourceDependent:
		best := 1.0
		for _, v := range d.efficiencyMap {
			if v > best {
				best = v
			}
		}
		worst := 1.0
		first := true
		for _, v := range d.efficiencyMap {
			if first || v < worst {
				worst = v
				first = false
			}
		}
		if worst <= 0 {
			worst = 1
		}
		return uint64(float64(d.baseSeconds) / best), uint64(float64(d.baseSeconds) / worst)
	default:
		return 0, 0
	}
}

// Evaluate resolves the Spec to a concrete number of seconds for the given
// subject (the entity the resource-dependent lookup applies to, ignored by
// other kinds) and argument list (passed to Calculated functions).
func (d Spec) Evaluate(s state.State, subject string, args []any) (uint64, error) {
	switch d.kind {
	case Fixed:
		return d.fixedSeconds, nil
	case Variable:
		return (d.minSeconds + d.maxSeconds) / 2, nil
	case Conditional:
		for _, e := range d.conditional {
			if s.Matches(e.Predicate, e.Subject, e.Value) {
				return e.Seconds, nil
			}
		}
		return 0, fmt.Errorf("duration: no conditional entry matched state")
	case ResourceDependent:
		skill := d.defaultSkillID
		if v, ok := s.Get(d.resourceType, subject); ok {
			if sv, ok := v.(string); ok {
				skill = sv
			}
		}
		eff, ok := d.efficiencyMap[skill]
		if !ok || eff <= 0 {
			return 0, fmt.Errorf("duration: no efficiency for skill %q", skill)
		}
		return uint64(float64(d.baseSeconds) / eff), nil
	case Calculated:
		if d.calculated == nil {
			return 0, fmt.Errorf("duration: calculated spec has no function")
		}
		return d.calculated(s, args)
	default:
		return 0, fmt.Errorf("duration: unknown kind %d", d.kind)
	}
}

var iso8601Pattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISO8601 parses a subset of ISO 8601 durations: PT<n>H<n>M<n>S, with
// any subset of the three components present (at least one required), plus
// plain non-negative integer seconds ("45" == "PT45S"). Anything else is
// rejected with a malformed_input-class error; no partial/best-effort
// result is ever returned for an invalid string.
func ParseISO8601(src string) (uint64, error) {
	if src == "" {
		return 0, fmt.Errorf("duration: empty ISO 8601 string")
	}
	if n, err := strconv.ParseUint(src, 10, 64); err == nil {
		return n, nil
	}
	m := iso8601Pattern.FindStringSubmatch(src)
	if m == nil {
		return 0, fmt.Errorf("duration: malformed ISO 8601 duration %q", src)
	}
	if m[1] == "" && m[2] == "" && m[3] == "" {
		return 0, fmt.Errorf("duration: ISO 8601 duration %q has no components", src)
	}
	var hours, minutes, seconds uint64
	var err error
	if m[1] != "" {
		if hours, err = strconv.ParseUint(m[1], 10, 64); err != nil {
			return 0, fmt.Errorf("duration: invalid hours in %q: %w", src, err)
		}
	}
	if m[2] != "" {
		if minutes, err = strconv.ParseUint(m[2], 10, 64); err != nil {
			return 0, fmt.Errorf("duration: invalid minutes in %q: %w", src, err)
		}
	}
	if m[3] != "" {
		if seconds, err = strconv.ParseUint(m[3], 10, 64); err != nil {
			return 0, fmt.Errorf("duration: invalid seconds in %q: %w", src, err)
		}
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// MustParseISO8601FixedOrZero parses src and returns a Fixed Spec; on a
// malformed string it falls back to Fixed(0), matching spec.md §4.B's
// "reject malformed; default to Fixed(0) with warning for robustness where
// the source has done so." The second return is false when the fallback
// was used, so callers that want the warning can surface one themselves
// (this package does not log, per spec.md §1's "logging ... out of
// scope").
func MustParseISO8601FixedOrZero(src string) (Spec, bool) {
	secs, err := ParseISO8601(src)
	if err != nil {
		return NewFixed(0), false
	}
	return NewFixed(secs), true
}

// Pattern names an execution-grouping constraint applied to a set of
// actions, per spec.md §4.B.
type Pattern int

const (
	// Sequential requires the grouped actions to execute one after another.
	Sequential Pattern = iota
	// Parallel allows the grouped actions to overlap freely.
	Parallel
	// Overlapping requires the grouped actions to share some common
	// interval but need not be fully concurrent.
	Overlapping
)

// TemporalConstraint attaches a deadline/not-before/fixed-interval bound to
// an action's scheduling. It is carried on domain.ActionSpec as data; the
// planner and the stn package do not read it.
type TemporalConstraint struct {
	// Deadline, if non-zero, is the latest permissible end time (seconds
	// since an arbitrary planning epoch).
	Deadline int64
	// NotBefore, if non-zero, is the earliest permissible start time.
	NotBefore int64
	// FixedInterval, if true, means Deadline and NotBefore must coincide
	// with a single allowed [start, end] pair rather than independent
	// bounds.
	FixedInterval bool
}
