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
	"errors"
	"fmt"

	"github.com/V-Sekai-fire/aria-hybrid-planner-sub007/tree"
)

// Kind tags the class of failure an Error represents, per spec.md §7.
type Kind string

const (
	// KindPreconditionUnmet means an action's precondition failed to hold.
	// Local; backtracks.
	KindPreconditionUnmet Kind = "precondition_unmet"
	// KindNoMethodApplicable means every method for a task/goal/multigoal
	// failed. Local; backtracks.
	KindNoMethodApplicable Kind = "no_method_applicable"
	// KindNoPlan means the root exhausted every alternative. Surfaced.
	KindNoPlan Kind = "no_plan"
	// KindDepthExceeded means the deepening limit was hit. Surfaced. (A
	// node that hits the method-tries limit fails recoverably instead.)
	KindDepthExceeded Kind = "depth_exceeded"
	// KindCancelled means the caller's context was cancelled. Surfaced.
	KindCancelled Kind = "cancelled"
	// KindInconsistentSTN means temporal constraints conflict. Surfaced.
	KindInconsistentSTN Kind = "inconsistent_stn"
	// KindExecutionFailure means a primitive action failed at runtime,
	// during lazy execution. Triggers re-refinement; surfaced only if
	// irrecoverable.
	KindExecutionFailure Kind = "execution_failure"
	// KindMalformedInput means a duration/goal/domain shape was invalid.
	// Surfaced.
	KindMalformedInput Kind = "malformed_input"
)

// Error carries a Kind tag and free-text detail, per spec.md §6.6 ("no
// numeric error codes"). It also has NodeID and Method fields, but the
// errors this package returns do not fill them: NodeID is always 0 and
// Method is always -1.
type Error struct {
	Kind   Kind
	Detail string
	NodeID tree.NodeID
	Method int
}

func (e *Error) Error() string {
	if e.NodeID != 0 {
		return fmt.Sprintf("planner: %s: %s (node %d)", e.Kind, e.Detail, e.NodeID)
	}
	return fmt.Sprintf("planner: %s: %s", e.Kind, e.Detail)
}

// Is matches another error by Kind, so callers can do errors.Is(err,
// &planner.Error{Kind: planner.KindNoPlan}).
func (e *Error) Is(target error) bool {
	var te *Error
	if !errors.As(target, &te) {
		return false
	}
	return te.Kind == e.Kind
}

func newErr(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Method: -1}
}

// recoverable reports whether a failure of this Kind should be caught and
// retried by the enclosing method loop, rather than surfaced to the
// caller, per spec.md §7's propagation policy.
func recoverable(k Kind) bool {
	switch k {
	case KindPreconditionUnmet, KindNoMethodApplicable:
		return true
	default:
		return false
	}
}

func kindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	// A method function returned a plain error rather than a *Error; treat
	// it the same as an explicit no_method_applicable, per the Design
	// Notes' "implementer should use a Result type uniformly" — we still
	// accept bare errors from caller-supplied method functions without
	// panicking.
	return KindNoMethodApplicable
}
