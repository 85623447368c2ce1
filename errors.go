package airlock

import (
	"errors"
	"fmt"
)

var (
	// ErrNoScope indicates an enqueue was attempted with no active scope on
	// the context.
	ErrNoScope = errors.New("airlock: no active scope")
	// ErrPolicyEnqueue indicates an enqueue was attempted from inside a
	// policy hook, which would recurse.
	ErrPolicyEnqueue = errors.New("airlock: enqueue not allowed inside policy evaluation")
	// ErrScopeState indicates an operation was attempted in a scope state
	// that does not permit it.
	ErrScopeState = errors.New("airlock: invalid scope state")
	// ErrNotCallable indicates the synchronous executor received a task it
	// does not know how to invoke.
	ErrNotCallable = errors.New("airlock: task is not callable")
)

// PolicyViolation reports a deliberate rejection: a policy refused an intent
// at enqueue time. Callers match on it via errors.As.
type PolicyViolation struct {
	Policy Policy
	Intent *Intent
	Reason string
}

func (e *PolicyViolation) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("airlock: policy %s rejected %s: %s", describePolicy(e.Policy), describeIntent(e.Intent), e.Reason)
}

// Violation builds a PolicyViolation for policy implementations to return
// from OnEnqueue.
func Violation(policy Policy, intent *Intent, reason string) *PolicyViolation {
	return &PolicyViolation{Policy: policy, Intent: intent, Reason: reason}
}

func describePolicy(policy Policy) string {
	if policy == nil {
		return "<nil>"
	}
	if described, ok := policy.(interface{ Describe() string }); ok {
		return described.Describe()
	}
	return fmt.Sprintf("%T", policy)
}

func describeIntent(intent *Intent) string {
	if intent == nil {
		return "intent=<nil>"
	}
	return fmt.Sprintf("intent=%q", intent.Name())
}

func wrapScopeState(scope *Scope, op string) error {
	if scope == nil {
		return fmt.Errorf("%w: %s on nil scope", ErrScopeState, op)
	}
	return fmt.Errorf("%w: cannot %s scope %s in state %s", ErrScopeState, op, scope.Label(), scope.State())
}
