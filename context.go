package airlock

import "context"

type contextKey int

const (
	scopeKey contextKey = iota
	localPoliciesKey
	inPolicyKey
)

// FromContext returns the scope carried by ctx, if any. It is the read side
// of Scope.Enter.
func FromContext(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(scopeKey).(*Scope)
	return scope, ok && scope != nil
}

// MustFromContext returns the scope carried by ctx or panics. Intended for
// handlers that run strictly inside middleware-managed scopes.
func MustFromContext(ctx context.Context) *Scope {
	scope, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoScope)
	}
	return scope
}

func withScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// WithLocalPolicy derives a context whose enqueues are additionally gated by
// policy. Local policies stack: the innermost is consulted first, and every
// intent enqueued under the derived context captures the full stack for
// re-evaluation at flush time, wherever the intent ends up. The region ends
// when the derived context goes out of use.
func WithLocalPolicy(ctx context.Context, policy Policy) context.Context {
	if policy == nil {
		return ctx
	}
	current := localPolicies(ctx)
	next := make([]Policy, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, policy)
	return context.WithValue(ctx, localPoliciesKey, next)
}

// localPolicies returns the local policy stack on ctx, outermost first. The
// returned slice is shared; callers must not mutate it.
func localPolicies(ctx context.Context) []Policy {
	if ctx == nil {
		return nil
	}
	policies, _ := ctx.Value(localPoliciesKey).([]Policy)
	return policies
}

// markInPolicy flags ctx so Enqueue can detect reentrant calls made from
// inside policy hooks.
func markInPolicy(ctx context.Context) context.Context {
	return context.WithValue(ctx, inPolicyKey, true)
}

func inPolicy(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	flagged, _ := ctx.Value(inPolicyKey).(bool)
	return flagged
}
