package airlock

import (
	"context"
	"errors"
	"fmt"
)

// Enqueue records the intent to run task without running it. The intent goes
// into the innermost scope on ctx and executes, if policies agree, when the
// owning scope flushes. Options attach the call payload, an origin
// annotation, and executor hints.
//
// Enqueue fails with ErrNoScope when ctx carries no scope, with
// ErrPolicyEnqueue when called from inside policy evaluation, and with
// whatever error a policy's OnEnqueue returns, typically a *PolicyViolation.
func Enqueue(ctx context.Context, task any, opts ...IntentOption) error {
	if inPolicy(ctx) {
		return fmt.Errorf("%w: %s", ErrPolicyEnqueue, taskName(task))
	}
	scope, ok := FromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: enqueue %s", ErrNoScope, taskName(task))
	}
	return scope.add(ctx, newIntent(ctx, task, opts...))
}

// Run executes fn inside a fresh scope: enter, run, exit, then exactly one
// terminal action. The scope flushes when ShouldFlush approves fn's error
// (by default only nil) and discards otherwise. If fn panics the scope
// discards and the panic continues. Flush and discard errors join fn's
// error in the return value.
func Run(ctx context.Context, fn func(context.Context) error, opts ...ScopeOption) error {
	scope := NewScope(opts...)
	inner, err := scope.Enter(ctx)
	if err != nil {
		return err
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		if scope.IsActive() {
			_ = scope.Exit()
		}
		if !scope.State().Terminal() {
			_, _ = scope.Discard()
		}
	}()

	fnErr := fn(inner)
	completed = true

	if err := scope.Exit(); err != nil {
		return errors.Join(fnErr, err)
	}
	if scope.ShouldFlush(fnErr) {
		if _, err := scope.Flush(ctx); err != nil {
			return errors.Join(fnErr, err)
		}
		return fnErr
	}
	if _, err := scope.Discard(); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

// Scoped wraps fn so every invocation runs inside its own scope, built from
// opts. The functional sibling of Run.
func Scoped(fn func(context.Context) error, opts ...ScopeOption) func(context.Context) error {
	return func(ctx context.Context) error {
		return Run(ctx, fn, opts...)
	}
}
