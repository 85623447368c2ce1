package airlock

import (
	"context"
	"fmt"
)

// Executor dispatches one approved intent. Implementations decide what
// dispatch means: run it inline, hand it to a task queue, push it onto a
// worker pool. A returned error aborts the rest of the flush pass
// immediately; the core never retries and never rolls back intents already
// dispatched.
type Executor func(ctx context.Context, intent *Intent) error

// TaskFunc is the fully general callable shape SyncExecutor understands: it
// receives the intent's positional and keyword payloads.
type TaskFunc func(ctx context.Context, args []any, kwargs map[string]any) error

// Runner is the task-object shape: anything carrying a Run method executes
// itself against the intent.
type Runner interface {
	Run(ctx context.Context, intent *Intent) error
}

// SyncExecutor runs the task inline, in flush order, on the flushing
// goroutine. It is the default executor. String-named tasks resolve through
// the process-wide registry; dispatch options are ignored, they only mean
// something to queue-backed executors. Tasks that are none of the supported
// shapes fail with ErrNotCallable.
func SyncExecutor(ctx context.Context, intent *Intent) error {
	return runTask(ctx, defaultRegistry.resolve(intent.Task()), intent)
}

func runTask(ctx context.Context, task any, intent *Intent) error {
	switch task := task.(type) {
	case TaskFunc:
		return task(ctx, intent.Args(), intent.Kwargs())
	case func(context.Context, []any, map[string]any) error:
		return task(ctx, intent.Args(), intent.Kwargs())
	case func(context.Context) error:
		return task(ctx)
	case func() error:
		return task()
	case func():
		task()
		return nil
	}
	if runner, ok := task.(Runner); ok {
		return runner.Run(ctx, intent)
	}
	return fmt.Errorf("%w: %T", ErrNotCallable, task)
}

func callable(task any) bool {
	switch task.(type) {
	case TaskFunc,
		func(context.Context, []any, map[string]any) error,
		func(context.Context) error,
		func() error,
		func():
		return true
	}
	_, ok := task.(Runner)
	return ok
}
