package metrics

import (
	"context"
	"time"

	airlock "github.com/goliatone/go-airlock"
	"github.com/goliatone/go-airlock/pkg/activity"
)

// Hook returns an activity hook that counts every lifecycle event. Attach it
// with airlock.WithActivityHooks.
func Hook() activity.HookFunc {
	return func(_ context.Context, event activity.Event) error {
		switch event.Verb {
		case activity.VerbIntentEnqueued:
			RecordIntentEnqueued(event.Task)
		case activity.VerbIntentCaptured:
			RecordIntentCaptured(event.Task)
		case activity.VerbIntentDropped:
			RecordIntentDropped(event.Task, event.Gate)
		case activity.VerbIntentDispatched:
			RecordIntentDispatched(event.Task)
		case activity.VerbScopeFlushed:
			RecordScopeOutcome("flushed")
		case activity.VerbScopeDiscarded:
			RecordScopeOutcome("discarded")
		}
		return nil
	}
}

// InstrumentExecutor wraps next so every dispatch observes duration and
// outcome under the task's name.
func InstrumentExecutor(next airlock.Executor) airlock.Executor {
	return func(ctx context.Context, intent *airlock.Intent) error {
		start := time.Now()
		err := next(ctx, intent)
		RecordDispatch(intent.Name(), time.Since(start), err == nil)
		return err
	}
}
