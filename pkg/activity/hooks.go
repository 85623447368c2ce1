package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Lifecycle verbs emitted by scopes.
const (
	VerbIntentEnqueued   = "intent.enqueued"
	VerbIntentCaptured   = "intent.captured"
	VerbIntentDropped    = "intent.dropped"
	VerbIntentDispatched = "intent.dispatched"
	VerbScopeFlushed     = "scope.flushed"
	VerbScopeDiscarded   = "scope.discarded"
)

// Event describes one occurrence in an intent's or scope's life. IDs are
// stringly-typed to avoid coupling call sites to specific UUID types.
type Event struct {
	Verb         string
	ScopeID      string
	ScopeLabel   string
	IntentID     string
	Task         string
	Origin       string
	CapturedFrom string
	Gate         string
	Count        int
	Metadata     map[string]any
	OccurredAt   time.Time
}

// ActivityHook receives normalized lifecycle events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when required fields are
// missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ScopeID == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a timestamp
// is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ScopeID = strings.TrimSpace(event.ScopeID)
	normalized.ScopeLabel = strings.TrimSpace(event.ScopeLabel)
	normalized.IntentID = strings.TrimSpace(event.IntentID)
	normalized.Task = strings.TrimSpace(event.Task)
	normalized.Origin = strings.TrimSpace(event.Origin)
	normalized.CapturedFrom = strings.TrimSpace(event.CapturedFrom)
	normalized.Gate = strings.TrimSpace(event.Gate)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
