package journal

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-airlock/pkg/activity"
)

var ErrClosed = errors.New("journal: store closed")

// Entry is one recorded lifecycle decision: an intent enqueued, captured,
// dropped, or dispatched, or a scope reaching its terminal state.
type Entry struct {
	Verb         string         `json:"verb"`
	ScopeID      string         `json:"scope_id"`
	ScopeLabel   string         `json:"scope_label,omitempty"`
	IntentID     string         `json:"intent_id,omitempty"`
	Task         string         `json:"task,omitempty"`
	Origin       string         `json:"origin,omitempty"`
	CapturedFrom string         `json:"captured_from,omitempty"`
	Gate         string         `json:"gate,omitempty"`
	Count        int            `json:"count,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	RecordedAt   time.Time      `json:"recorded_at"`
}

// Store appends and reads journal entries. Implementations must be safe for
// concurrent use; scopes on different goroutines share one journal.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Entries(ctx context.Context, scopeID string) ([]Entry, error)
}

// Hook adapts store into an activity hook so scopes journal every lifecycle
// event they emit.
func Hook(store Store) activity.HookFunc {
	return func(ctx context.Context, event activity.Event) error {
		if store == nil {
			return nil
		}
		return store.Append(ctx, FromEvent(event))
	}
}

// FromEvent maps an activity event onto a journal entry.
func FromEvent(event activity.Event) Entry {
	return Entry{
		Verb:         event.Verb,
		ScopeID:      event.ScopeID,
		ScopeLabel:   event.ScopeLabel,
		IntentID:     event.IntentID,
		Task:         event.Task,
		Origin:       event.Origin,
		CapturedFrom: event.CapturedFrom,
		Gate:         event.Gate,
		Count:        event.Count,
		Metadata:     event.Metadata,
		RecordedAt:   event.OccurredAt,
	}
}
