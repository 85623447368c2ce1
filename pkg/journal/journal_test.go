package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-airlock/pkg/activity"
)

func TestMemoryStoreAppendAndFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	entries := []Entry{
		{Verb: activity.VerbIntentEnqueued, ScopeID: "a", Task: "one"},
		{Verb: activity.VerbIntentEnqueued, ScopeID: "b", Task: "two"},
		{Verb: activity.VerbScopeFlushed, ScopeID: "a", Count: 1},
	}
	for _, entry := range entries {
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := store.Entries(ctx, "")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}

	scoped, err := store.Entries(ctx, "a")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 entries for scope a, got %d", len(scoped))
	}
	if scoped[0].Task != "one" || scoped[1].Verb != activity.VerbScopeFlushed {
		t.Fatalf("unexpected order: %+v", scoped)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()

	if err := store.Append(context.Background(), Entry{Verb: "x", ScopeID: "s"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := store.Entries(context.Background(), ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestHookRecordsEvents(t *testing.T) {
	store := NewMemoryStore()
	hooks := activity.Hooks{Hook(store)}

	event := activity.BuildIntentDroppedEvent(activity.IntentEventInput{
		ScopeID:    "scope-1",
		ScopeLabel: "checkout",
		IntentID:   "intent-1",
		Task:       "billing.charge",
		Gate:       "scope",
	})
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	recorded, err := store.Entries(context.Background(), "scope-1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(recorded))
	}
	entry := recorded[0]
	if entry.Verb != activity.VerbIntentDropped || entry.Gate != "scope" || entry.Task != "billing.charge" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.RecordedAt.IsZero() {
		t.Fatalf("expected recorded_at to be stamped")
	}
}

func TestHookSurfacesStoreErrors(t *testing.T) {
	store := NewMemoryStore()
	store.Close()
	hooks := activity.Hooks{Hook(store)}

	err := hooks.Notify(context.Background(), activity.Event{Verb: activity.VerbScopeFlushed, ScopeID: "s"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
