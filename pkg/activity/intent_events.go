package activity

import "time"

// IntentEventInput describes the common fields for intent lifecycle events.
type IntentEventInput struct {
	ScopeID      string
	ScopeLabel   string
	IntentID     string
	Task         string
	Origin       string
	CapturedFrom string
	Gate         string
	Metadata     map[string]any
	OccurredAt   time.Time
}

// ScopeEventInput describes the common fields for scope outcome events.
type ScopeEventInput struct {
	ScopeID    string
	ScopeLabel string
	Count      int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildIntentEnqueuedEvent constructs an event for an intent entering a
// scope's buffer.
func BuildIntentEnqueuedEvent(input IntentEventInput) Event {
	return buildIntentEvent(VerbIntentEnqueued, input)
}

// BuildIntentCapturedEvent constructs an event for an ancestor capturing an
// intent from a flushing descendant. CapturedFrom carries the descendant's
// label.
func BuildIntentCapturedEvent(input IntentEventInput) Event {
	return buildIntentEvent(VerbIntentCaptured, input)
}

// BuildIntentDroppedEvent constructs an event for an intent refused at the
// flush gates. Gate names the refusing layer: "local" or "scope".
func BuildIntentDroppedEvent(input IntentEventInput) Event {
	return buildIntentEvent(VerbIntentDropped, input)
}

// BuildIntentDispatchedEvent constructs an event for an intent handed to the
// executor.
func BuildIntentDispatchedEvent(input IntentEventInput) Event {
	return buildIntentEvent(VerbIntentDispatched, input)
}

// BuildScopeFlushedEvent constructs an event for a completed flush. Count is
// the number of dispatched intents.
func BuildScopeFlushedEvent(input ScopeEventInput) Event {
	return buildScopeEvent(VerbScopeFlushed, input)
}

// BuildScopeDiscardedEvent constructs an event for a discard. Count is the
// number of dropped intents.
func BuildScopeDiscardedEvent(input ScopeEventInput) Event {
	return buildScopeEvent(VerbScopeDiscarded, input)
}

func buildIntentEvent(verb string, input IntentEventInput) Event {
	return Event{
		Verb:         verb,
		ScopeID:      input.ScopeID,
		ScopeLabel:   input.ScopeLabel,
		IntentID:     input.IntentID,
		Task:         input.Task,
		Origin:       input.Origin,
		CapturedFrom: input.CapturedFrom,
		Gate:         input.Gate,
		Metadata:     cloneMap(input.Metadata),
		OccurredAt:   input.OccurredAt,
	}
}

func buildScopeEvent(verb string, input ScopeEventInput) Event {
	return Event{
		Verb:       verb,
		ScopeID:    input.ScopeID,
		ScopeLabel: input.ScopeLabel,
		Count:      input.Count,
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}
