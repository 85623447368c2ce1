package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	airlock "github.com/goliatone/go-airlock"
	"github.com/goliatone/go-airlock/pkg/activity"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordIntentEnqueued("billing.charge")
	RecordIntentCaptured("billing.charge")
	RecordIntentDropped("billing.charge", "scope")
	RecordIntentDispatched("billing.charge")
	RecordScopeOutcome("flushed")
	RecordDispatch("billing.charge", 12*time.Millisecond, true)
}

func TestHookCountsVerbs(t *testing.T) {
	hook := Hook()
	ctx := context.Background()

	before := testutil.ToFloat64(intentsDropped.WithLabelValues("notify.email", "local"))

	events := []activity.Event{
		activity.BuildIntentEnqueuedEvent(activity.IntentEventInput{ScopeID: "s", Task: "notify.email"}),
		activity.BuildIntentDroppedEvent(activity.IntentEventInput{ScopeID: "s", Task: "notify.email", Gate: "local"}),
		activity.BuildScopeDiscardedEvent(activity.ScopeEventInput{ScopeID: "s", Count: 1}),
	}
	for _, event := range events {
		if err := hook.Notify(ctx, event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	after := testutil.ToFloat64(intentsDropped.WithLabelValues("notify.email", "local"))
	if after != before+1 {
		t.Fatalf("expected dropped counter to advance by 1, got %v -> %v", before, after)
	}
}

func TestInstrumentExecutorObservesOutcome(t *testing.T) {
	boom := errors.New("boom")
	failing := InstrumentExecutor(func(context.Context, *airlock.Intent) error { return boom })
	passing := InstrumentExecutor(func(context.Context, *airlock.Intent) error { return nil })

	intent := airlock.NewIntent("audit.write")
	if err := failing(context.Background(), intent); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped executor error, got %v", err)
	}
	if err := passing(context.Background(), intent); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	failures := testutil.CollectAndCount(dispatchDuration)
	if failures == 0 {
		t.Fatalf("expected dispatch duration series to exist")
	}
}
