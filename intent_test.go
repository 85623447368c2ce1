package airlock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type namedTask struct{}

func (namedTask) Name() string { return "billing.charge" }

type opaqueTask struct{}

func packageLevelTask(context.Context) error { return nil }

func TestTaskNameResolution(t *testing.T) {
	cases := []struct {
		label string
		task  any
		want  string
		match func(got, want string) bool
	}{
		{label: "named method", task: namedTask{}, want: "billing.charge"},
		{label: "string task", task: "emails.send_welcome", want: "emails.send_welcome"},
		{label: "function", task: packageLevelTask, want: ".packageLevelTask", match: strings.HasSuffix},
		{label: "opaque value", task: opaqueTask{}, want: "opaqueTask", match: strings.Contains},
		{label: "nil task", task: nil, want: "<nil>"},
	}
	for _, tc := range cases {
		got := NewIntent(tc.task).Name()
		if tc.match == nil {
			if got != tc.want {
				t.Fatalf("%s: expected %q, got %q", tc.label, tc.want, got)
			}
			continue
		}
		if !tc.match(got, tc.want) {
			t.Fatalf("%s: expected name matching %q, got %q", tc.label, tc.want, got)
		}
	}
}

func TestIntentIsImmutable(t *testing.T) {
	args := []any{"user-42"}
	kwargs := map[string]any{"template": "welcome"}
	options := map[string]any{"queue": "critical"}

	intent := NewIntent("emails.send_welcome",
		WithArgs(args...),
		WithKwargs(kwargs),
		WithDispatchOptions(options),
	)

	args[0] = "mutated"
	kwargs["template"] = "mutated"
	options["queue"] = "mutated"

	if got := intent.Args()[0]; got != "user-42" {
		t.Fatalf("expected args copied at construction, got %v", got)
	}
	if got := intent.Kwargs()["template"]; got != "welcome" {
		t.Fatalf("expected kwargs copied at construction, got %v", got)
	}
	if got := intent.DispatchOptions()["queue"]; got != "critical" {
		t.Fatalf("expected options copied at construction, got %v", got)
	}

	intent.Args()[0] = "mutated"
	intent.Kwargs()["template"] = "mutated"
	intent.DispatchOptions()["queue"] = "mutated"

	if got := intent.Args()[0]; got != "user-42" {
		t.Fatalf("expected accessors to return copies, got %v", got)
	}
	if got := intent.Kwargs()["template"]; got != "welcome" {
		t.Fatalf("expected accessors to return copies, got %v", got)
	}
	if got := intent.DispatchOptions()["queue"]; got != "critical" {
		t.Fatalf("expected accessors to return copies, got %v", got)
	}
}

func TestIntentStringRendersCallSignature(t *testing.T) {
	intent := NewIntent("emails.send_welcome",
		WithArgs(42, "now"),
		WithKwarg("b", 2),
		WithKwarg("a", 1),
	)
	if got, want := intent.String(), "emails.send_welcome(42, now, a=1, b=2)"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	bare := NewIntent("ping")
	if got, want := bare.String(), "ping()"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestIntentMarshalJSON(t *testing.T) {
	intent := NewIntent("emails.send_welcome",
		WithArgs("user-42"),
		WithOrigin("signup"),
		WithDispatchOption("queue", "critical"),
	)
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("expected marshal to succeed, got %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if record["id"] != intent.ID().String() {
		t.Fatalf("expected the intent id in the record, got %v", record["id"])
	}
	if record["name"] != "emails.send_welcome" {
		t.Fatalf("expected the task name, got %v", record["name"])
	}
	if record["origin"] != "signup" {
		t.Fatalf("expected the origin, got %v", record["origin"])
	}
	if _, serialized := record["task"]; serialized {
		t.Fatal("expected the task value itself to stay out of the record")
	}
}

func TestKwargsIntoBindsTypedParams(t *testing.T) {
	intent := NewIntent("emails.send_welcome",
		WithKwarg("template", "welcome"),
		WithKwarg("user_id", 42),
		WithKwarg("unused", "later addition"),
	)

	var params struct {
		Template string `json:"template"`
		UserID   int    `json:"user_id"`
	}
	if err := intent.KwargsInto(&params); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if params.Template != "welcome" || params.UserID != 42 {
		t.Fatalf("expected bound params, got %+v", params)
	}

	var bad struct {
		UserID string `json:"user_id"`
	}
	if err := intent.KwargsInto(&bad); err == nil {
		t.Fatal("expected a type mismatch to surface")
	}
}

func TestEnqueueCapturesLocalPolicyStack(t *testing.T) {
	scope := NewScope()
	ctx, err := scope.Enter(context.Background())
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	region := WithLocalPolicy(ctx, DropAll{})
	if err := Enqueue(region, "emails.send_welcome"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := Enqueue(ctx, "emails.send_receipt"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	intents := scope.Intents()
	if len(intents) != 2 {
		t.Fatalf("expected two buffered intents, got %d", len(intents))
	}
	if got := len(intents[0].LocalPolicies()); got != 1 {
		t.Fatalf("expected the region intent to capture one policy, got %d", got)
	}
	if got := len(intents[1].LocalPolicies()); got != 0 {
		t.Fatalf("expected the plain intent to capture none, got %d", got)
	}
	if intents[0].PassesLocalPolicies(context.Background()) {
		t.Fatal("expected the captured DropAll to refuse the intent")
	}
	if !intents[1].PassesLocalPolicies(context.Background()) {
		t.Fatal("expected an empty stack to pass")
	}
}
