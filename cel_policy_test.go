package airlock

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCELPolicyGatesOnIntentFields(t *testing.T) {
	policy, err := NewCELPolicy(`name == "emails.send_welcome" || origin == "api"`)
	if err != nil {
		t.Fatalf("expected the rule to check, got %v", err)
	}
	ctx := context.Background()

	if !policy.Allows(ctx, NewIntent("emails.send_welcome")) {
		t.Fatal("expected a matching name to pass")
	}
	if policy.Allows(ctx, NewIntent("sms.send", WithOrigin("batch"))) {
		t.Fatal("expected a non-matching intent to be dropped")
	}
	if !policy.Allows(ctx, NewIntent("sms.send", WithOrigin("api"))) {
		t.Fatal("expected a matching origin to pass")
	}
	if got, want := policy.Describe(), `cel(name == "emails.send_welcome" || origin == "api")`; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCELPolicyEnqueueCheck(t *testing.T) {
	eager, err := NewCELPolicy(`origin != ""`, CELWithEnqueueCheck())
	if err != nil {
		t.Fatalf("expected the rule to check, got %v", err)
	}
	err = eager.OnEnqueue(context.Background(), NewIntent("sms.send"))
	var violation *PolicyViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected a PolicyViolation, got %v", err)
	}
	if err := eager.OnEnqueue(context.Background(), NewIntent("sms.send", WithOrigin("api"))); err != nil {
		t.Fatalf("expected a passing intent to enqueue, got %v", err)
	}
}

func TestCELPolicyRejectsBadRules(t *testing.T) {
	cases := []struct {
		rule string
		want string
	}{
		{"", "must not be empty"},
		{"((", ""},
		{`"hello"`, "want bool"},
		{"missing == 1", "missing"},
	}
	for _, tc := range cases {
		_, err := NewCELPolicy(tc.rule)
		if err == nil {
			t.Fatalf("expected rule %q to be rejected", tc.rule)
		}
		if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %q in the error for rule %q, got %v", tc.want, tc.rule, err)
		}
	}
}

func TestCELPolicyDeniesWhenRuleFailsAtRuntime(t *testing.T) {
	policy, err := NewCELPolicy(`kwargs.count > 10`)
	if err != nil {
		t.Fatalf("expected the rule to check, got %v", err)
	}
	if policy.Allows(context.Background(), NewIntent("reports.rebuild")) {
		t.Fatal("expected a failing rule to deny the intent")
	}
	if !policy.Allows(context.Background(), NewIntent("reports.rebuild", WithKwarg("count", 20))) {
		t.Fatal("expected the rule to pass with the payload present")
	}
}
