package airlock

import (
	"strings"
	"testing"
)

func TestJSPolicyUnavailableWithoutBuildTag(t *testing.T) {
	if JSPolicyAvailable() {
		t.Skip("built with js_eval")
	}
	_, err := NewJSPolicy(`name == "emails.send_welcome"`)
	if err == nil || !strings.Contains(err.Error(), "js_eval") {
		t.Fatalf("expected the build tag requirement in the error, got %v", err)
	}
}
