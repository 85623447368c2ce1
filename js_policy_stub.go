//go:build !js_eval

package airlock

import "fmt"

// NewJSPolicy is unavailable without the js_eval build tag.
func NewJSPolicy(rule string, opts ...JSPolicyOption) (Policy, error) {
	_ = applyJSPolicyOptions(opts)
	return nil, fmt.Errorf("airlock: js policy %q requires the js_eval build tag", rule)
}

func jsPolicyAvailable() bool {
	return false
}
