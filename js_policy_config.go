package airlock

import "github.com/rs/zerolog"

type jsPolicyConfig struct {
	enqueueCheck bool
	logger       *zerolog.Logger
}

// JSPolicyOption configures a JS-backed policy.
type JSPolicyOption func(*jsPolicyConfig)

// JSWithEnqueueCheck also evaluates the rule at enqueue time, rejecting
// failing intents with a PolicyViolation instead of waiting for flush.
func JSWithEnqueueCheck() JSPolicyOption {
	return func(cfg *jsPolicyConfig) {
		cfg.enqueueCheck = true
	}
}

// JSWithLogger routes rule evaluation failures to logger.
func JSWithLogger(logger zerolog.Logger) JSPolicyOption {
	return func(cfg *jsPolicyConfig) {
		cfg.logger = &logger
	}
}

func applyJSPolicyOptions(opts []JSPolicyOption) jsPolicyConfig {
	cfg := jsPolicyConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// JSPolicyAvailable reports whether the binary was built with the js_eval
// tag, making NewJSPolicy usable.
func JSPolicyAvailable() bool {
	return jsPolicyAvailable()
}
