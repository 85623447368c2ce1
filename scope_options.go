package airlock

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-airlock/internal/merge"
	"github.com/goliatone/go-airlock/pkg/activity"
)

// ScopeOption configures scope construction.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label            string
	policy           Policy
	executor         Executor
	shouldFlush      func(error) bool
	capture          CaptureFunc
	dispatch         DispatchFunc
	logger           *zerolog.Logger
	hooks            activity.Hooks
	dispatchDefaults map[string]any
}

// WithLabel sets a human-friendly label used in errors, logs, and events.
func WithLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithPolicy sets the scope policy consulted at enqueue and flush.
func WithPolicy(policy Policy) ScopeOption {
	return func(cfg *scopeConfig) {
		if policy == nil {
			return
		}
		cfg.policy = policy
	}
}

// WithExecutor sets the executor approved intents dispatch through.
func WithExecutor(executor Executor) ScopeOption {
	return func(cfg *scopeConfig) {
		if executor == nil {
			return
		}
		cfg.executor = executor
	}
}

// WithShouldFlush overrides the flush-or-discard decision Run makes from the
// scoped function's error. The default flushes only on nil error.
func WithShouldFlush(decide func(error) bool) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.shouldFlush = decide
	}
}

// WithCaptureFunc overrides BeforeDescendantFlushes: fn returns the subset
// of a flushing descendant's intents this scope lets pass through instead of
// capturing. Returning nil captures everything, matching the default.
func WithCaptureFunc(fn CaptureFunc) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.capture = fn
	}
}

// WithDispatchFunc replaces the default fail-fast dispatch loop. The
// function receives the full approved batch; the scope's executor is still
// available on it for implementations that wrap rather than replace.
func WithDispatchFunc(fn DispatchFunc) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.dispatch = fn
	}
}

// WithLogger attaches a zerolog logger for scope lifecycle debugging and
// hook failures. Scopes log nothing by default.
func WithLogger(logger zerolog.Logger) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.logger = &logger
	}
}

// WithDefaultDispatchOptions sets executor hints applied to every intent the
// scope dispatches. An intent's own dispatch options win key by key; nested
// maps merge. Repeated use layers the later call over the earlier one.
func WithDefaultDispatchOptions(options map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(options) == 0 {
			return
		}
		cfg.dispatchDefaults = merge.Maps(options, cfg.dispatchDefaults)
	}
}

// WithActivityHooks attaches lifecycle hooks. Hooks are cloned and nil
// entries dropped; hook errors are logged and never affect outcomes.
func WithActivityHooks(hooks activity.Hooks) ScopeOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *scopeConfig) {
		cfg.hooks = append(cfg.hooks, normalized...)
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
