package airlock

import "sync"

// ConfigureOption adjusts the process-wide defaults consulted by NewScope.
type ConfigureOption func(*configuration)

type configuration struct {
	policy    Policy
	executor  Executor
	scopeOpts []ScopeOption
}

var (
	configMu sync.RWMutex
	config   configuration
)

// WithDefaultPolicy sets the policy scopes fall back to when constructed
// without one.
func WithDefaultPolicy(policy Policy) ConfigureOption {
	return func(cfg *configuration) {
		cfg.policy = policy
	}
}

// WithDefaultExecutor sets the executor scopes fall back to when constructed
// without one.
func WithDefaultExecutor(executor Executor) ConfigureOption {
	return func(cfg *configuration) {
		cfg.executor = executor
	}
}

// WithDefaultScopeOptions appends scope options applied to every NewScope
// before the caller's own options, so explicit options always win.
func WithDefaultScopeOptions(opts ...ScopeOption) ConfigureOption {
	return func(cfg *configuration) {
		cfg.scopeOpts = append(cfg.scopeOpts, opts...)
	}
}

// Configure sets process-wide scope defaults. Call it once at startup;
// concurrent use is safe but later calls overwrite earlier ones field by
// field.
func Configure(opts ...ConfigureOption) {
	configMu.Lock()
	defer configMu.Unlock()
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}
}

// ResetConfiguration restores the built-in defaults: AllowAll, SyncExecutor,
// no extra scope options. Intended for tests.
func ResetConfiguration() {
	configMu.Lock()
	defer configMu.Unlock()
	config = configuration{}
}

func configuredPolicy() Policy {
	configMu.RLock()
	defer configMu.RUnlock()
	if config.policy != nil {
		return config.policy
	}
	return AllowAll{}
}

func configuredExecutor() Executor {
	configMu.RLock()
	defer configMu.RUnlock()
	if config.executor != nil {
		return config.executor
	}
	return SyncExecutor
}

func configuredScopeOptions() []ScopeOption {
	configMu.RLock()
	defer configMu.RUnlock()
	if len(config.scopeOpts) == 0 {
		return nil
	}
	return append([]ScopeOption(nil), config.scopeOpts...)
}
