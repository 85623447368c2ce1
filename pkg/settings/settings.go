package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	airlock "github.com/goliatone/go-airlock"
)

// Environment overrides. Each wins over the corresponding TOML key.
const (
	EnvPolicy         = "AIRLOCK_POLICY"
	EnvRule           = "AIRLOCK_RULE"
	EnvBlockedTasks   = "AIRLOCK_BLOCKED_TASKS"
	EnvRaiseOnEnqueue = "AIRLOCK_RAISE_ON_ENQUEUE"
	EnvLogLevel       = "AIRLOCK_LOG_LEVEL"
	EnvLogFlushes     = "AIRLOCK_LOG_FLUSHES"
)

// Recognized policy names.
const (
	PolicyAllowAll        = "allow_all"
	PolicyDropAll         = "drop_all"
	PolicyAssertNoEffects = "assert_no_effects"
	PolicyBlockTasks      = "block_tasks"
	PolicyExpr            = "expr"
	PolicyCEL             = "cel"
	PolicyJS              = "js"
)

// Settings selects the process-wide default policy and logging behavior from
// TOML plus environment overrides.
type Settings struct {
	Policy         string   `toml:"policy"`
	Rule           string   `toml:"rule"`
	BlockedTasks   []string `toml:"blocked_tasks"`
	RaiseOnEnqueue bool     `toml:"raise_on_enqueue"`
	LogLevel       string   `toml:"log_level"`
	LogFlushes     bool     `toml:"log_flushes"`
}

// Default returns the settings a process runs with when nothing is
// configured: admit everything, info-level logs.
func Default() Settings {
	return Settings{
		Policy:   PolicyAllowAll,
		LogLevel: "info",
	}
}

// Load reads settings from the TOML file at path, then applies environment
// overrides and validates. An empty path skips the file and uses defaults
// plus environment only.
func Load(path string) (Settings, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Settings{}, fmt.Errorf("settings: load %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Settings) {
	if v := strings.TrimSpace(os.Getenv(EnvPolicy)); v != "" {
		cfg.Policy = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRule)); v != "" {
		cfg.Rule = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBlockedTasks)); v != "" {
		cfg.BlockedTasks = splitList(v)
	}
	if v, ok := parseBool(os.Getenv(EnvRaiseOnEnqueue)); ok {
		cfg.RaiseOnEnqueue = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogFlushes)); ok {
		cfg.LogFlushes = v
	}
}

// Validate checks the policy name, its required inputs, and the log level.
func (s Settings) Validate() error {
	switch normalizePolicy(s.Policy) {
	case PolicyAllowAll, PolicyDropAll, PolicyAssertNoEffects:
	case PolicyBlockTasks:
		if len(s.BlockedTasks) == 0 {
			return fmt.Errorf("settings: policy %q requires blocked_tasks", PolicyBlockTasks)
		}
	case PolicyExpr, PolicyCEL:
		if strings.TrimSpace(s.Rule) == "" {
			return fmt.Errorf("settings: policy %q requires rule", s.Policy)
		}
	case PolicyJS:
		if strings.TrimSpace(s.Rule) == "" {
			return fmt.Errorf("settings: policy %q requires rule", s.Policy)
		}
		if !airlock.JSPolicyAvailable() {
			return fmt.Errorf("settings: policy %q requires the js_eval build tag", PolicyJS)
		}
	default:
		return fmt.Errorf("settings: unknown policy %q", s.Policy)
	}
	if s.LogLevel != "" {
		if _, ok := parseLevel(s.LogLevel); !ok {
			return fmt.Errorf("settings: unknown log level %q", s.LogLevel)
		}
	}
	return nil
}

// BuildPolicy constructs the configured policy. Rule failures and tag
// availability surface as errors; LogFlushes composes an audit logger in
// front of the gate.
func (s Settings) BuildPolicy(logger zerolog.Logger) (airlock.Policy, error) {
	var policy airlock.Policy
	switch normalizePolicy(s.Policy) {
	case PolicyAllowAll:
		policy = airlock.AllowAll{}
	case PolicyDropAll:
		policy = airlock.DropAll{}
	case PolicyAssertNoEffects:
		policy = airlock.AssertNoEffects{}
	case PolicyBlockTasks:
		var opts []airlock.BlockTasksOption
		if s.RaiseOnEnqueue {
			opts = append(opts, airlock.BlockTasksRaiseOnEnqueue())
		}
		policy = airlock.NewBlockTasks(s.BlockedTasks, opts...)
	case PolicyExpr:
		opts := []airlock.ExprPolicyOption{airlock.ExprWithLogger(logger)}
		if s.RaiseOnEnqueue {
			opts = append(opts, airlock.ExprWithEnqueueCheck())
		}
		built, err := airlock.NewExprPolicy(s.Rule, opts...)
		if err != nil {
			return nil, err
		}
		policy = built
	case PolicyCEL:
		opts := []airlock.CELPolicyOption{airlock.CELWithLogger(logger)}
		if s.RaiseOnEnqueue {
			opts = append(opts, airlock.CELWithEnqueueCheck())
		}
		built, err := airlock.NewCELPolicy(s.Rule, opts...)
		if err != nil {
			return nil, err
		}
		policy = built
	case PolicyJS:
		opts := []airlock.JSPolicyOption{airlock.JSWithLogger(logger)}
		if s.RaiseOnEnqueue {
			opts = append(opts, airlock.JSWithEnqueueCheck())
		}
		built, err := airlock.NewJSPolicy(s.Rule, opts...)
		if err != nil {
			return nil, err
		}
		policy = built
	default:
		return nil, fmt.Errorf("settings: unknown policy %q", s.Policy)
	}
	if s.LogFlushes {
		policy = airlock.NewComposite(airlock.NewLogOnFlush(logger), policy)
	}
	return policy, nil
}

// Apply installs the settings process-wide: the default scope policy, the
// default scope logger, and zerolog's global level.
func (s Settings) Apply(logger zerolog.Logger) error {
	if err := s.Validate(); err != nil {
		return err
	}
	policy, err := s.BuildPolicy(logger)
	if err != nil {
		return err
	}
	if level, ok := parseLevel(s.LogLevel); ok {
		zerolog.SetGlobalLevel(level)
	}
	airlock.Configure(
		airlock.WithDefaultPolicy(policy),
		airlock.WithDefaultScopeOptions(airlock.WithLogger(logger)),
	)
	return nil
}

func normalizePolicy(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return PolicyAllowAll
	}
	return name
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
