package airlock

import (
	"context"
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/rs/zerolog"
)

// CELPolicyOption configures a CEL-backed policy.
type CELPolicyOption func(*CELPolicy)

// CELWithEnqueueCheck also evaluates the rule at enqueue time, rejecting
// failing intents with a PolicyViolation instead of waiting for flush.
func CELWithEnqueueCheck() CELPolicyOption {
	return func(p *CELPolicy) {
		p.enqueueCheck = true
	}
}

// CELWithLogger routes rule evaluation failures to logger.
func CELWithLogger(logger zerolog.Logger) CELPolicyOption {
	return func(p *CELPolicy) {
		p.logger = logger
	}
}

// CELPolicy gates intents with a rule parsed and checked by
// github.com/google/cel-go. The rule evaluates against the same variables as
// ExprPolicy and must type-check to bool. A rule that fails at runtime
// denies the intent.
type CELPolicy struct {
	rule         string
	program      celgo.Program
	enqueueCheck bool
	logger       zerolog.Logger
}

// NewCELPolicy parses, checks, and plans rule once; evaluation reuses the
// program.
func NewCELPolicy(rule string, opts ...CELPolicyOption) (*CELPolicy, error) {
	if rule == "" {
		return nil, fmt.Errorf("airlock: cel policy: rule must not be empty")
	}
	env, err := celgo.NewEnv(
		celgo.Variable("name", celgo.StringType),
		celgo.Variable("origin", celgo.StringType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("kwargs", celgo.DynType),
		celgo.Variable("options", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
	)
	if err != nil {
		return nil, fmt.Errorf("airlock: cel policy: %w", err)
	}
	ast, issues := env.Parse(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("airlock: cel policy %q: %w", rule, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("airlock: cel policy %q: %w", rule, issues.Err())
	}
	if !checked.OutputType().IsExactType(celgo.BoolType) {
		return nil, fmt.Errorf("airlock: cel policy %q: rule produces %s, want bool", rule, checked.OutputType())
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("airlock: cel policy %q: %w", rule, err)
	}
	p := &CELPolicy{
		rule:    rule,
		program: program,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *CELPolicy) OnEnqueue(_ context.Context, intent *Intent) error {
	if !p.enqueueCheck {
		return nil
	}
	allowed, err := p.evaluate(intent)
	if err != nil {
		return fmt.Errorf("airlock: cel policy %q: %w", p.rule, err)
	}
	if !allowed {
		return Violation(p, intent, "rule rejected intent at enqueue")
	}
	return nil
}

func (p *CELPolicy) Allows(_ context.Context, intent *Intent) bool {
	allowed, err := p.evaluate(intent)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("rule", p.rule).
			Str("task", intent.Name()).
			Msg("cel rule failed, denying intent")
		return false
	}
	return allowed
}

func (p *CELPolicy) evaluate(intent *Intent) (bool, error) {
	out, _, err := p.program.Eval(ruleEnvironment(intent))
	if err != nil {
		return false, err
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule produced %T, want bool", out.Value())
	}
	return allowed, nil
}

func (p *CELPolicy) Describe() string {
	return fmt.Sprintf("cel(%s)", p.rule)
}
