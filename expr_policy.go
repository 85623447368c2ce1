package airlock

import (
	"context"
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog"
)

// ExprPolicyOption configures an expr-backed policy.
type ExprPolicyOption func(*ExprPolicy)

// ExprWithEnqueueCheck also evaluates the rule at enqueue time, rejecting
// failing intents with a PolicyViolation instead of waiting for flush.
func ExprWithEnqueueCheck() ExprPolicyOption {
	return func(p *ExprPolicy) {
		p.enqueueCheck = true
	}
}

// ExprWithLogger routes rule evaluation failures to logger.
func ExprWithLogger(logger zerolog.Logger) ExprPolicyOption {
	return func(p *ExprPolicy) {
		p.logger = logger
	}
}

// ExprPolicy gates intents with a rule compiled by
// github.com/expr-lang/expr. The rule evaluates against name, origin, args,
// kwargs, options, and now, and must produce a boolean. A rule that fails at
// runtime denies the intent.
type ExprPolicy struct {
	rule         string
	program      *exprvm.Program
	enqueueCheck bool
	logger       zerolog.Logger
}

// NewExprPolicy compiles rule once; evaluation reuses the program.
func NewExprPolicy(rule string, opts ...ExprPolicyOption) (*ExprPolicy, error) {
	if rule == "" {
		return nil, fmt.Errorf("airlock: expr policy: rule must not be empty")
	}
	program, err := exprlang.Compile(rule,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("airlock: expr policy %q: %w", rule, err)
	}
	p := &ExprPolicy{
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

func (p *ExprPolicy) OnEnqueue(_ context.Context, intent *Intent) error {
	if !p.enqueueCheck {
		return nil
	}
	allowed, err := p.evaluate(intent)
	if err != nil {
		return fmt.Errorf("airlock: expr policy %q: %w", p.rule, err)
	}
	if !allowed {
		return Violation(p, intent, "rule rejected intent at enqueue")
	}
	return nil
}

func (p *ExprPolicy) Allows(_ context.Context, intent *Intent) bool {
	allowed, err := p.evaluate(intent)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("rule", p.rule).
			Str("task", intent.Name()).
			Msg("expr rule failed, denying intent")
		return false
	}
	return allowed
}

func (p *ExprPolicy) evaluate(intent *Intent) (bool, error) {
	result, err := exprlang.Run(p.program, ruleEnvironment(intent))
	if err != nil {
		return false, err
	}
	allowed, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule produced %T, want bool", result)
	}
	return allowed, nil
}

func (p *ExprPolicy) Describe() string {
	return fmt.Sprintf("expr(%s)", p.rule)
}

// ruleEnvironment is the variable set rule-backed policies evaluate against.
// Empty payloads surface as empty containers, not nil, so rules can index
// without guarding.
func ruleEnvironment(intent *Intent) map[string]any {
	args := intent.Args()
	if args == nil {
		args = []any{}
	}
	kwargs := intent.Kwargs()
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	options := intent.DispatchOptions()
	if options == nil {
		options = map[string]any{}
	}
	return map[string]any{
		"name":    intent.Name(),
		"origin":  intent.Origin(),
		"args":    args,
		"kwargs":  kwargs,
		"options": options,
		"now":     time.Now(),
	}
}
