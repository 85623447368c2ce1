//go:build js_eval

package airlock

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

type jsPolicy struct {
	rule         string
	program      *goja.Program
	enqueueCheck bool
	logger       zerolog.Logger
}

// NewJSPolicy compiles a JavaScript rule with github.com/dop251/goja. Each
// evaluation runs the program in a fresh VM against the same variables as
// ExprPolicy; the rule must produce a boolean, and runtime failures deny.
// Requires the js_eval build tag.
func NewJSPolicy(rule string, opts ...JSPolicyOption) (Policy, error) {
	if rule == "" {
		return nil, fmt.Errorf("airlock: js policy: rule must not be empty")
	}
	cfg := applyJSPolicyOptions(opts)
	program, err := goja.Compile("", wrapJSRule(rule), false)
	if err != nil {
		return nil, fmt.Errorf("airlock: js policy %q: %w", rule, err)
	}
	p := &jsPolicy{
		rule:         rule,
		program:      program,
		enqueueCheck: cfg.enqueueCheck,
		logger:       zerolog.Nop(),
	}
	if cfg.logger != nil {
		p.logger = *cfg.logger
	}
	return p, nil
}

func (p *jsPolicy) OnEnqueue(_ context.Context, intent *Intent) error {
	if !p.enqueueCheck {
		return nil
	}
	allowed, err := p.evaluate(intent)
	if err != nil {
		return fmt.Errorf("airlock: js policy %q: %w", p.rule, err)
	}
	if !allowed {
		return Violation(p, intent, "rule rejected intent at enqueue")
	}
	return nil
}

func (p *jsPolicy) Allows(_ context.Context, intent *Intent) bool {
	allowed, err := p.evaluate(intent)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("rule", p.rule).
			Str("task", intent.Name()).
			Msg("js rule failed, denying intent")
		return false
	}
	return allowed
}

func (p *jsPolicy) evaluate(intent *Intent) (bool, error) {
	vm := goja.New()
	for key, value := range ruleEnvironment(intent) {
		if err := vm.Set(key, value); err != nil {
			return false, err
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return false, err
	}
	allowed, ok := value.Export().(bool)
	if !ok {
		return false, fmt.Errorf("rule produced %T, want bool", value.Export())
	}
	return allowed, nil
}

func (p *jsPolicy) Describe() string {
	return fmt.Sprintf("js(%s)", p.rule)
}

func wrapJSRule(rule string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", rule)
}

func jsPolicyAvailable() bool {
	return true
}
