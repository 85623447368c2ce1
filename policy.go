package airlock

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Policy gates intents at the two decision points in their life: enqueue and
// flush. OnEnqueue may reject an intent outright by returning an error; the
// intent is then never buffered and the error propagates to the enqueue
// caller. Allows is the flush-time gate: false drops the intent silently,
// true lets it dispatch. Allows must not enqueue; the core guards against
// reentrancy and returns ErrPolicyEnqueue if a policy tries.
type Policy interface {
	OnEnqueue(ctx context.Context, intent *Intent) error
	Allows(ctx context.Context, intent *Intent) bool
}

// AllowAll admits every intent. The default scope policy.
type AllowAll struct{}

func (AllowAll) OnEnqueue(context.Context, *Intent) error { return nil }
func (AllowAll) Allows(context.Context, *Intent) bool     { return true }
func (AllowAll) Describe() string                         { return "allow_all" }

// DropAll buffers everything and dispatches nothing. Useful for dry runs:
// intents remain inspectable on the scope but never execute.
type DropAll struct{}

func (DropAll) OnEnqueue(context.Context, *Intent) error { return nil }
func (DropAll) Allows(context.Context, *Intent) bool     { return false }
func (DropAll) Describe() string                         { return "drop_all" }

// AssertNoEffects rejects at enqueue time. Put it on a scope or a local
// policy region to prove a code path produces no side effects.
type AssertNoEffects struct{}

func (p AssertNoEffects) OnEnqueue(_ context.Context, intent *Intent) error {
	return Violation(p, intent, "side effects are not allowed here")
}

func (AssertNoEffects) Allows(context.Context, *Intent) bool { return false }
func (AssertNoEffects) Describe() string                     { return "assert_no_effects" }

// BlockTasks drops intents whose task name is on the block list. By default
// blocked intents buffer normally and are dropped at flush; with
// BlockTasksRaiseOnEnqueue they are rejected eagerly instead.
type BlockTasks struct {
	blocked        map[string]struct{}
	raiseOnEnqueue bool
}

// BlockTasksOption configures a BlockTasks policy.
type BlockTasksOption func(*BlockTasks)

// BlockTasksRaiseOnEnqueue makes the policy reject blocked intents at
// enqueue time with a PolicyViolation instead of dropping them at flush.
func BlockTasksRaiseOnEnqueue() BlockTasksOption {
	return func(p *BlockTasks) {
		p.raiseOnEnqueue = true
	}
}

// NewBlockTasks builds a BlockTasks policy over the given task names.
func NewBlockTasks(names []string, opts ...BlockTasksOption) *BlockTasks {
	p := &BlockTasks{blocked: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name == "" {
			continue
		}
		p.blocked[name] = struct{}{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *BlockTasks) OnEnqueue(_ context.Context, intent *Intent) error {
	if !p.raiseOnEnqueue {
		return nil
	}
	if _, blocked := p.blocked[intent.Name()]; blocked {
		return Violation(p, intent, "task is blocked")
	}
	return nil
}

func (p *BlockTasks) Allows(_ context.Context, intent *Intent) bool {
	_, blocked := p.blocked[intent.Name()]
	return !blocked
}

func (p *BlockTasks) Describe() string {
	names := make([]string, 0, len(p.blocked))
	for name := range p.blocked {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("block_tasks(%s)", strings.Join(names, ", "))
}

// LogOnFlush admits every intent and logs each one as it passes the flush
// gate. Compose it with a real gate to get an audit trail.
type LogOnFlush struct {
	logger zerolog.Logger
}

// NewLogOnFlush builds a LogOnFlush policy writing to logger.
func NewLogOnFlush(logger zerolog.Logger) *LogOnFlush {
	return &LogOnFlush{logger: logger}
}

func (*LogOnFlush) OnEnqueue(context.Context, *Intent) error { return nil }

func (p *LogOnFlush) Allows(_ context.Context, intent *Intent) bool {
	p.logger.Info().
		Str("intent_id", intent.ID().String()).
		Str("task", intent.Name()).
		Str("origin", intent.Origin()).
		Msg("flushing intent")
	return true
}

func (*LogOnFlush) Describe() string { return "log_on_flush" }

// Composite chains policies in order. OnEnqueue runs each policy's hook and
// stops at the first error; Allows requires every policy to allow. An empty
// composite behaves like AllowAll.
type Composite struct {
	policies []Policy
}

// NewComposite builds a Composite over the given policies. Nil entries are
// skipped; the slice is copied.
func NewComposite(policies ...Policy) *Composite {
	kept := make([]Policy, 0, len(policies))
	for _, policy := range policies {
		if policy != nil {
			kept = append(kept, policy)
		}
	}
	return &Composite{policies: kept}
}

func (p *Composite) OnEnqueue(ctx context.Context, intent *Intent) error {
	for _, policy := range p.policies {
		if err := policy.OnEnqueue(ctx, intent); err != nil {
			return err
		}
	}
	return nil
}

func (p *Composite) Allows(ctx context.Context, intent *Intent) bool {
	for _, policy := range p.policies {
		if !policy.Allows(ctx, intent) {
			return false
		}
	}
	return true
}

func (p *Composite) Describe() string {
	parts := make([]string, 0, len(p.policies))
	for _, policy := range p.policies {
		parts = append(parts, describePolicy(policy))
	}
	return fmt.Sprintf("composite(%s)", strings.Join(parts, ", "))
}
