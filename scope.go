package airlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-airlock/pkg/activity"
)

// State identifies where a scope is in its lifecycle.
type State int

const (
	// StateCreated means the scope exists but has not been entered.
	StateCreated State = iota
	// StateActive means the scope is the current enqueue target on some
	// context chain.
	StateActive
	// StateInactive means the scope has exited and awaits flush or discard.
	StateInactive
	// StateFlushed means the scope ran its dispatch pipeline. Terminal.
	StateFlushed
	// StateDiscarded means the scope dropped its buffer. Terminal.
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	case StateFlushed:
		return "flushed"
	case StateDiscarded:
		return "discarded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state is final. Terminal scopes reject every
// buffering and lifecycle operation.
func (s State) Terminal() bool {
	return s == StateFlushed || s == StateDiscarded
}

// CaptureFunc decides which of a flushing descendant's intents pass through a
// scope uncaptured. See Scope.BeforeDescendantFlushes.
type CaptureFunc func(scope, exiting *Scope, intents []*Intent) []*Intent

// DispatchFunc replaces the default dispatch loop of a scope. Implementations
// own ordering and failure semantics for the approved batch.
type DispatchFunc func(ctx context.Context, scope *Scope, approved []*Intent) error

type bufferedIntent struct {
	intent   *Intent
	captured bool
}

// Scope is one lifecycle boundary for deferred side effects. Intents enqueue
// into the innermost scope on the context; when a scope flushes, its buffer
// first climbs the ancestor chain for capture, then survivors pass the policy
// gates and dispatch through the executor.
//
// A scope belongs to the goroutine that entered it. Nothing in Scope locks:
// contexts are not meant to be shared across goroutines mid-flight, and the
// isolation property falls out of each goroutine owning its own context
// chain.
type Scope struct {
	id     uuid.UUID
	label  string
	state  State
	parent *Scope

	policy   Policy
	executor Executor
	buffer   []bufferedIntent

	shouldFlush      func(error) bool
	captureFn        CaptureFunc
	dispatchFn       DispatchFunc
	logger           zerolog.Logger
	hooks            activity.Hooks
	dispatchDefaults map[string]any
}

// NewScope builds a scope in StateCreated. Unset options fall back to the
// process-wide configuration (see Configure), then to AllowAll and
// SyncExecutor.
func NewScope(opts ...ScopeOption) *Scope {
	cfg := scopeConfig{}
	for _, opt := range configuredScopeOptions() {
		if opt != nil {
			opt(&cfg)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	scope := &Scope{
		id:               uuid.New(),
		label:            cfg.label,
		state:            StateCreated,
		policy:           cfg.policy,
		executor:         cfg.executor,
		shouldFlush:      cfg.shouldFlush,
		captureFn:        cfg.capture,
		dispatchFn:       cfg.dispatch,
		logger:           zerolog.Nop(),
		hooks:            cfg.hooks,
		dispatchDefaults: cfg.dispatchDefaults,
	}
	if cfg.logger != nil {
		scope.logger = *cfg.logger
	}
	if scope.policy == nil {
		scope.policy = configuredPolicy()
	}
	if scope.executor == nil {
		scope.executor = configuredExecutor()
	}
	return scope
}

// ID returns the identifier assigned at construction.
func (s *Scope) ID() uuid.UUID { return s.id }

// Label returns the configured label, or a short form of the ID when no
// label was set.
func (s *Scope) Label() string {
	if s == nil {
		return "<nil>"
	}
	if s.label != "" {
		return s.label
	}
	return s.id.String()[:8]
}

// State returns the current lifecycle state.
func (s *Scope) State() State { return s.state }

// Parent returns the scope that was current when this one entered, if any.
func (s *Scope) Parent() *Scope { return s.parent }

// IsActive reports whether the scope is the current enqueue target.
func (s *Scope) IsActive() bool { return s.state == StateActive }

// IsFlushed reports whether the scope dispatched its buffer.
func (s *Scope) IsFlushed() bool { return s.state == StateFlushed }

// IsDiscarded reports whether the scope dropped its buffer.
func (s *Scope) IsDiscarded() bool { return s.state == StateDiscarded }

// Len returns the number of buffered intents, own and captured.
func (s *Scope) Len() int { return len(s.buffer) }

// Intents returns every buffered intent in arrival order.
func (s *Scope) Intents() []*Intent {
	if len(s.buffer) == 0 {
		return nil
	}
	out := make([]*Intent, 0, len(s.buffer))
	for _, entry := range s.buffer {
		out = append(out, entry.intent)
	}
	return out
}

// OwnIntents returns the intents enqueued directly into this scope, in
// arrival order.
func (s *Scope) OwnIntents() []*Intent {
	return s.filterIntents(false)
}

// CapturedIntents returns the intents captured from flushing descendants, in
// arrival order.
func (s *Scope) CapturedIntents() []*Intent {
	return s.filterIntents(true)
}

func (s *Scope) filterIntents(captured bool) []*Intent {
	var out []*Intent
	for _, entry := range s.buffer {
		if entry.captured == captured {
			out = append(out, entry.intent)
		}
	}
	return out
}

// Enter activates the scope and returns a derived context carrying it. The
// scope current on ctx, if any, becomes this scope's parent. Entering twice
// is an error.
func (s *Scope) Enter(ctx context.Context) (context.Context, error) {
	if s.state != StateCreated {
		return ctx, wrapScopeState(s, "enter")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if parent, ok := FromContext(ctx); ok {
		s.parent = parent
	}
	s.state = StateActive
	return withScope(ctx, s), nil
}

// Exit deactivates the scope. The derived context from Enter stops being a
// valid enqueue target once its scope turns terminal; callers simply stop
// using it. Exiting a scope that is not active is an error.
func (s *Scope) Exit() error {
	if s.state != StateActive {
		return wrapScopeState(s, "exit")
	}
	s.state = StateInactive
	return nil
}

// add buffers an intent after running the enqueue gates: the intent's local
// policies innermost first, then this scope's policy. Any error aborts and
// nothing is buffered.
func (s *Scope) add(ctx context.Context, intent *Intent) error {
	if s.state.Terminal() {
		return wrapScopeState(s, "enqueue into")
	}
	guarded := markInPolicy(ctx)
	locals := intent.localPolicies
	for idx := len(locals) - 1; idx >= 0; idx-- {
		if err := locals[idx].OnEnqueue(guarded, intent); err != nil {
			return err
		}
	}
	if err := s.policy.OnEnqueue(guarded, intent); err != nil {
		return err
	}
	s.buffer = append(s.buffer, bufferedIntent{intent: intent})
	s.emit(ctx, activity.BuildIntentEnqueuedEvent(s.eventInput(intent)))
	return nil
}

// captureFrom appends an intent surrendered by a flushing descendant. The
// capturing scope's OnEnqueue does not run; the intent will face this
// scope's gates when this scope itself flushes.
func (s *Scope) captureFrom(ctx context.Context, intent *Intent, exiting *Scope) {
	s.buffer = append(s.buffer, bufferedIntent{intent: intent, captured: true})
	input := s.eventInput(intent)
	input.CapturedFrom = exiting.Label()
	s.emit(ctx, activity.BuildIntentCapturedEvent(input))
}

// BeforeDescendantFlushes is consulted for each ancestor while a descendant
// flushes, nearest ancestor first. It receives the intents still moving up
// the chain and returns the subset allowed to continue toward dispatch;
// everything else is captured into this scope's buffer to be re-decided at
// this scope's own flush. The default returns nil, capturing everything:
// an outer scope outlives its descendants, so it gets the final say on
// whether their effects happen.
func (s *Scope) BeforeDescendantFlushes(exiting *Scope, intents []*Intent) []*Intent {
	if s.captureFn != nil {
		return s.captureFn(s, exiting, intents)
	}
	return nil
}

// Flush runs the dispatch pipeline: ancestors capture first, then survivors
// pass the intent's local policies and this scope's policy, then approved
// intents dispatch through the executor in arrival order, stopping at the
// first executor error. The scope turns terminal before any policy or
// executor code runs. Returns the approved intents.
//
// Flush is legal from StateCreated and StateInactive. Flushing an active or
// terminal scope is an error.
func (s *Scope) Flush(ctx context.Context) ([]*Intent, error) {
	if s.state == StateActive || s.state.Terminal() {
		return nil, wrapScopeState(s, "flush")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.state = StateFlushed

	remaining := s.walkParentChain(ctx, s.Intents())

	guarded := markInPolicy(ctx)
	approved := make([]*Intent, 0, len(remaining))
	for _, intent := range remaining {
		if !intent.PassesLocalPolicies(guarded) {
			s.emitDropped(ctx, intent, "local")
			continue
		}
		if !s.policy.Allows(guarded, intent) {
			s.emitDropped(ctx, intent, "scope")
			continue
		}
		approved = append(approved, intent)
	}
	if len(s.dispatchDefaults) > 0 {
		for idx, intent := range approved {
			approved[idx] = intent.withDispatchDefaults(s.dispatchDefaults)
		}
	}

	if err := s.dispatchAll(ctx, approved); err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("scope", s.Label()).
		Int("approved", len(approved)).
		Int("buffered", len(s.buffer)).
		Msg("scope flushed")
	s.emit(ctx, activity.BuildScopeFlushedEvent(s.scopeEventInput(len(approved))))
	return approved, nil
}

// walkParentChain offers the flushing buffer to each ancestor, nearest
// first. Ancestors capture whatever they do not explicitly let pass; only
// intents every ancestor waves through come back for local dispatch.
// Relative order is preserved at every step.
func (s *Scope) walkParentChain(ctx context.Context, intents []*Intent) []*Intent {
	remaining := intents
	for ancestor := s.parent; ancestor != nil && len(remaining) > 0; ancestor = ancestor.parent {
		allowed := ancestor.BeforeDescendantFlushes(s, remaining)
		allowedSet := make(map[*Intent]struct{}, len(allowed))
		for _, intent := range allowed {
			allowedSet[intent] = struct{}{}
		}
		next := make([]*Intent, 0, len(allowed))
		for _, intent := range remaining {
			if _, pass := allowedSet[intent]; pass {
				next = append(next, intent)
				continue
			}
			ancestor.captureFrom(ctx, intent, s)
		}
		remaining = next
	}
	return remaining
}

func (s *Scope) dispatchAll(ctx context.Context, approved []*Intent) error {
	if s.dispatchFn != nil {
		if err := s.dispatchFn(ctx, s, approved); err != nil {
			return err
		}
		for _, intent := range approved {
			s.emit(ctx, activity.BuildIntentDispatchedEvent(s.eventInput(intent)))
		}
		return nil
	}
	for _, intent := range approved {
		if err := s.executor(ctx, intent); err != nil {
			return fmt.Errorf("airlock: dispatch %s: %w", intent, err)
		}
		s.emit(ctx, activity.BuildIntentDispatchedEvent(s.eventInput(intent)))
	}
	return nil
}

// Discard drops the buffer without consulting policies or the executor.
// Returns the dropped intents. Legal from the same states as Flush.
func (s *Scope) Discard() ([]*Intent, error) {
	if s.state == StateActive || s.state.Terminal() {
		return nil, wrapScopeState(s, "discard")
	}
	s.state = StateDiscarded
	dropped := s.Intents()
	s.buffer = nil
	s.logger.Debug().
		Str("scope", s.Label()).
		Int("dropped", len(dropped)).
		Msg("scope discarded")
	s.emit(context.Background(), activity.BuildScopeDiscardedEvent(s.scopeEventInput(len(dropped))))
	return dropped, nil
}

// ShouldFlush reports whether Run should flush or discard given the error
// the scoped function returned. The default flushes only on nil.
func (s *Scope) ShouldFlush(err error) bool {
	if s.shouldFlush != nil {
		return s.shouldFlush(err)
	}
	return err == nil
}

func (s *Scope) emitDropped(ctx context.Context, intent *Intent, gate string) {
	input := s.eventInput(intent)
	input.Gate = gate
	s.emit(ctx, activity.BuildIntentDroppedEvent(input))
}

func (s *Scope) emit(ctx context.Context, event activity.Event) {
	if !s.hooks.Enabled() {
		return
	}
	if err := s.hooks.Notify(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("verb", event.Verb).Msg("activity hook failed")
	}
}

func (s *Scope) eventInput(intent *Intent) activity.IntentEventInput {
	input := activity.IntentEventInput{
		ScopeID:    s.id.String(),
		ScopeLabel: s.Label(),
		OccurredAt: time.Now(),
	}
	if intent != nil {
		input.IntentID = intent.ID().String()
		input.Task = intent.Name()
		input.Origin = intent.Origin()
	}
	return input
}

func (s *Scope) scopeEventInput(count int) activity.ScopeEventInput {
	return activity.ScopeEventInput{
		ScopeID:    s.id.String(),
		ScopeLabel: s.Label(),
		Count:      count,
		OccurredAt: time.Now(),
	}
}
