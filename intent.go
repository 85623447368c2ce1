package airlock

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-airlock/internal/hydrate"
	"github.com/goliatone/go-airlock/internal/merge"
)

// Intent is an immutable record of one deferred action: the task to run, the
// call payload, and the local policies that were in force when it was
// enqueued. Intents are created by Enqueue and never mutated afterwards;
// accessors return defensive copies.
type Intent struct {
	id              uuid.UUID
	task            any
	name            string
	args            []any
	kwargs          map[string]any
	origin          string
	dispatchOptions map[string]any
	localPolicies   []Policy
	createdAt       time.Time
}

// IntentOption configures intent construction.
type IntentOption func(*intentConfig)

type intentConfig struct {
	args            []any
	kwargs          map[string]any
	origin          string
	dispatchOptions map[string]any
}

// WithArgs sets the positional payload passed to the task at dispatch.
func WithArgs(args ...any) IntentOption {
	return func(cfg *intentConfig) {
		cfg.args = args
	}
}

// WithKwargs sets the keyword payload passed to the task at dispatch. The map
// is copied so the resulting Intent remains immutable even if the caller
// mutates their reference.
func WithKwargs(kwargs map[string]any) IntentOption {
	return func(cfg *intentConfig) {
		if len(kwargs) == 0 {
			return
		}
		cfg.kwargs = copyValues(kwargs)
	}
}

// WithKwarg sets a single keyword payload entry.
func WithKwarg(key string, value any) IntentOption {
	return func(cfg *intentConfig) {
		if cfg.kwargs == nil {
			cfg.kwargs = make(map[string]any, 1)
		}
		cfg.kwargs[key] = value
	}
}

// WithOrigin records where the intent came from, for audit trails and
// debugging. Free-form, e.g. "billing.invoice_paid".
func WithOrigin(origin string) IntentOption {
	return func(cfg *intentConfig) {
		cfg.origin = origin
	}
}

// WithDispatchOptions attaches executor-specific hints (queue, countdown,
// priority and the like). The core never interprets them; they ride along to
// the executor.
func WithDispatchOptions(options map[string]any) IntentOption {
	return func(cfg *intentConfig) {
		if len(options) == 0 {
			return
		}
		cfg.dispatchOptions = copyValues(options)
	}
}

// WithDispatchOption attaches a single executor-specific hint.
func WithDispatchOption(key string, value any) IntentOption {
	return func(cfg *intentConfig) {
		if cfg.dispatchOptions == nil {
			cfg.dispatchOptions = make(map[string]any, 1)
		}
		cfg.dispatchOptions[key] = value
	}
}

// NewIntent builds an Intent outside the ambient Enqueue path. Integrations
// and tests use it; application code should prefer Enqueue so local policies
// are captured.
func NewIntent(task any, opts ...IntentOption) *Intent {
	cfg := intentConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &Intent{
		id:              uuid.New(),
		task:            task,
		name:            taskName(task),
		args:            copyArgs(cfg.args),
		kwargs:          copyValues(cfg.kwargs),
		origin:          cfg.origin,
		dispatchOptions: copyValues(cfg.dispatchOptions),
		createdAt:       time.Now().UTC(),
	}
}

func newIntent(ctx context.Context, task any, opts ...IntentOption) *Intent {
	intent := NewIntent(task, opts...)
	if policies := localPolicies(ctx); len(policies) > 0 {
		intent.localPolicies = append([]Policy(nil), policies...)
	}
	return intent
}

// ID returns the unique identifier assigned at construction.
func (i *Intent) ID() uuid.UUID { return i.id }

// Task returns the deferred callable or task descriptor.
func (i *Intent) Task() any { return i.task }

// Name returns the stable task name: a Name() string method if the task has
// one, the string itself for string tasks, the qualified function name for
// funcs, or the Go type as a last resort.
func (i *Intent) Name() string { return i.name }

// Origin returns the enqueue-site annotation, if any.
func (i *Intent) Origin() string { return i.origin }

// CreatedAt returns the enqueue timestamp in UTC.
func (i *Intent) CreatedAt() time.Time { return i.createdAt }

// Args returns a copy of the positional payload.
func (i *Intent) Args() []any { return copyArgs(i.args) }

// Kwargs returns a copy of the keyword payload.
func (i *Intent) Kwargs() map[string]any { return copyValues(i.kwargs) }

// KwargsInto binds the keyword payload to dst, a struct pointer, matching
// keys to json tags. Unknown keys are ignored; type mismatches error.
func (i *Intent) KwargsInto(dst any) error {
	return hydrate.Decode(i.kwargs, dst)
}

// DispatchOptions returns a copy of the executor hints.
func (i *Intent) DispatchOptions() map[string]any { return copyValues(i.dispatchOptions) }

// withDispatchDefaults overlays the intent's own executor hints on top of
// scope-level defaults, returning a derived intent. The receiver is never
// mutated.
func (i *Intent) withDispatchDefaults(defaults map[string]any) *Intent {
	if len(defaults) == 0 {
		return i
	}
	clone := *i
	clone.dispatchOptions = merge.Maps(i.dispatchOptions, defaults)
	return &clone
}

// LocalPolicies returns a copy of the local policy stack captured at enqueue,
// outermost first.
func (i *Intent) LocalPolicies() []Policy {
	if len(i.localPolicies) == 0 {
		return nil
	}
	return append([]Policy(nil), i.localPolicies...)
}

// PassesLocalPolicies re-evaluates the captured local policy stack,
// innermost first, short-circuiting on the first refusal. Scopes consult it
// during flush so a captured intent stays subject to the policies of the
// region that produced it.
func (i *Intent) PassesLocalPolicies(ctx context.Context) bool {
	for idx := len(i.localPolicies) - 1; idx >= 0; idx-- {
		if !i.localPolicies[idx].Allows(ctx, i) {
			return false
		}
	}
	return true
}

// String renders the intent as a call signature for logs and errors.
func (i *Intent) String() string {
	if i == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(i.args)+len(i.kwargs))
	for _, arg := range i.args {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}
	keys := make([]string, 0, len(i.kwargs))
	for key := range i.kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, i.kwargs[key]))
	}
	return fmt.Sprintf("%s(%s)", i.name, strings.Join(parts, ", "))
}

type intentRecord struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Origin     string         `json:"origin,omitempty"`
	Args       []any          `json:"args,omitempty"`
	Kwargs     map[string]any `json:"kwargs,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// MarshalJSON renders an audit record of the intent. The task itself is not
// serialized; its derived name stands in.
func (i *Intent) MarshalJSON() ([]byte, error) {
	return json.Marshal(intentRecord{
		ID:         i.id.String(),
		Name:       i.name,
		Origin:     i.origin,
		Args:       copyArgs(i.args),
		Kwargs:     copyValues(i.kwargs),
		Options:    copyValues(i.dispatchOptions),
		EnqueuedAt: i.createdAt,
	})
}

func taskName(task any) string {
	if task == nil {
		return "<nil>"
	}
	if named, ok := task.(interface{ Name() string }); ok {
		if name := named.Name(); name != "" {
			return name
		}
	}
	if name, ok := task.(string); ok && name != "" {
		return name
	}
	if fn := reflect.ValueOf(task); fn.Kind() == reflect.Func {
		if rf := runtime.FuncForPC(fn.Pointer()); rf != nil && rf.Name() != "" {
			return rf.Name()
		}
	}
	return fmt.Sprintf("%T", task)
}

func copyArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	return append([]any(nil), args...)
}

func copyValues(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
