package airlock

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps stable task names to callables so intents can carry a name
// instead of a function value. Producers enqueue the name; the side that
// finally dispatches resolves it back to code. Queue-backed deployments keep
// one registry on the consumer, in-process deployments use the package-level
// one consulted by SyncExecutor.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]any
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]any)}
}

// Register stores task under name. The task must be one of the callable
// shapes SyncExecutor understands. Duplicate names are rejected so two
// packages cannot silently claim the same task.
func (r *Registry) Register(name string, task any) error {
	if name == "" {
		return fmt.Errorf("airlock: task name must not be empty")
	}
	if task == nil {
		return fmt.Errorf("airlock: task %q is nil", name)
	}
	if !callable(task) {
		return fmt.Errorf("%w: cannot register %T as %q", ErrNotCallable, task, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks == nil {
		r.tasks = make(map[string]any)
	}
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("airlock: task %q already registered", name)
	}
	r.tasks[name] = task
	return nil
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[name]
	return task, ok
}

// Names returns the registered task names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Executor returns a synchronous dispatcher that resolves string-named
// intents against this registry before invoking them.
func (r *Registry) Executor() Executor {
	return func(ctx context.Context, intent *Intent) error {
		return runTask(ctx, r.resolve(intent.Task()), intent)
	}
}

func (r *Registry) resolve(task any) any {
	name, ok := task.(string)
	if !ok {
		return task
	}
	if resolved, found := r.Lookup(name); found {
		return resolved
	}
	return task
}

var defaultRegistry = NewRegistry()

// RegisterTask stores task in the process-wide registry, making the name
// dispatchable by SyncExecutor.
func RegisterTask(name string, task any) error {
	return defaultRegistry.Register(name, task)
}

// LookupTask resolves name against the process-wide registry.
func LookupTask(name string) (any, bool) {
	return defaultRegistry.Lookup(name)
}

// TaskNames lists the process-wide registry contents sorted alphabetically.
func TaskNames() []string {
	return defaultRegistry.Names()
}
