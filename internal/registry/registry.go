// Package registry maps stable string names to task entry points. A spawned
// task process resolves the names recorded in a serialized work unit through
// this registry instead of deserializing code.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TaskContext carries the per-task execution context: the dense TaskId of
// this array member and the keyword arguments shared by every member.
type TaskContext struct {
	TaskID int
	Kwargs map[string]any
}

// TaskFunc is one unit of work in a dispatched function list.
type TaskFunc func(ctx context.Context, task TaskContext) error

// Registry manages named task functions.
type Registry struct {
	funcs map[string]TaskFunc
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]TaskFunc),
	}
}

// Register registers a function under a stable name. Registering the same
// name twice replaces the earlier entry.
func (r *Registry) Register(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Resolve returns the function registered under name.
func (r *Registry) Resolve(name string) (TaskFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the process-wide registry used by the task entry point.
// Workflow drivers register their functions here before dispatching.
var DefaultRegistry = NewRegistry()

// Register registers a function in the default registry.
func Register(name string, fn TaskFunc) {
	DefaultRegistry.Register(name, fn)
}

// Resolve resolves a name from the default registry.
func Resolve(name string) (TaskFunc, error) {
	return DefaultRegistry.Resolve(name)
}
