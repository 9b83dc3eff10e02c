package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnauthorized is thrown by tool handlers when no caller identity is
// present. The dispatcher gates on identity as well; tools re-check so
// they stay safe if invoked from a context that bypasses the transport.
var ErrUnauthorized = errors.New("UNAUTHORIZED")

// ErrRateLimited is returned when a caller has exhausted the
// per-window invocation budget.
var ErrRateLimited = errors.New("RATE_LIMITED")

// Handler executes a named tool on behalf of an authenticated caller.
type Handler func(ctx context.Context, userID string, args json.RawMessage) (any, error)

// Registry maps tool names to handlers. Built once at startup,
// immutable afterwards.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Duplicate names fail fast rather than
// silently shadowing an earlier registration.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return errors.New("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %s: handler is required", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tool %s: already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

// Resolve looks up a handler by name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	return len(r.handlers)
}
