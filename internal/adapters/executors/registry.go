package executors

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// RegistrationError describes a rejected executor registration.
type RegistrationError struct {
	Kind   domain.NodeKind
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("executor registration for kind %q: %s", e.Kind, e.Reason)
}

// Registry maps node kinds to executors. The coordinator resolves every node
// through it, so supporting a new kind is a registration rather than a new
// switch case in the run loop.
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	executors map[domain.NodeKind]ports.NodeExecutor
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:    logger.With("component", "executor-registry"),
		executors: make(map[domain.NodeKind]ports.NodeExecutor),
	}
}

// NewDefaultRegistry returns a registry preloaded with the builtin executors
// for every standard node kind.
func NewDefaultRegistry(completion ports.CompletionPort, logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, executor := range []ports.NodeExecutor{
		&Trigger{},
		NewAgent(completion, logger),
		&Logic{},
		NewAction(logger),
		&Integration{},
	} {
		if err := r.Register(executor); err != nil {
			r.logger.Error("builtin executor registration failed", "kind", executor.Kind(), "error", err)
		}
	}
	return r
}

func (r *Registry) Register(executor ports.NodeExecutor) error {
	if executor == nil {
		return &RegistrationError{Reason: "executor cannot be nil"}
	}

	kind := executor.Kind()
	if kind == "" {
		return &RegistrationError{Kind: kind, Reason: "kind cannot be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[kind]; exists {
		r.logger.Warn("executor registration conflict", "kind", kind)
		return &RegistrationError{Kind: kind, Reason: "kind already registered"}
	}

	r.executors[kind] = executor
	r.logger.Debug("executor registered", "kind", kind)
	return nil
}

func (r *Registry) Get(kind domain.NodeKind) (ports.NodeExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	executor, exists := r.executors[kind]
	return executor, exists
}

func (r *Registry) Kinds() []domain.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.NodeKind, 0, len(r.executors))
	for kind := range r.executors {
		kinds = append(kinds, kind)
	}
	return kinds
}
