package events

import (
	"log/slog"
	"sync"

	"github.com/loomworks/loom/internal/domain"
)

// Manager fans typed lifecycle events out to registered handlers. It
// replaces the untyped global event bus the presentation layer used to poll:
// observers register for exactly the events they care about and the
// coordinator publishes as the run advances. Handlers run on their own
// goroutines and panics are contained.
type Manager struct {
	logger *slog.Logger

	mu                    sync.RWMutex
	runStartedHandlers    []func(*domain.RunStartedEvent)
	runCompletedHandlers  []func(*domain.RunCompletedEvent)
	runFailedHandlers     []func(*domain.RunFailedEvent)
	runCancelledHandlers  []func(*domain.RunCancelledEvent)
	runPausedHandlers     []func(*domain.RunPausedEvent)
	runResumedHandlers    []func(*domain.RunResumedEvent)
	nodeStartedHandlers   []func(*domain.NodeStartedEvent)
	nodeCompletedHandlers []func(*domain.NodeCompletedEvent)
	nodeErrorHandlers     []func(*domain.NodeErrorEvent)
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger: logger.With("component", "event-manager"),
	}
}

func (m *Manager) OnRunStarted(handler func(*domain.RunStartedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runStartedHandlers = append(m.runStartedHandlers, handler)
}

func (m *Manager) OnRunCompleted(handler func(*domain.RunCompletedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCompletedHandlers = append(m.runCompletedHandlers, handler)
}

func (m *Manager) OnRunFailed(handler func(*domain.RunFailedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runFailedHandlers = append(m.runFailedHandlers, handler)
}

func (m *Manager) OnRunCancelled(handler func(*domain.RunCancelledEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCancelledHandlers = append(m.runCancelledHandlers, handler)
}

func (m *Manager) OnRunPaused(handler func(*domain.RunPausedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runPausedHandlers = append(m.runPausedHandlers, handler)
}

func (m *Manager) OnRunResumed(handler func(*domain.RunResumedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runResumedHandlers = append(m.runResumedHandlers, handler)
}

func (m *Manager) OnNodeStarted(handler func(*domain.NodeStartedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeStartedHandlers = append(m.nodeStartedHandlers, handler)
}

func (m *Manager) OnNodeCompleted(handler func(*domain.NodeCompletedEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeCompletedHandlers = append(m.nodeCompletedHandlers, handler)
}

func (m *Manager) OnNodeError(handler func(*domain.NodeErrorEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeErrorHandlers = append(m.nodeErrorHandlers, handler)
}

func (m *Manager) PublishRunStarted(event *domain.RunStartedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunStartedEvent){}, m.runStartedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishRunCompleted(event *domain.RunCompletedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunCompletedEvent){}, m.runCompletedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishRunFailed(event *domain.RunFailedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunFailedEvent){}, m.runFailedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishRunCancelled(event *domain.RunCancelledEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunCancelledEvent){}, m.runCancelledHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishRunPaused(event *domain.RunPausedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunPausedEvent){}, m.runPausedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishRunResumed(event *domain.RunResumedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.RunResumedEvent){}, m.runResumedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishNodeStarted(event *domain.NodeStartedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.NodeStartedEvent){}, m.nodeStartedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishNodeCompleted(event *domain.NodeCompletedEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.NodeCompletedEvent){}, m.nodeCompletedHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) PublishNodeError(event *domain.NodeErrorEvent) {
	m.mu.RLock()
	handlers := append([]func(*domain.NodeErrorEvent){}, m.nodeErrorHandlers...)
	m.mu.RUnlock()

	for _, handler := range handlers {
		h := handler
		go m.safeCall(func() { h(event) })
	}
}

func (m *Manager) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panicked", "panic", r)
		}
	}()
	fn()
}
