package state

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/loomworks/loom/internal/domain"
)

// Listener observes the state store. It receives the full frozen snapshot of
// the current run, or nil when the slot is empty. Snapshots are already
// detached copies; listeners may retain them.
type Listener func(run *domain.Run)

type subscriptions struct {
	logger *slog.Logger

	mu        sync.RWMutex
	listeners map[string]Listener
}

func newSubscriptions(logger *slog.Logger) *subscriptions {
	return &subscriptions{
		logger:    logger.With("component", "state-subscriptions"),
		listeners: make(map[string]Listener),
	}
}

// add registers the listener, delivers the initial snapshot, and returns the
// unsubscribe handle.
func (s *subscriptions) add(listener Listener, initial *domain.Run) func() {
	id := uuid.New().String()

	s.mu.Lock()
	s.listeners[id] = listener
	total := len(s.listeners)
	s.mu.Unlock()

	s.logger.Debug("listener subscribed", "subscriber_id", id, "total_subscribers", total)
	s.safeCall(listener, initial)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
		s.logger.Debug("listener unsubscribed", "subscriber_id", id)
	}
}

// notify delivers the snapshot to every listener in registration-independent
// order. Delivery is synchronous so listeners observe mutations in the order
// they happened.
func (s *subscriptions) notify(run *domain.Run) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, listener := range listeners {
		s.safeCall(listener, run)
	}
}

func (s *subscriptions) safeCall(listener Listener, run *domain.Run) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state listener panicked", "panic", r)
		}
	}()
	listener(run)
}
