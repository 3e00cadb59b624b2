package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/loom/internal/domain"
)

// Archive receives frozen runs when they reach a terminal status. Run
// history implements it.
type Archive interface {
	Append(run *domain.Run)
}

// Store is the single source of truth for the current run. Single writer
// (the coordinator), many readers (the presentation layer); every mutation
// that touches derived fields is applied atomically from a reader's point of
// view, and subscribers always see a consistent frozen snapshot.
type Store struct {
	logger  *slog.Logger
	archive Archive

	mu      sync.RWMutex
	current *domain.Run
	resumed *sync.Cond

	subs *subscriptions
}

func NewStore(archive Archive, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		logger:  logger.With("component", "state-store"),
		archive: archive,
		subs:    newSubscriptions(logger),
	}
	s.resumed = sync.NewCond(&s.mu)
	return s
}

// StartRun creates the current run with one pending state per node id.
// Fails with ErrAlreadyRunning while another run holds the slot.
func (s *Store) StartRun(workflowID string, nodeIDs []string) (*domain.Run, error) {
	s.mu.Lock()

	if s.current != nil {
		s.mu.Unlock()
		return nil, domain.ErrAlreadyRunning
	}

	run := &domain.Run{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Status:     domain.RunStatusRunning,
		StartedAt:  time.Now(),
		NodeStates: make(map[string]*domain.NodeRunState, len(nodeIDs)),
		TotalNodes: len(nodeIDs),
	}
	for _, id := range nodeIDs {
		run.NodeStates[id] = &domain.NodeRunState{
			NodeID: id,
			Status: domain.NodeStatusPending,
		}
	}
	run.Recount()
	s.current = run

	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("run started",
		"run_id", run.ID,
		"workflow_id", workflowID,
		"total_nodes", len(nodeIDs))

	s.subs.notify(snapshot)
	return snapshot, nil
}

// UpdateNodeStatus applies a legal node transition and merges the patch into
// the node's state, recomputing the run counters in the same critical
// section. Unknown nodes, illegal transitions, and a missing current run are
// all silent no-ops; the editing surface races against the run loop and must
// never be crashed by a stale update.
func (s *Store) UpdateNodeStatus(nodeID string, status domain.NodeStatus, patch domain.StatePatch) {
	s.mu.Lock()

	if s.current == nil {
		s.mu.Unlock()
		return
	}

	ns, exists := s.current.NodeStates[nodeID]
	if !exists || !legalNodeTransition(ns.Status, status) {
		s.mu.Unlock()
		return
	}

	ns.Status = status
	applyPatch(ns, patch)
	s.current.Recount()

	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.subs.notify(snapshot)
}

// Pause flips the current run from running to paused and reports whether
// the transition happened. Any other state is a no-op, including the absence
// of a run.
func (s *Store) Pause() bool {
	return s.transition(domain.RunStatusRunning, domain.RunStatusPaused)
}

// Resume flips the current run from paused back to running and wakes any
// coordinator blocked on WaitWhilePaused.
func (s *Store) Resume() bool {
	if !s.transition(domain.RunStatusPaused, domain.RunStatusRunning) {
		return false
	}
	s.mu.Lock()
	s.resumed.Broadcast()
	s.mu.Unlock()
	return true
}

func (s *Store) transition(from, to domain.RunStatus) bool {
	s.mu.Lock()

	if s.current == nil || s.current.Status != from {
		s.mu.Unlock()
		return false
	}

	s.current.Status = to
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("run status changed", "from", from, "to", to)
	s.subs.notify(snapshot)
	return true
}

// Complete stamps the terminal status, forces progress to 100, archives the
// frozen run, and clears the current slot. No-op without a current run.
func (s *Store) Complete(success bool) {
	status := domain.RunStatusCompleted
	if !success {
		status = domain.RunStatusFailed
	}
	s.finish(status, false)
}

// Cancel archives the run as cancelled. Nodes that never started are marked
// skipped so the frozen snapshot is self-describing.
func (s *Store) Cancel() {
	s.finish(domain.RunStatusCancelled, true)
}

func (s *Store) finish(status domain.RunStatus, skipPending bool) {
	s.mu.Lock()

	if s.current == nil {
		s.mu.Unlock()
		return
	}

	run := s.current
	now := time.Now()
	run.Status = status
	run.FinishedAt = &now
	run.DurationMs = now.Sub(run.StartedAt).Milliseconds()

	if skipPending {
		for _, ns := range run.NodeStates {
			if ns.Status == domain.NodeStatusPending {
				ns.Status = domain.NodeStatusSkipped
			}
		}
	}

	run.Recount()
	run.ProgressPercent = 100

	frozen, err := domain.CloneRun(run)
	if err != nil {
		s.logger.Error("failed to freeze run snapshot", "run_id", run.ID, "error", err)
		frozen = domain.CopyRun(run)
	}

	s.current = nil
	s.resumed.Broadcast()
	s.mu.Unlock()

	s.logger.Info("run finished",
		"run_id", frozen.ID,
		"workflow_id", frozen.WorkflowID,
		"status", status,
		"duration_ms", frozen.DurationMs,
		"completed_nodes", frozen.CompletedNodes,
		"failed_nodes", frozen.FailedNodes)

	if s.archive != nil {
		s.archive.Append(frozen)
	}
	s.subs.notify(nil)
}

// Clear drops the current run without archiving it. Used for a reset before
// a run has produced anything worth keeping.
func (s *Store) Clear() {
	s.mu.Lock()

	if s.current == nil {
		s.mu.Unlock()
		return
	}

	id := s.current.ID
	s.current = nil
	s.resumed.Broadcast()
	s.mu.Unlock()

	s.logger.Info("run cleared", "run_id", id)
	s.subs.notify(nil)
}

// CurrentRun returns a frozen snapshot of the current run, or nil when the
// slot is empty.
func (s *Store) CurrentRun() *domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsRunning reports whether a run currently owns the slot, paused included.
func (s *Store) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Status returns the current run status, or idle when no run is current.
func (s *Store) Status() domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return domain.RunStatusIdle
	}
	return s.current.Status
}

// Progress returns the current run's progress percentage, 0 without a run.
func (s *Store) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return 0
	}
	return s.current.ProgressPercent
}

// StatusOf returns a node's status within the current run, defaulting to
// pending for unknown nodes so callers never branch on a missing value.
func (s *Store) StatusOf(nodeID string) domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return domain.NodeStatusPending
	}
	return s.current.StateOf(nodeID).Status
}

// Subscribe registers a listener that immediately receives the current
// snapshot and is invoked again after every mutation. The returned func
// removes the subscription.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	return s.subs.add(listener, snapshot)
}

// WaitWhilePaused blocks while the current run is paused and reports whether
// the run is still current and running afterwards. Returns false when the
// run was cancelled, cleared, or the context ended.
func (s *Store) WaitWhilePaused(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx != nil {
		stop := context.AfterFunc(ctx, func() {
			s.mu.Lock()
			s.resumed.Broadcast()
			s.mu.Unlock()
		})
		defer stop()
	}

	for s.current != nil && s.current.Status == domain.RunStatusPaused {
		if ctx != nil && ctx.Err() != nil {
			return false
		}
		s.resumed.Wait()
	}

	if ctx != nil && ctx.Err() != nil {
		return false
	}
	return s.current != nil && s.current.Status == domain.RunStatusRunning
}

// snapshotLocked returns a detached copy of the current run, never nil while
// a run holds the slot: callers treat nil as "no run", so a failed deep clone
// degrades to a structural copy rather than masquerading as absence.
func (s *Store) snapshotLocked() *domain.Run {
	if s.current == nil {
		return nil
	}

	frozen, err := domain.CloneRun(s.current)
	if err != nil {
		s.logger.Error("failed to clone run snapshot", "run_id", s.current.ID, "error", err)
		return domain.CopyRun(s.current)
	}
	return frozen
}

func legalNodeTransition(from, to domain.NodeStatus) bool {
	switch from {
	case domain.NodeStatusPending:
		return to == domain.NodeStatusRunning || to == domain.NodeStatusSkipped
	case domain.NodeStatusRunning:
		return to == domain.NodeStatusCompleted || to == domain.NodeStatusFailed
	}
	return false
}

func applyPatch(ns *domain.NodeRunState, patch domain.StatePatch) {
	if patch.StartedAt != nil {
		ns.StartedAt = patch.StartedAt
	}
	if patch.FinishedAt != nil {
		ns.FinishedAt = patch.FinishedAt
	}
	if patch.DurationMs != 0 {
		ns.DurationMs = patch.DurationMs
	}
	if patch.Output != nil {
		ns.Output = patch.Output
	}
	if patch.Error != "" {
		ns.Error = patch.Error
	}
	if patch.Performance != nil {
		ns.Performance = patch.Performance
	}
}
