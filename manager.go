package loom

import (
	"context"
	"log/slog"

	"github.com/loomworks/loom/internal/adapters/engine"
	"github.com/loomworks/loom/internal/adapters/events"
	"github.com/loomworks/loom/internal/adapters/executors"
	"github.com/loomworks/loom/internal/adapters/graph"
	"github.com/loomworks/loom/internal/adapters/history"
	"github.com/loomworks/loom/internal/adapters/state"
	"github.com/loomworks/loom/internal/adapters/storage"
	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Engine wires the graph, state store, coordinator, history, and optional
// persistence into one dependency-injected object. Construct it once at
// application start and pass it where needed; there is no ambient global
// state.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	history     *history.History
	store       *state.Store
	registry    *executors.Registry
	events      *events.Manager
	coordinator *engine.Coordinator

	kv        ports.StoragePort
	workflows *storage.WorkflowStore
}

func newEngine(cfg *config.Config, comp ports.CompletionPort, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = cfg.Logging.Logger()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		history:  history.New(cfg.History.Limit, logger),
		registry: executors.NewDefaultRegistry(comp, logger),
		events:   events.NewManager(logger),
	}

	if cfg.Storage.Enabled {
		kv, err := storage.NewBadgerStore(cfg.Storage.DataDir, logger)
		if err != nil {
			return nil, err
		}
		e.kv = kv
		e.workflows = storage.NewWorkflowStore(kv, logger)
	}

	e.store = state.NewStore(e.archive(), logger)
	e.coordinator = engine.NewCoordinator(e.store, e.registry, e.events, cfg.Execution.NodeTimeoutDuration(), logger)
	return e, nil
}

// archive fans terminal runs out to the in-memory history and, when
// persistence is enabled, to the workflow store.
func (e *Engine) archive() state.Archive {
	if e.workflows == nil {
		return e.history
	}
	return &archiveFanout{engine: e}
}

type archiveFanout struct {
	engine *Engine
}

func (a *archiveFanout) Append(run *domain.Run) {
	a.engine.history.Append(run)
	if err := a.engine.workflows.ArchiveRun(run); err != nil {
		a.engine.logger.Error("failed to persist archived run",
			"run_id", run.ID,
			"workflow_id", run.WorkflowID,
			"error", err)
	}
}

// NewGraph creates an empty workflow graph. An empty id gets a fresh one.
func (e *Engine) NewGraph(id string) *Graph {
	return graph.New(id, e.logger)
}

// RegisterExecutor adds an executor for a new node kind. Registering a kind
// that is already taken fails, keeping dispatch unambiguous.
func (e *Engine) RegisterExecutor(executor NodeExecutor) error {
	return e.registry.Register(executor)
}

// Run executes the graph to completion, blocking until the run reaches a
// terminal status or is interrupted. Node failures never abort the run; the
// only error returned is ErrAlreadyRunning. Callers driving a UI are
// expected to check IsRunning first and run on their own goroutine.
func (e *Engine) Run(ctx context.Context, g *Graph) error {
	return e.coordinator.Run(ctx, g)
}

// Pause requests a cooperative pause before the next node starts.
func (e *Engine) Pause() {
	e.coordinator.Pause()
}

// Resume continues a paused run from the next unstarted node.
func (e *Engine) Resume() {
	e.coordinator.Resume()
}

// Stop cancels the current run and archives it as cancelled.
func (e *Engine) Stop() {
	e.coordinator.Stop()
}

// Clear drops the current run without archiving it.
func (e *Engine) Clear() {
	e.store.Clear()
}

// CurrentRun returns a frozen snapshot of the current run, or nil.
func (e *Engine) CurrentRun() *Run {
	return e.store.CurrentRun()
}

// IsRunning reports whether a run currently owns the slot, paused included.
func (e *Engine) IsRunning() bool {
	return e.store.IsRunning()
}

// Progress returns the current run's progress percentage.
func (e *Engine) Progress() float64 {
	return e.store.Progress()
}

// NodeStatus returns a node's status within the current run, pending when
// unknown.
func (e *Engine) NodeStatus(nodeID string) NodeStatus {
	return e.store.StatusOf(nodeID)
}

// Subscribe registers a snapshot listener; it fires immediately with the
// current snapshot and after every mutation. The returned func unsubscribes.
func (e *Engine) Subscribe(listener Listener) func() {
	return e.store.Subscribe(listener)
}

// Events exposes typed lifecycle event registration
// (OnRunStarted, OnNodeCompleted, ...).
func (e *Engine) Events() *events.Manager {
	return e.events
}

// History lists archived runs, most recent first.
func (e *Engine) History() []*Run {
	return e.history.List()
}

// SaveGraph persists the graph snapshot. Requires storage to be enabled.
func (e *Engine) SaveGraph(g *Graph) error {
	if e.workflows == nil {
		return domain.ErrInvalidConfig
	}
	return e.workflows.SaveGraph(g.Snapshot())
}

// LoadGraph rebuilds a persisted graph by workflow id.
func (e *Engine) LoadGraph(workflowID string) (*Graph, error) {
	if e.workflows == nil {
		return nil, domain.ErrInvalidConfig
	}

	snapshot, err := e.workflows.LoadGraph(workflowID)
	if err != nil {
		return nil, err
	}
	return graph.FromSnapshot(snapshot, e.logger), nil
}

// DeleteGraph removes a persisted graph.
func (e *Engine) DeleteGraph(workflowID string) error {
	if e.workflows == nil {
		return domain.ErrInvalidConfig
	}
	return e.workflows.DeleteGraph(workflowID)
}

// ListGraphs returns every persisted graph snapshot.
func (e *Engine) ListGraphs() ([]GraphSnapshot, error) {
	if e.workflows == nil {
		return nil, domain.ErrInvalidConfig
	}
	return e.workflows.ListGraphs()
}

// LoadRuns returns the archived runs persisted for a workflow id.
func (e *Engine) LoadRuns(workflowID string) ([]*Run, error) {
	if e.workflows == nil {
		return nil, domain.ErrInvalidConfig
	}
	return e.workflows.LoadRuns(workflowID)
}

// Close releases the persistence layer, if any.
func (e *Engine) Close() error {
	if e.kv == nil {
		return nil
	}
	return e.kv.Close()
}
