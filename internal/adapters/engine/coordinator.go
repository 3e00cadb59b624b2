package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/loomworks/loom/internal/adapters/events"
	"github.com/loomworks/loom/internal/adapters/graph"
	"github.com/loomworks/loom/internal/adapters/state"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Coordinator walks a graph's execution order, dispatching each node to its
// kind executor and sequencing every status change through the state store.
// Execution is single-threaded and cooperative: one node at a time, pause and
// cancel observed only at loop boundaries, so an in-flight executor call
// always settles before control requests take effect.
type Coordinator struct {
	store       *state.Store
	registry    ports.ExecutorRegistry
	events      *events.Manager
	logger      *slog.Logger
	nodeTimeout time.Duration
}

func NewCoordinator(store *state.Store, registry ports.ExecutorRegistry, eventManager *events.Manager, nodeTimeout time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		store:       store,
		registry:    registry,
		events:      eventManager,
		logger:      logger.With("component", "coordinator"),
		nodeTimeout: nodeTimeout,
	}
}

// Run executes the graph to completion. Node failures are recorded and the
// walk continues; the only error Run itself returns is ErrAlreadyRunning
// from the store. An empty graph is a warning, not a run.
func (c *Coordinator) Run(ctx context.Context, g *graph.Graph) error {
	if g.Len() == 0 {
		c.logger.Warn("refusing to run empty graph", "workflow_id", g.ID())
		return nil
	}

	order := g.ExecutionOrder()

	run, err := c.store.StartRun(g.ID(), g.NodeIDs())
	if err != nil {
		return err
	}

	c.publishRunStarted(run)

	// Seed payload; each completed node's output is folded in under its id
	// so downstream nodes can read upstream results.
	input := map[string]interface{}{"trigger": true}

	interrupted := false
	for _, nodeID := range order {
		if !c.store.WaitWhilePaused(ctx) {
			interrupted = true
			break
		}

		node, exists := g.Node(nodeID)
		if !exists {
			continue
		}

		c.executeNode(ctx, run.ID, node, input)
	}

	if interrupted {
		if ctx.Err() != nil && c.store.IsRunning() {
			c.Stop()
		}
		return nil
	}

	current := c.store.CurrentRun()
	if current == nil {
		return nil
	}

	success := current.FailedNodes == 0
	c.store.Complete(success)
	c.publishRunFinished(current, success)
	return nil
}

// Pause requests a cooperative pause. The run loop blocks before starting
// the next node until Resume or Stop.
func (c *Coordinator) Pause() {
	run := c.store.CurrentRun()
	if !c.store.Pause() || run == nil {
		return
	}

	c.events.PublishRunPaused(&domain.RunPausedEvent{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		PausedAt:   time.Now(),
	})
}

// Resume continues a paused run from the next unstarted node.
func (c *Coordinator) Resume() {
	run := c.store.CurrentRun()
	if !c.store.Resume() || run == nil {
		return
	}

	c.events.PublishRunResumed(&domain.RunResumedEvent{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		ResumedAt:  time.Now(),
	})
}

// Stop cancels the current run. The archived snapshot marks unstarted nodes
// skipped; a node already executing settles first and its late status update
// lands on an empty slot as a no-op.
func (c *Coordinator) Stop() {
	run := c.store.CurrentRun()
	if run == nil {
		return
	}

	c.store.Cancel()
	c.events.PublishRunCancelled(&domain.RunCancelledEvent{
		RunID:       run.ID,
		WorkflowID:  run.WorkflowID,
		CancelledAt: time.Now(),
	})
}

func (c *Coordinator) executeNode(ctx context.Context, runID string, node domain.Node, input map[string]interface{}) {
	startedAt := time.Now()
	c.store.UpdateNodeStatus(node.ID, domain.NodeStatusRunning, domain.StatePatch{
		StartedAt: &startedAt,
	})
	c.events.PublishNodeStarted(&domain.NodeStartedEvent{
		RunID:     runID,
		NodeID:    node.ID,
		Kind:      node.Kind,
		StartedAt: startedAt,
	})

	result, err := c.dispatch(ctx, node, input)

	// Detach the output from the live input data before recording it or
	// folding it back in: executors are free to embed the input map in their
	// output, and without a deep copy the accumulated data would become
	// self-referential and unserializable.
	var output interface{}
	if err == nil {
		output, err = domain.CloneValue(result.Output)
		if err != nil {
			err = fmt.Errorf("node output not serializable: %w", err)
		}
	}

	finishedAt := time.Now()
	durationMs := finishedAt.Sub(startedAt).Milliseconds()

	if err != nil {
		execErr := domain.NewNodeExecutionError(node.ID, node.Kind, err)
		c.logger.Error("node execution failed",
			"run_id", runID,
			"node_id", node.ID,
			"kind", node.Kind,
			"duration_ms", durationMs,
			"error", err.Error())

		c.store.UpdateNodeStatus(node.ID, domain.NodeStatusFailed, domain.StatePatch{
			FinishedAt: &finishedAt,
			DurationMs: durationMs,
			Error:      execErr.Error(),
		})
		c.events.PublishNodeError(&domain.NodeErrorEvent{
			RunID:    runID,
			NodeID:   node.ID,
			Kind:     node.Kind,
			Error:    execErr.Error(),
			FailedAt: finishedAt,
		})
		return
	}

	c.store.UpdateNodeStatus(node.ID, domain.NodeStatusCompleted, domain.StatePatch{
		FinishedAt:  &finishedAt,
		DurationMs:  durationMs,
		Output:      output,
		Performance: result.Performance,
	})
	c.events.PublishNodeCompleted(&domain.NodeCompletedEvent{
		RunID:      runID,
		NodeID:     node.ID,
		Kind:       node.Kind,
		DurationMs: durationMs,
		Output:     output,
	})

	input[node.ID] = output
}

// dispatch resolves the executor by kind and invokes it with panic recovery
// and the configured per-node timeout. An unknown kind degrades to a soft
// output on the node rather than a failure of the run.
func (c *Coordinator) dispatch(ctx context.Context, node domain.Node, input map[string]interface{}) (result *ports.ExecutionResult, err error) {
	executor, exists := c.registry.Get(node.Kind)
	if !exists {
		c.logger.Warn("unknown node kind", "node_id", node.ID, "kind", node.Kind)
		return &ports.ExecutionResult{
			Output: map[string]interface{}{
				"processed": false,
				"error":     "unknown node kind",
			},
		}, nil
	}

	if c.nodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.nodeTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("node executor panicked",
				"node_id", node.ID,
				"kind", node.Kind,
				"panic", r,
				"stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()

	result, err = executor.Execute(ctx, node, input)
	if err == nil && result == nil {
		result = &ports.ExecutionResult{}
	}
	return result, err
}

func (c *Coordinator) publishRunStarted(run *domain.Run) {
	c.events.PublishRunStarted(&domain.RunStartedEvent{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		StartedAt:  run.StartedAt,
		TotalNodes: run.TotalNodes,
	})
}

func (c *Coordinator) publishRunFinished(run *domain.Run, success bool) {
	now := time.Now()
	if success {
		c.events.PublishRunCompleted(&domain.RunCompletedEvent{
			RunID:          run.ID,
			WorkflowID:     run.WorkflowID,
			CompletedAt:    now,
			DurationMs:     now.Sub(run.StartedAt).Milliseconds(),
			CompletedNodes: run.CompletedNodes,
			FailedNodes:    run.FailedNodes,
		})
		return
	}
	c.events.PublishRunFailed(&domain.RunFailedEvent{
		RunID:       run.ID,
		WorkflowID:  run.WorkflowID,
		FailedAt:    now,
		FailedNodes: run.FailedNodes,
	})
}
