// Package loom provides an embeddable workflow execution engine for
// node-graph automations built in a visual editor.
//
// A workflow is a graph of typed nodes (triggers, AI agents, logic branches,
// actions, integrations) joined by directed edges. Loom computes a
// deterministic execution order over the graph, walks it one node at a time,
// tracks per-node and per-run status in an observable state store, and
// archives every finished run:
//   - Pluggable node executors dispatched by node kind
//   - Pause, resume, and cancel with cooperative semantics
//   - Snapshot subscriptions and typed lifecycle events for UIs
//   - Optional persistence of graphs and run archives across sessions
//
// Basic usage:
//
//	engine, _ := loom.New(nil, logger)
//	defer engine.Close()
//
//	g := engine.NewGraph("my-workflow")
//	start := g.AddNode(loom.Node{Kind: loom.KindTrigger, Title: "Start"})
//	summarize := g.AddNode(loom.Node{Kind: loom.KindAgent, Config: map[string]interface{}{
//	    "systemPrompt": "Summarize the input.",
//	    "model":        "gpt-4o-mini",
//	}})
//	g.AddEdge(start, summarize)
//
//	engine.Run(context.Background(), g)
//	for _, run := range engine.History() {
//	    fmt.Println(run.ID, run.Status, run.ProgressPercent)
//	}
package loom

import (
	"log/slog"

	"github.com/loomworks/loom/internal/adapters/completion"
	"github.com/loomworks/loom/internal/adapters/graph"
	"github.com/loomworks/loom/internal/adapters/state"
	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Config is the root engine configuration, loadable from loom.toml.
type Config = config.Config

// LoadConfig reads loom.toml plus any LOOM_ENV overlay and finalizes it.
func LoadConfig() (*Config, error) {
	return config.Load()
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return config.Default()
}

// Node is one configured step in a workflow graph.
type Node = domain.Node

// NodeKind selects the executor behavior for a node.
type NodeKind = domain.NodeKind

// Edge is a directed dependency arc between two node ids.
type Edge = domain.Edge

// Graph holds one workflow's nodes and edges and answers the execution
// ordering query.
type Graph = graph.Graph

// GraphSnapshot is the serializable form of a graph.
type GraphSnapshot = domain.GraphSnapshot

// Run is one execution attempt of a workflow graph.
type Run = domain.Run

// RunStatus is the lifecycle state of a run.
type RunStatus = domain.RunStatus

// NodeRunState tracks one node's status and result within a run.
type NodeRunState = domain.NodeRunState

// NodeStatus is the lifecycle state of a node within a run.
type NodeStatus = domain.NodeStatus

// Performance carries informational per-node execution metrics.
type Performance = domain.Performance

// Listener observes state store snapshots.
type Listener = state.Listener

// NodeExecutor produces a node's output from its configuration and input.
type NodeExecutor = ports.NodeExecutor

// ExecutionResult is the outcome of a single node execution.
type ExecutionResult = ports.ExecutionResult

// CompletionPort is the AI-completion capability agent nodes delegate to.
type CompletionPort = ports.CompletionPort

// Message is one turn of a model conversation.
type Message = ports.Message

// Completion is the settled result of a model call.
type Completion = ports.Completion

// Lifecycle event payloads delivered through Events().
type (
	RunStartedEvent    = domain.RunStartedEvent
	RunCompletedEvent  = domain.RunCompletedEvent
	RunFailedEvent     = domain.RunFailedEvent
	RunCancelledEvent  = domain.RunCancelledEvent
	RunPausedEvent     = domain.RunPausedEvent
	RunResumedEvent    = domain.RunResumedEvent
	NodeStartedEvent   = domain.NodeStartedEvent
	NodeCompletedEvent = domain.NodeCompletedEvent
	NodeErrorEvent     = domain.NodeErrorEvent
)

// Node kinds understood by the builtin executors.
const (
	KindTrigger     = domain.KindTrigger
	KindAgent       = domain.KindAgent
	KindAction      = domain.KindAction
	KindLogic       = domain.KindLogic
	KindIntegration = domain.KindIntegration
)

// Run statuses.
const (
	RunStatusIdle      = domain.RunStatusIdle
	RunStatusRunning   = domain.RunStatusRunning
	RunStatusPaused    = domain.RunStatusPaused
	RunStatusCompleted = domain.RunStatusCompleted
	RunStatusFailed    = domain.RunStatusFailed
	RunStatusCancelled = domain.RunStatusCancelled
)

// Node statuses.
const (
	NodeStatusPending   = domain.NodeStatusPending
	NodeStatusRunning   = domain.NodeStatusRunning
	NodeStatusCompleted = domain.NodeStatusCompleted
	NodeStatusFailed    = domain.NodeStatusFailed
	NodeStatusSkipped   = domain.NodeStatusSkipped
)

// ErrAlreadyRunning rejects a second concurrent run.
var ErrAlreadyRunning = domain.ErrAlreadyRunning

// ErrNotFound marks a missing persisted resource.
var ErrNotFound = domain.ErrNotFound

// IsInvalidEdge reports whether an error is an edge-validation rejection.
func IsInvalidEdge(err error) bool {
	return domain.IsInvalidEdge(err)
}

// IsAlreadyRunning reports whether an error is the concurrent-run rejection.
func IsAlreadyRunning(err error) bool {
	return domain.IsAlreadyRunning(err)
}

// New creates an engine with the builtin executors and a scripted
// stand-in completion capability. A nil config selects the defaults.
func New(cfg *Config, logger *slog.Logger) (*Engine, error) {
	return NewWithCompletion(cfg, completion.NewScripted(), logger)
}

// NewWithCompletion creates an engine whose agent nodes delegate to the
// given completion capability.
func NewWithCompletion(cfg *Config, comp CompletionPort, logger *slog.Logger) (*Engine, error) {
	return newEngine(cfg, comp, logger)
}
