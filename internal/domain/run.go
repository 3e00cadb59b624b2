package domain

import (
	"time"
)

type RunStatus string

const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status is absorbing; no further transitions
// are accepted once a run reaches it.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// Performance carries informational per-node execution metrics. The
// coordinator records it but never reads it.
type Performance struct {
	MemoryUsage int64 `json:"memory_usage,omitempty"`
	CPUTimeMs   int64 `json:"cpu_time_ms,omitempty"`
	TokensUsed  int   `json:"tokens_used,omitempty"`
}

// NodeRunState tracks one node's status and result within a single run.
type NodeRunState struct {
	NodeID      string       `json:"node_id"`
	Status      NodeStatus   `json:"status"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	DurationMs  int64        `json:"duration_ms,omitempty"`
	Output      interface{}  `json:"output,omitempty"`
	Error       string       `json:"error,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
}

// StatePatch carries the optional fields merged into a NodeRunState on a
// status transition. Nil fields leave the existing values untouched.
type StatePatch struct {
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	DurationMs  int64        `json:"duration_ms,omitempty"`
	Output      interface{}  `json:"output,omitempty"`
	Error       string       `json:"error,omitempty"`
	Performance *Performance `json:"performance,omitempty"`
}

// Run is one execution attempt of a workflow graph. NodeStates is keyed by
// node id; key order carries no meaning.
type Run struct {
	ID              string                   `json:"id"`
	WorkflowID      string                   `json:"workflow_id"`
	Status          RunStatus                `json:"status"`
	StartedAt       time.Time                `json:"started_at"`
	FinishedAt      *time.Time               `json:"finished_at,omitempty"`
	DurationMs      int64                    `json:"duration_ms,omitempty"`
	NodeStates      map[string]*NodeRunState `json:"node_states"`
	TotalNodes      int                      `json:"total_nodes"`
	CompletedNodes  int                      `json:"completed_nodes"`
	FailedNodes     int                      `json:"failed_nodes"`
	ProgressPercent float64                  `json:"progress_percent"`
}

// Recount recomputes the derived counters and progress from the node states.
// An empty run reports zero progress rather than dividing by zero; completion
// forces the percentage to 100 regardless.
func (r *Run) Recount() {
	completed, failed := 0, 0
	for _, ns := range r.NodeStates {
		switch ns.Status {
		case NodeStatusCompleted:
			completed++
		case NodeStatusFailed:
			failed++
		}
	}
	r.CompletedNodes = completed
	r.FailedNodes = failed
	if r.TotalNodes == 0 {
		r.ProgressPercent = 0
		return
	}
	r.ProgressPercent = 100 * float64(completed+failed) / float64(r.TotalNodes)
}

// StateOf returns the tracked state for a node id, or a pending placeholder
// when the node is unknown, so callers never handle nil.
func (r *Run) StateOf(nodeID string) NodeRunState {
	if r == nil {
		return NodeRunState{NodeID: nodeID, Status: NodeStatusPending}
	}
	if ns, ok := r.NodeStates[nodeID]; ok {
		return *ns
	}
	return NodeRunState{NodeID: nodeID, Status: NodeStatusPending}
}
