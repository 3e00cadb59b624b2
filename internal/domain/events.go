package domain

import (
	"time"
)

type RunStartedEvent struct {
	RunID      string    `json:"run_id"`
	WorkflowID string    `json:"workflow_id"`
	StartedAt  time.Time `json:"started_at"`
	TotalNodes int       `json:"total_nodes"`
}

type RunCompletedEvent struct {
	RunID          string    `json:"run_id"`
	WorkflowID     string    `json:"workflow_id"`
	CompletedAt    time.Time `json:"completed_at"`
	DurationMs     int64     `json:"duration_ms"`
	CompletedNodes int       `json:"completed_nodes"`
	FailedNodes    int       `json:"failed_nodes"`
}

type RunFailedEvent struct {
	RunID       string    `json:"run_id"`
	WorkflowID  string    `json:"workflow_id"`
	FailedAt    time.Time `json:"failed_at"`
	FailedNodes int       `json:"failed_nodes"`
}

type RunCancelledEvent struct {
	RunID       string    `json:"run_id"`
	WorkflowID  string    `json:"workflow_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type RunPausedEvent struct {
	RunID      string    `json:"run_id"`
	WorkflowID string    `json:"workflow_id"`
	PausedAt   time.Time `json:"paused_at"`
}

type RunResumedEvent struct {
	RunID      string    `json:"run_id"`
	WorkflowID string    `json:"workflow_id"`
	ResumedAt  time.Time `json:"resumed_at"`
}

type NodeStartedEvent struct {
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Kind      NodeKind  `json:"kind"`
	StartedAt time.Time `json:"started_at"`
}

type NodeCompletedEvent struct {
	RunID      string      `json:"run_id"`
	NodeID     string      `json:"node_id"`
	Kind       NodeKind    `json:"kind"`
	DurationMs int64       `json:"duration_ms"`
	Output     interface{} `json:"output,omitempty"`
}

type NodeErrorEvent struct {
	RunID    string    `json:"run_id"`
	NodeID   string    `json:"node_id"`
	Kind     NodeKind  `json:"kind"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}
