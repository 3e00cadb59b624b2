package ports

import (
	"context"

	"github.com/loomworks/loom/internal/domain"
)

// ExecutionResult is the outcome of a single node execution.
type ExecutionResult struct {
	Output      interface{}
	Performance *domain.Performance
}

// NodeExecutor produces a node's output from its configuration and the
// accumulated input data. A returned error marks the node failed without
// aborting the run.
type NodeExecutor interface {
	Kind() domain.NodeKind
	Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ExecutionResult, error)
}

// ExecutorRegistry dispatches nodes to executors by kind. Adding a kind is a
// registration, not a new switch case.
type ExecutorRegistry interface {
	Register(executor NodeExecutor) error
	Get(kind domain.NodeKind) (NodeExecutor, bool)
	Kinds() []domain.NodeKind
}
