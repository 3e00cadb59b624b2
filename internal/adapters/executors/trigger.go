package executors

import (
	"context"
	"time"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Trigger starts a workflow. It produces synchronously and simply echoes the
// seed payload alongside a fired marker.
type Trigger struct{}

func (t *Trigger) Kind() domain.NodeKind {
	return domain.KindTrigger
}

func (t *Trigger) Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"triggered": true,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"data":      input,
		},
	}, nil
}
