package executors

import (
	"context"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Integration is a passthrough marking the payload as handled by an external
// system. Real connectors are expected to replace it via registration.
type Integration struct{}

func (i *Integration) Kind() domain.NodeKind {
	return domain.KindIntegration
}

func (i *Integration) Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"processed": true,
			"data":      input,
		},
	}, nil
}
