package executors

import (
	"context"
	"log/slog"
	"time"

	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Action runs a named sub-operation against the accumulated input data. The
// operation is read from the node config key "operation"; anything
// unrecognized is a passthrough.
type Action struct {
	logger *slog.Logger
}

func NewAction(logger *slog.Logger) *Action {
	if logger == nil {
		logger = slog.Default()
	}

	return &Action{logger: logger.With("component", "action-executor")}
}

func (a *Action) Kind() domain.NodeKind {
	return domain.KindAction
}

func (a *Action) Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	operation, _ := node.Config["operation"].(string)

	switch operation {
	case "transform":
		return a.transform(node, input)
	case "log":
		return a.log(node, input)
	case "delay":
		return a.delay(ctx, node, input)
	default:
		return &ports.ExecutionResult{
			Output: map[string]interface{}{
				"action": "passthrough",
				"data":   input,
			},
		}, nil
	}
}

func (a *Action) transform(node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	set, _ := node.Config["set"].(map[string]interface{})

	data, err := domain.MergeObjects(input, set)
	if err != nil {
		return nil, err
	}

	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"action": "transform",
			"data":   data,
		},
	}, nil
}

func (a *Action) log(node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	message, _ := node.Config["message"].(string)

	a.logger.Info("workflow log action",
		"node_id", node.ID,
		"message", message,
		"input_keys", len(input))

	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"action": "log",
			"logged": true,
		},
	}, nil
}

func (a *Action) delay(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	ms, _ := node.Config["durationMs"].(float64)
	duration := time.Duration(ms) * time.Millisecond

	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"action":    "delay",
			"delayedMs": duration.Milliseconds(),
		},
	}, nil
}
