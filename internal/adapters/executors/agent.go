package executors

import (
	"context"
	"errors"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

// Agent delegates to the AI-completion capability. The node config supplies
// the prompt and model under the keys the editing surface writes
// (systemPrompt, model); the accumulated input data is serialized as the
// user turn so the model sees upstream outputs.
type Agent struct {
	completion ports.CompletionPort
	logger     *slog.Logger
}

func NewAgent(completion ports.CompletionPort, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		completion: completion,
		logger:     logger.With("component", "agent-executor"),
	}
}

func (a *Agent) Kind() domain.NodeKind {
	return domain.KindAgent
}

func (a *Agent) Execute(ctx context.Context, node domain.Node, input map[string]interface{}) (*ports.ExecutionResult, error) {
	if a.completion == nil {
		return nil, errors.New("no completion capability configured")
	}

	systemPrompt, _ := node.Config["systemPrompt"].(string)
	model, _ := node.Config["model"].(string)

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	messages := []ports.Message{
		{Role: "user", Content: string(payload)},
	}

	completion, err := a.completion.Complete(ctx, model, systemPrompt, messages)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("agent completion settled",
		"node_id", node.ID,
		"model", completion.Model,
		"tokens_used", completion.Usage.TokensUsed)

	return &ports.ExecutionResult{
		Output: map[string]interface{}{
			"response":   completion.Text,
			"model":      completion.Model,
			"tokensUsed": completion.Usage.TokensUsed,
		},
		Performance: &domain.Performance{
			TokensUsed: completion.Usage.TokensUsed,
		},
	}, nil
}
