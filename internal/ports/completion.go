package ports

import (
	"context"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries token accounting for a completion.
type Usage struct {
	TokensUsed int `json:"tokens_used"`
}

// Completion is the settled result of a model call, whether or not it was
// streamed.
type Completion struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
	Usage Usage  `json:"usage"`
}

// CompletionPort is the AI-completion capability agent nodes delegate to.
// Stream invokes onChunk for each incremental piece of text; the returned
// Completion holds the concatenated result either way.
type CompletionPort interface {
	Complete(ctx context.Context, model, systemPrompt string, messages []Message) (*Completion, error)
	Stream(ctx context.Context, model, systemPrompt string, messages []Message, onChunk func(string)) (*Completion, error)
}
