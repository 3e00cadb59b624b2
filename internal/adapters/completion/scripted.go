package completion

import (
	"context"
	"strings"
	"sync"

	"github.com/loomworks/loom/internal/ports"
)

// Scripted is an in-process stand-in for the AI-completion capability: it
// replays canned responses in order, estimating token usage from word count.
// Real model providers live outside the engine; this adapter keeps agent
// nodes executable in development and tests.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
}

func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Complete(ctx context.Context, model, systemPrompt string, messages []ports.Message) (*ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := s.take(messages)
	return &ports.Completion{
		Text:  text,
		Model: model,
		Usage: ports.Usage{TokensUsed: estimateTokens(systemPrompt, messages, text)},
	}, nil
}

// Stream delivers the response word by word before settling, mirroring how a
// real provider produces incremental chunks the caller concatenates.
func (s *Scripted) Stream(ctx context.Context, model, systemPrompt string, messages []ports.Message, onChunk func(string)) (*ports.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := s.take(messages)
	if onChunk != nil {
		for i, word := range strings.Fields(text) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if i > 0 {
				onChunk(" ")
			}
			onChunk(word)
		}
	}

	return &ports.Completion{
		Text:  text,
		Model: model,
		Usage: ports.Usage{TokensUsed: estimateTokens(systemPrompt, messages, text)},
	}, nil
}

func (s *Scripted) take(messages []ports.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.responses) == 0 {
		if len(messages) > 0 {
			return messages[len(messages)-1].Content
		}
		return ""
	}

	text := s.responses[s.next%len(s.responses)]
	s.next++
	return text
}

func estimateTokens(systemPrompt string, messages []ports.Message, response string) int {
	count := len(strings.Fields(systemPrompt)) + len(strings.Fields(response))
	for _, m := range messages {
		count += len(strings.Fields(m.Content))
	}
	return count
}
