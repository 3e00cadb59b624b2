package completion

import (
	"context"
	"strings"
	"testing"

	"github.com/loomworks/loom/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScripted_ReplaysResponsesInOrder(t *testing.T) {
	s := NewScripted("one", "two")

	first, err := s.Complete(context.Background(), "m", "", nil)
	require.NoError(t, err)
	second, err := s.Complete(context.Background(), "m", "", nil)
	require.NoError(t, err)
	third, err := s.Complete(context.Background(), "m", "", nil)
	require.NoError(t, err)

	assert.Equal(t, "one", first.Text)
	assert.Equal(t, "two", second.Text)
	assert.Equal(t, "one", third.Text, "responses wrap around")
}

func TestScripted_EchoesLastMessageWithoutScript(t *testing.T) {
	s := NewScripted()

	result, err := s.Complete(context.Background(), "gpt-4o-mini", "sys", []ports.Message{
		{Role: "user", Content: "hello there"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello there", result.Text)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	assert.Positive(t, result.Usage.TokensUsed)
}

func TestScripted_HonorsCancelledContext(t *testing.T) {
	s := NewScripted("ignored")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Complete(ctx, "m", "", nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Stream(ctx, "m", "", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScripted_StreamDeliversChunksThatConcatenate(t *testing.T) {
	s := NewScripted("streamed words arrive in order")

	var b strings.Builder
	result, err := s.Stream(context.Background(), "m", "", nil, func(chunk string) {
		b.WriteString(chunk)
	})

	require.NoError(t, err)
	assert.Equal(t, result.Text, b.String())
	assert.Equal(t, "streamed words arrive in order", b.String())
}
