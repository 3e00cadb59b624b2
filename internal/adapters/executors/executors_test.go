package executors

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/loomworks/loom/internal/adapters/completion"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func output(t *testing.T, result *ports.ExecutionResult) map[string]interface{} {
	t.Helper()
	out, ok := result.Output.(map[string]interface{})
	require.True(t, ok, "output is not a map")
	return out
}

func TestTrigger_EchoesSeedPayload(t *testing.T) {
	executor := &Trigger{}
	input := map[string]interface{}{"trigger": true}

	result, err := executor.Execute(context.Background(), domain.Node{ID: "t", Kind: domain.KindTrigger}, input)

	require.NoError(t, err)
	out := output(t, result)
	assert.Equal(t, true, out["triggered"])
	assert.NotEmpty(t, out["timestamp"])
	assert.Equal(t, input, out["data"])
}

func TestAgent_DelegatesToCompletion(t *testing.T) {
	comp := completion.NewScripted("scripted answer")
	executor := NewAgent(comp, testLogger())

	node := domain.Node{
		ID:   "agent",
		Kind: domain.KindAgent,
		Config: map[string]interface{}{
			"systemPrompt": "Answer briefly.",
			"model":        "gpt-4o-mini",
		},
	}

	result, err := executor.Execute(context.Background(), node, map[string]interface{}{"trigger": true})

	require.NoError(t, err)
	out := output(t, result)
	assert.Equal(t, "scripted answer", out["response"])
	assert.Equal(t, "gpt-4o-mini", out["model"])
	require.NotNil(t, result.Performance)
	assert.Positive(t, result.Performance.TokensUsed)
	assert.Equal(t, out["tokensUsed"], result.Performance.TokensUsed)
}

func TestAgent_FailsWithoutCompletion(t *testing.T) {
	executor := NewAgent(nil, testLogger())

	_, err := executor.Execute(context.Background(), domain.Node{ID: "agent", Kind: domain.KindAgent}, nil)

	assert.Error(t, err)
}

type failingCompletion struct{}

func (f *failingCompletion) Complete(context.Context, string, string, []ports.Message) (*ports.Completion, error) {
	return nil, errors.New("provider down")
}

func (f *failingCompletion) Stream(context.Context, string, string, []ports.Message, func(string)) (*ports.Completion, error) {
	return nil, errors.New("provider down")
}

func TestAgent_PropagatesCompletionError(t *testing.T) {
	executor := NewAgent(&failingCompletion{}, testLogger())

	_, err := executor.Execute(context.Background(), domain.Node{ID: "agent", Kind: domain.KindAgent}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestLogic_Conditions(t *testing.T) {
	executor := &Logic{}
	input := map[string]interface{}{
		"flag":   true,
		"status": "ready",
		"count":  float64(0),
	}

	cases := []struct {
		name      string
		condition string
		want      bool
	}{
		{"empty is true", "", true},
		{"truthy bool", "flag", true},
		{"zero number is false", "count", false},
		{"missing key is false", "ghost", false},
		{"equality match", `status == "ready"`, true},
		{"equality mismatch", "status == done", false},
		{"negation", "status != done", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node := domain.Node{ID: "l", Kind: domain.KindLogic, Config: map[string]interface{}{"condition": tc.condition}}

			result, err := executor.Execute(context.Background(), node, input)

			require.NoError(t, err)
			out := output(t, result)
			assert.Equal(t, tc.want, out["result"])
			assert.Equal(t, input, out["input"])
		})
	}
}

func TestLogic_RejectsUnsupportedOperators(t *testing.T) {
	executor := &Logic{}
	node := domain.Node{ID: "l", Kind: domain.KindLogic, Config: map[string]interface{}{"condition": "count > 3"}}

	_, err := executor.Execute(context.Background(), node, map[string]interface{}{"count": 5})

	assert.Error(t, err)
}

func TestAction_DefaultIsPassthrough(t *testing.T) {
	executor := NewAction(testLogger())
	input := map[string]interface{}{"k": "v"}

	result, err := executor.Execute(context.Background(), domain.Node{ID: "a", Kind: domain.KindAction}, input)

	require.NoError(t, err)
	out := output(t, result)
	assert.Equal(t, "passthrough", out["action"])
	assert.Equal(t, input, out["data"])
}

func TestAction_TransformMergesSetValues(t *testing.T) {
	executor := NewAction(testLogger())
	node := domain.Node{
		ID:   "a",
		Kind: domain.KindAction,
		Config: map[string]interface{}{
			"operation": "transform",
			"set": map[string]interface{}{
				"status": "enriched",
			},
		},
	}

	result, err := executor.Execute(context.Background(), node, map[string]interface{}{"status": "raw", "kept": 1})

	require.NoError(t, err)
	out := output(t, result)
	assert.Equal(t, "transform", out["action"])
	data, ok := out["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "enriched", data["status"])
	assert.Equal(t, 1, data["kept"])
}

func TestAction_DelayWaitsAndReportsDuration(t *testing.T) {
	executor := NewAction(testLogger())
	node := domain.Node{
		ID:   "a",
		Kind: domain.KindAction,
		Config: map[string]interface{}{
			"operation":  "delay",
			"durationMs": float64(20),
		},
	}

	started := time.Now()
	result, err := executor.Execute(context.Background(), node, nil)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
	out := output(t, result)
	assert.Equal(t, int64(20), out["delayedMs"])
}

func TestAction_DelayHonorsContextCancellation(t *testing.T) {
	executor := NewAction(testLogger())
	node := domain.Node{
		ID:   "a",
		Kind: domain.KindAction,
		Config: map[string]interface{}{
			"operation":  "delay",
			"durationMs": float64(5000),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := executor.Execute(ctx, node, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIntegration_MarksPayloadProcessed(t *testing.T) {
	executor := &Integration{}
	input := map[string]interface{}{"k": "v"}

	result, err := executor.Execute(context.Background(), domain.Node{ID: "i", Kind: domain.KindIntegration}, input)

	require.NoError(t, err)
	out := output(t, result)
	assert.Equal(t, true, out["processed"])
	assert.Equal(t, input, out["data"])
}

func TestRegistry_RejectsNilEmptyAndDuplicate(t *testing.T) {
	registry := NewRegistry(testLogger())

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(&stubKindExecutor{kind: ""}))

	require.NoError(t, registry.Register(&stubKindExecutor{kind: "custom"}))
	err := registry.Register(&stubKindExecutor{kind: "custom"})
	require.Error(t, err)
	var regErr *RegistrationError
	assert.ErrorAs(t, err, &regErr)
}

func TestNewDefaultRegistry_CoversBuiltinKinds(t *testing.T) {
	registry := NewDefaultRegistry(completion.NewScripted(), testLogger())

	for _, kind := range []domain.NodeKind{
		domain.KindTrigger,
		domain.KindAgent,
		domain.KindLogic,
		domain.KindAction,
		domain.KindIntegration,
	} {
		_, exists := registry.Get(kind)
		assert.True(t, exists, "missing builtin executor for kind %q", kind)
	}
	assert.Len(t, registry.Kinds(), 5)
}

type stubKindExecutor struct {
	kind domain.NodeKind
}

func (s *stubKindExecutor) Kind() domain.NodeKind { return s.kind }

func (s *stubKindExecutor) Execute(context.Context, domain.Node, map[string]interface{}) (*ports.ExecutionResult, error) {
	return &ports.ExecutionResult{}, nil
}
