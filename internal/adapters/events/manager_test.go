package events

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/loomworks/loom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestManager_DeliversToAllHandlers(t *testing.T) {
	m := NewManager(testLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var got []string
	m.OnRunStarted(func(e *domain.RunStartedEvent) {
		mu.Lock()
		got = append(got, "first:"+e.RunID)
		mu.Unlock()
		wg.Done()
	})
	m.OnRunStarted(func(e *domain.RunStartedEvent) {
		mu.Lock()
		got = append(got, "second:"+e.RunID)
		mu.Unlock()
		wg.Done()
	})

	m.PublishRunStarted(&domain.RunStartedEvent{RunID: "r1"})

	waitDone(t, &wg)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"first:r1", "second:r1"}, got)
}

func TestManager_HandlersAreTypeScoped(t *testing.T) {
	m := NewManager(testLogger())

	completed := make(chan struct{})
	m.OnNodeCompleted(func(*domain.NodeCompletedEvent) { close(completed) })
	m.OnNodeError(func(*domain.NodeErrorEvent) { t.Error("error handler fired for a completion event") })

	m.PublishNodeCompleted(&domain.NodeCompletedEvent{RunID: "r1", NodeID: "a"})

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("completion handler never fired")
	}
	time.Sleep(20 * time.Millisecond)
}

func TestManager_ContainsHandlerPanics(t *testing.T) {
	m := NewManager(testLogger())

	delivered := make(chan struct{})
	m.OnRunCancelled(func(*domain.RunCancelledEvent) { panic("handler bug") })
	m.OnRunCancelled(func(*domain.RunCancelledEvent) { close(delivered) })

	require.NotPanics(t, func() {
		m.PublishRunCancelled(&domain.RunCancelledEvent{RunID: "r1"})
	})

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("surviving handler never fired")
	}
}

func TestManager_PublishWithoutHandlersIsSafe(t *testing.T) {
	m := NewManager(testLogger())

	assert.NotPanics(t, func() {
		m.PublishRunStarted(&domain.RunStartedEvent{})
		m.PublishRunCompleted(&domain.RunCompletedEvent{})
		m.PublishRunFailed(&domain.RunFailedEvent{})
		m.PublishRunPaused(&domain.RunPausedEvent{})
		m.PublishRunResumed(&domain.RunResumedEvent{})
		m.PublishNodeStarted(&domain.NodeStartedEvent{})
		m.PublishNodeError(&domain.NodeErrorEvent{})
	})
}

func waitDone(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers never completed")
	}
}
