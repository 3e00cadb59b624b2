package history

import (
	"log/slog"
	"sync"

	"github.com/loomworks/loom/internal/domain"
)

// History is the append-only archive of finished runs, most recent first.
// Entries are frozen snapshots and never edited after insertion. A limit of
// 0 keeps everything; otherwise the oldest entries are dropped past it.
type History struct {
	logger *slog.Logger
	limit  int

	mu   sync.RWMutex
	runs []*domain.Run
}

func New(limit int, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}

	return &History{
		logger: logger.With("component", "run-history"),
		limit:  limit,
	}
}

// Append prepends the run. The caller hands over a frozen snapshot; History
// never mutates it.
func (h *History) Append(run *domain.Run) {
	if run == nil {
		return
	}

	h.mu.Lock()
	h.runs = append([]*domain.Run{run}, h.runs...)
	if h.limit > 0 && len(h.runs) > h.limit {
		h.runs = h.runs[:h.limit]
	}
	size := len(h.runs)
	h.mu.Unlock()

	h.logger.Debug("run archived",
		"run_id", run.ID,
		"workflow_id", run.WorkflowID,
		"status", run.Status,
		"history_size", size)
}

// List returns the archive most recent first. The slice is a copy; re-reads
// between appends observe the same content.
func (h *History) List() []*domain.Run {
	h.mu.RLock()
	defer h.mu.RUnlock()

	runs := make([]*domain.Run, len(h.runs))
	copy(runs, h.runs)
	return runs
}

// Len returns the number of archived runs.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}
