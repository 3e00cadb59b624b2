package storage

import (
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"github.com/loomworks/loom/internal/domain"
	"github.com/loomworks/loom/internal/ports"
)

const (
	graphKeyPrefix = "graph:"
	runKeyPrefix   = "run:"
)

// WorkflowStore carries graphs and archived runs across sessions through any
// StoragePort. The engine works without one; a single in-memory session
// never touches it.
type WorkflowStore struct {
	storage ports.StoragePort
	logger  *slog.Logger
}

func NewWorkflowStore(storage ports.StoragePort, logger *slog.Logger) *WorkflowStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkflowStore{
		storage: storage,
		logger:  logger.With("component", "workflow-store"),
	}
}

// SaveGraph persists the graph snapshot under graph:<id>.
func (w *WorkflowStore) SaveGraph(snapshot domain.GraphSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return domain.NewStorageError("marshal", graphKey(snapshot.ID), err)
	}

	if err := w.storage.Put(graphKey(snapshot.ID), data); err != nil {
		return err
	}

	w.logger.Debug("graph saved",
		"workflow_id", snapshot.ID,
		"nodes", len(snapshot.Nodes),
		"edges", len(snapshot.Edges))
	return nil
}

// LoadGraph returns the persisted snapshot for a workflow id, or ErrNotFound.
func (w *WorkflowStore) LoadGraph(workflowID string) (domain.GraphSnapshot, error) {
	var snapshot domain.GraphSnapshot

	data, exists, err := w.storage.Get(graphKey(workflowID))
	if err != nil {
		return snapshot, err
	}
	if !exists {
		return snapshot, fmt.Errorf("graph %s: %w", workflowID, domain.ErrNotFound)
	}

	if err := json.Unmarshal(data, &snapshot); err != nil {
		return snapshot, domain.NewStorageError("unmarshal", graphKey(workflowID), err)
	}
	return snapshot, nil
}

func (w *WorkflowStore) DeleteGraph(workflowID string) error {
	return w.storage.Delete(graphKey(workflowID))
}

// ListGraphs returns every persisted graph snapshot.
func (w *WorkflowStore) ListGraphs() ([]domain.GraphSnapshot, error) {
	entries, err := w.storage.ListByPrefix(graphKeyPrefix)
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.GraphSnapshot, 0, len(entries))
	for _, entry := range entries {
		var snapshot domain.GraphSnapshot
		if err := json.Unmarshal(entry.Value, &snapshot); err != nil {
			w.logger.Warn("skipping corrupt graph entry", "key", entry.Key, "error", err)
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// ArchiveRun persists a frozen run under run:<workflowID>:<runID>.
func (w *WorkflowStore) ArchiveRun(run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return domain.NewStorageError("marshal", runKey(run.WorkflowID, run.ID), err)
	}

	if err := w.storage.Put(runKey(run.WorkflowID, run.ID), data); err != nil {
		return err
	}

	w.logger.Debug("run archived to storage",
		"workflow_id", run.WorkflowID,
		"run_id", run.ID,
		"status", run.Status)
	return nil
}

// LoadRuns returns every archived run for a workflow id.
func (w *WorkflowStore) LoadRuns(workflowID string) ([]*domain.Run, error) {
	entries, err := w.storage.ListByPrefix(runKeyPrefix + workflowID + ":")
	if err != nil {
		return nil, err
	}

	runs := make([]*domain.Run, 0, len(entries))
	for _, entry := range entries {
		var run domain.Run
		if err := json.Unmarshal(entry.Value, &run); err != nil {
			w.logger.Warn("skipping corrupt run entry", "key", entry.Key, "error", err)
			continue
		}
		runs = append(runs, &run)
	}
	return runs, nil
}

func graphKey(workflowID string) string {
	return graphKeyPrefix + workflowID
}

func runKey(workflowID, runID string) string {
	return fmt.Sprintf("%s%s:%s", runKeyPrefix, workflowID, runID)
}
