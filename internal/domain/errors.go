package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("a run is already in progress")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrClosed         = errors.New("storage closed")
)

// InvalidEdgeError rejects edge creation with a self-loop or a missing
// endpoint. Surfaced synchronously at the graph boundary.
type InvalidEdgeError struct {
	Source string
	Target string
	Reason string
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge %s -> %s: %s", e.Source, e.Target, e.Reason)
}

func NewInvalidEdgeError(source, target, reason string) *InvalidEdgeError {
	return &InvalidEdgeError{Source: source, Target: target, Reason: reason}
}

func IsInvalidEdge(err error) bool {
	var invalidEdge *InvalidEdgeError
	return errors.As(err, &invalidEdge)
}

// NodeExecutionError wraps a failure produced by a node executor. It is
// recorded on the node's run state and never propagated past the
// coordinator's per-node loop iteration.
type NodeExecutionError struct {
	NodeID string
	Kind   NodeKind
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.Kind, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

func NewNodeExecutionError(nodeID string, kind NodeKind, err error) *NodeExecutionError {
	return &NodeExecutionError{NodeID: nodeID, Kind: kind, Err: err}
}

// StorageError carries the failing key alongside the underlying cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}

func IsAlreadyRunning(err error) bool {
	return errors.Is(err, ErrAlreadyRunning)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
