package domain

import (
	"dario.cat/mergo"
	json "github.com/goccy/go-json"
)

// MergeObjects deep-merges results into a copy of current. Values in results
// win on conflict and slices are appended rather than replaced.
func MergeObjects(current, results map[string]interface{}) (map[string]interface{}, error) {
	merged := make(map[string]interface{}, len(current)+len(results))
	for k, v := range current {
		merged[k] = v
	}

	if err := mergo.Merge(&merged, results,
		mergo.WithOverride,
		mergo.WithAppendSlice); err != nil {
		return nil, err
	}

	return merged, nil
}

// CloneRun produces an independent deep copy of a run through a JSON
// round-trip, so frozen history snapshots cannot alias live state.
func CloneRun(run *Run) (*Run, error) {
	if run == nil {
		return nil, nil
	}

	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}

	var clone Run
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// CopyRun makes a structural copy of the run: the Run struct and every
// NodeRunState are copied, node outputs stay aliased. Fallback for when the
// JSON deep clone fails on an unserializable output.
func CopyRun(run *Run) *Run {
	if run == nil {
		return nil
	}

	clone := *run
	clone.NodeStates = make(map[string]*NodeRunState, len(run.NodeStates))
	for id, ns := range run.NodeStates {
		copied := *ns
		clone.NodeStates[id] = &copied
	}
	return &clone
}

// CloneValue deep-copies an opaque value through the same JSON round-trip.
// Fails on values JSON cannot represent.
func CloneValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var clone interface{}
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}
