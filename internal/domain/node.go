package domain

// NodeKind selects the executor behavior for a node. The set is closed from
// the engine's point of view but extensible through the executor registry.
type NodeKind string

const (
	KindTrigger     NodeKind = "trigger"
	KindAgent       NodeKind = "agent"
	KindAction      NodeKind = "action"
	KindLogic       NodeKind = "logic"
	KindIntegration NodeKind = "integration"
)

// Node is one configured step in a workflow graph. Config is opaque to the
// coordinator and passed verbatim to the node's executor.
type Node struct {
	ID     string                 `json:"id"`
	Kind   NodeKind               `json:"kind"`
	Title  string                 `json:"title,omitempty"`
	Config map[string]interface{} `json:"config,omitempty"`
}

// Edge is a directed dependency arc between two node ids.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphSnapshot is the serializable form of a workflow graph, used by the
// persistence adapter. Node order reflects insertion order.
type GraphSnapshot struct {
	ID    string `json:"id"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
