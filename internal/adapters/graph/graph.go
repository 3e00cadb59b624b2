package graph

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/loomworks/loom/internal/domain"
)

// Graph holds the nodes and directed edges of one workflow and answers the
// ordering query the coordinator walks. Single writer (the editing surface),
// many readers.
type Graph struct {
	id     string
	logger *slog.Logger

	mu        sync.RWMutex
	nodes     map[string]domain.Node
	nodeOrder []string
	edges     map[string]domain.Edge
	edgeOrder []string
}

func New(id string, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	if id == "" {
		id = uuid.New().String()
	}

	return &Graph{
		id:     id,
		logger: logger.With("component", "graph", "workflow_id", id),
		nodes:  make(map[string]domain.Node),
		edges:  make(map[string]domain.Edge),
	}
}

// FromSnapshot rebuilds a graph from its persisted form, preserving node
// insertion order. Edges referencing missing nodes are kept; the ordering
// query tolerates them.
func FromSnapshot(snapshot domain.GraphSnapshot, logger *slog.Logger) *Graph {
	g := New(snapshot.ID, logger)
	for _, node := range snapshot.Nodes {
		g.AddNode(node)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, edge := range snapshot.Edges {
		if _, exists := g.edges[edge.ID]; exists {
			continue
		}
		g.edges[edge.ID] = edge
		g.edgeOrder = append(g.edgeOrder, edge.ID)
	}
	return g
}

func (g *Graph) ID() string {
	return g.id
}

// AddNode appends a node to the graph, assigning a fresh id when the node
// carries none, and returns the node id.
func (g *Graph) AddNode(node domain.Node) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if _, exists := g.nodes[node.ID]; !exists {
		g.nodeOrder = append(g.nodeOrder, node.ID)
	}
	g.nodes[node.ID] = node

	g.logger.Debug("node added", "node_id", node.ID, "kind", node.Kind)
	return node.ID
}

// RemoveNode deletes a node and cascades to every edge touching it, so no
// edge is left referencing a missing node. Removing an absent id is a no-op.
func (g *Graph) RemoveNode(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; !exists {
		return
	}

	delete(g.nodes, id)
	g.nodeOrder = removeString(g.nodeOrder, id)

	for edgeID, edge := range g.edges {
		if edge.Source == id || edge.Target == id {
			delete(g.edges, edgeID)
			g.edgeOrder = removeString(g.edgeOrder, edgeID)
		}
	}

	g.logger.Debug("node removed", "node_id", id)
}

// AddEdge connects source to target and returns the edge id. Self-loops and
// missing endpoints are rejected; duplicates between the same pair are
// allowed and left to callers to suppress.
func (g *Graph) AddEdge(source, target string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if source == target {
		return "", domain.NewInvalidEdgeError(source, target, "self-loop")
	}
	if _, exists := g.nodes[source]; !exists {
		return "", domain.NewInvalidEdgeError(source, target, "source node does not exist")
	}
	if _, exists := g.nodes[target]; !exists {
		return "", domain.NewInvalidEdgeError(source, target, "target node does not exist")
	}

	edge := domain.Edge{
		ID:     uuid.New().String(),
		Source: source,
		Target: target,
	}
	g.edges[edge.ID] = edge
	g.edgeOrder = append(g.edgeOrder, edge.ID)

	g.logger.Debug("edge added", "edge_id", edge.ID, "source", source, "target", target)
	return edge.ID, nil
}

// RemoveEdge is a no-op when the id is absent.
func (g *Graph) RemoveEdge(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.edges[id]; !exists {
		return
	}
	delete(g.edges, id)
	g.edgeOrder = removeString(g.edgeOrder, id)
}

func (g *Graph) Node(id string) (domain.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	return node, exists
}

// Nodes returns the node set in insertion order.
func (g *Graph) Nodes() []domain.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]domain.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, len(g.nodeOrder))
	copy(ids, g.nodeOrder)
	return ids
}

func (g *Graph) Edges() []domain.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]domain.Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		edges = append(edges, g.edges[id])
	}
	return edges
}

func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Snapshot returns the serializable form of the graph.
func (g *Graph) Snapshot() domain.GraphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snapshot := domain.GraphSnapshot{
		ID:    g.id,
		Nodes: make([]domain.Node, 0, len(g.nodeOrder)),
		Edges: make([]domain.Edge, 0, len(g.edgeOrder)),
	}
	for _, id := range g.nodeOrder {
		snapshot.Nodes = append(snapshot.Nodes, g.nodes[id])
	}
	for _, id := range g.edgeOrder {
		snapshot.Edges = append(snapshot.Edges, g.edges[id])
	}
	return snapshot
}

// ExecutionOrder returns a deterministic total order over the node set. A
// node is placed only once all its upstream dependencies are placed, so for
// acyclic graphs every edge's source precedes its target; ties break by
// insertion order. Graphs with cycles or disconnected components still yield
// every node exactly once — when no node is unblocked, the earliest-inserted
// remaining node is forced through — but edges inside a cycle are only
// best-effort ordered; the engine deliberately tolerates transiently invalid
// graphs instead of rejecting them.
func (g *Graph) ExecutionOrder() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	children := make(map[string][]string, len(g.nodes))
	indegree := make(map[string]int, len(g.nodes))

	for _, edgeID := range g.edgeOrder {
		edge := g.edges[edgeID]
		if _, ok := g.nodes[edge.Source]; !ok {
			continue
		}
		if _, ok := g.nodes[edge.Target]; !ok {
			continue
		}
		children[edge.Source] = append(children[edge.Source], edge.Target)
		indegree[edge.Target]++
	}

	order := make([]string, 0, len(g.nodes))
	placed := make(map[string]bool, len(g.nodes))

	place := func(id string) {
		placed[id] = true
		order = append(order, id)
		for _, child := range children[id] {
			indegree[child]--
		}
	}

	for len(order) < len(g.nodeOrder) {
		unblocked := false
		for _, id := range g.nodeOrder {
			if !placed[id] && indegree[id] <= 0 {
				place(id)
				unblocked = true
				break
			}
		}
		if unblocked {
			continue
		}

		// Every remaining node sits on a cycle. Force the earliest-inserted
		// one through to keep the order total and deterministic.
		for _, id := range g.nodeOrder {
			if !placed[id] {
				place(id)
				break
			}
		}
	}

	return order
}

func removeString(list []string, value string) []string {
	for i, v := range list {
		if v == value {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
