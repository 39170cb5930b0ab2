package processing

import (
	"sync"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

// Node is the subset of the node contract (internal/processing/nodes.Node)
// the graph itself depends on. Declared here rather than imported to avoid
// a processing<->nodes import cycle, since nodes already imports
// processing for Data/DataKind.
type Node interface {
	Process(input Data) (Data, error)
	ID() string
	Type() string
}

// Connection is a directed edge from one node's output to another node's
// input, grounded on graph.rs's Connection.
type Connection struct {
	From NodeId
	To   NodeId
}

// Graph wires a set of Nodes into a directed acyclic execution order and
// runs data through them, grounded on graph.rs's ProcessingGraph,
// restructured with a RWMutex-guarded map in the teacher's manager.go
// idiom instead of an owned HashMap behind &mut self.
type Graph struct {
	mu sync.RWMutex

	nodes       map[NodeId]Node
	connections []Connection
	inputNode   NodeId
	outputNodes []NodeId

	executionOrder []NodeId
}

// NewGraph builds an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeId]Node)}
}

// AddNode registers node in the graph. A node whose Type() is "input"
// becomes the graph's input node automatically, matching graph.rs.
func (g *Graph) AddNode(node Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := node.ID()
	if _, exists := g.nodes[id]; exists {
		return errors.Newf("node %q already exists", id).
			Category(errors.CategoryValidation).Build()
	}

	if node.Type() == "input" {
		g.inputNode = id
	}

	g.nodes[id] = node
	g.invalidateExecutionOrderLocked()
	return nil
}

// RemoveNode deletes node and any connections touching it.
func (g *Graph) RemoveNode(nodeID NodeId) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[nodeID]; !exists {
		return nodeNotFoundErr(nodeID)
	}

	kept := g.connections[:0:0]
	for _, conn := range g.connections {
		if conn.From != nodeID && conn.To != nodeID {
			kept = append(kept, conn)
		}
	}
	g.connections = kept

	delete(g.nodes, nodeID)
	if g.inputNode == nodeID {
		g.inputNode = ""
	}

	outputs := g.outputNodes[:0:0]
	for _, id := range g.outputNodes {
		if id != nodeID {
			outputs = append(outputs, id)
		}
	}
	g.outputNodes = outputs

	g.invalidateExecutionOrderLocked()
	return nil
}

// Connect adds a directed edge from fromID to toID, rejecting duplicate
// edges and edges that would introduce a cycle.
func (g *Graph) Connect(fromID, toID NodeId) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[fromID]; !ok {
		return nodeNotFoundErr(fromID)
	}
	if _, ok := g.nodes[toID]; !ok {
		return nodeNotFoundErr(toID)
	}

	for _, conn := range g.connections {
		if conn.From == fromID && conn.To == toID {
			return errors.Newf("connection already exists from %q to %q", fromID, toID).
				Category(errors.CategoryValidation).Build()
		}
	}

	g.connections = append(g.connections, Connection{From: fromID, To: toID})

	if g.hasCycleLocked() {
		g.connections = g.connections[:len(g.connections)-1]
		return errors.New(errors.NewStd("connection would create a cycle")).
			Category(errors.CategoryValidation).Build()
	}

	g.invalidateExecutionOrderLocked()
	return nil
}

// Disconnect removes a single matching edge.
func (g *Graph) Disconnect(fromID, toID NodeId) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, conn := range g.connections {
		if conn.From == fromID && conn.To == toID {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			g.invalidateExecutionOrderLocked()
			return nil
		}
	}
	return errors.Newf("no connection found from %q to %q", fromID, toID).
		Category(errors.CategoryValidation).Build()
}

// SetOutputNode marks nodeID as a terminal node whose output is collected
// by Execute.
func (g *Graph) SetOutputNode(nodeID NodeId) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[nodeID]; !ok {
		return nodeNotFoundErr(nodeID)
	}
	for _, id := range g.outputNodes {
		if id == nodeID {
			return nil
		}
	}
	g.outputNodes = append(g.outputNodes, nodeID)
	return nil
}

// NodeIDs returns every registered node ID.
func (g *Graph) NodeIDs() []NodeId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]NodeId, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// ConnectionCount returns the number of registered connections.
func (g *Graph) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func nodeNotFoundErr(nodeID NodeId) error {
	return errors.Newf("node %q not found", nodeID).
		Category(errors.CategoryValidation).Build()
}

func (g *Graph) invalidateExecutionOrderLocked() {
	g.executionOrder = nil
}

// getExecutionOrder returns the cached topological order, computing and
// caching it if the graph has changed since the last call.
func (g *Graph) getExecutionOrder() ([]NodeId, error) {
	if g.executionOrder != nil {
		return g.executionOrder, nil
	}
	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.executionOrder = order
	return order, nil
}

// topologicalSort runs Kahn's algorithm over the connection list,
// returning an execution-order error if any node is left unvisited (a
// cycle, or an orphaned edge to an unknown node).
func (g *Graph) topologicalSort() ([]NodeId, error) {
	inDegree := make(map[NodeId]int, len(g.nodes))
	adjacency := make(map[NodeId][]NodeId, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = 0
		adjacency[id] = nil
	}

	for _, conn := range g.connections {
		adjacency[conn.From] = append(adjacency[conn.From], conn.To)
		inDegree[conn.To]++
	}

	queue := make([]NodeId, 0, len(g.nodes))
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]NodeId, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, neighbor := range adjacency[id] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(sorted) != len(g.nodes) {
		return nil, errors.New(errors.NewStd("connection would create a cycle")).
			Category(errors.CategoryValidation).Build()
	}
	return sorted, nil
}

type dfsState int

const (
	dfsUnvisited dfsState = iota
	dfsVisiting
	dfsDone
)

// hasCycleLocked runs a 3-color DFS to detect a cycle before topological
// sort is attempted, matching graph.rs's has_cycle/has_cycle_util pair.
func (g *Graph) hasCycleLocked() bool {
	state := make(map[NodeId]dfsState, len(g.nodes))
	for id := range g.nodes {
		state[id] = dfsUnvisited
	}

	adjacency := make(map[NodeId][]NodeId, len(g.nodes))
	for _, conn := range g.connections {
		adjacency[conn.From] = append(adjacency[conn.From], conn.To)
	}

	var visit func(id NodeId) bool
	visit = func(id NodeId) bool {
		state[id] = dfsVisiting
		for _, neighbor := range adjacency[id] {
			switch state[neighbor] {
			case dfsVisiting:
				return true
			case dfsUnvisited:
				if visit(neighbor) {
					return true
				}
			}
		}
		state[id] = dfsDone
		return false
	}

	for id := range g.nodes {
		if state[id] == dfsUnvisited {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// Execute runs input through every node in topological order, feeding the
// graph's input node the original input and every other node the output
// of its (single) predecessor, then collects the output of every
// designated output node — or, if none were set, the last executed
// node's output. Grounded on graph.rs's execute.
func (g *Graph) Execute(input Data) ([]Data, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.inputNode == "" {
		return nil, errors.New(errors.NewStd("graph has no input node")).
			Category(errors.CategoryState).Build()
	}

	order, err := g.getExecutionOrder()
	if err != nil {
		return nil, err
	}

	outputs := make(map[NodeId]Data, len(order))
	for _, id := range order {
		node := g.nodes[id]

		var nodeInput Data
		if id == g.inputNode {
			nodeInput = input
		} else {
			predecessor, ok := g.firstPredecessorLocked(id)
			if !ok {
				return nil, errors.Newf("node %q has no input connections", id).
					Category(errors.CategoryState).Build()
			}
			result, ok := outputs[predecessor]
			if !ok {
				return nil, errors.Newf("no output from predecessor %q", predecessor).
					Category(errors.CategoryState).Build()
			}
			nodeInput = result
		}

		result, err := node.Process(nodeInput)
		if err != nil {
			return nil, errors.New(err).Category(errors.CategoryProcessing).
				Context("node_id", id).Build()
		}
		outputs[id] = result
	}

	if len(g.outputNodes) == 0 {
		if len(order) == 0 {
			return nil, nil
		}
		last := order[len(order)-1]
		if result, ok := outputs[last]; ok {
			return []Data{result}, nil
		}
		return nil, nil
	}

	results := make([]Data, 0, len(g.outputNodes))
	for _, id := range g.outputNodes {
		if result, ok := outputs[id]; ok {
			results = append(results, result)
		}
	}
	return results, nil
}

func (g *Graph) firstPredecessorLocked(nodeID NodeId) (NodeId, bool) {
	for _, conn := range g.connections {
		if conn.To == nodeID {
			return conn.From, true
		}
	}
	return "", false
}
