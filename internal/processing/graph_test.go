package processing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// passthroughNode is a minimal processing.Node stub for graph tests: it
// tags the samples it sees so execution order is observable.
type passthroughNode struct {
	id      string
	kind    string
	tag     string
	fail    bool
	visited *[]string
}

func (n *passthroughNode) ID() string   { return n.id }
func (n *passthroughNode) Type() string { return n.kind }

func (n *passthroughNode) Process(input processing.Data) (processing.Data, error) {
	if n.fail {
		return processing.Data{}, assert.AnError
	}
	if n.visited != nil {
		*n.visited = append(*n.visited, n.id)
	}
	input.Metadata.ProcessingSteps = append(input.Metadata.ProcessingSteps, n.tag)
	return input, nil
}

func TestGraph_ExecutesInTopologicalOrder(t *testing.T) {
	var visited []string
	g := processing.NewGraph()

	require.NoError(t, g.AddNode(&passthroughNode{id: "in", kind: "input", tag: "in", visited: &visited}))
	require.NoError(t, g.AddNode(&passthroughNode{id: "mid", kind: "filter", tag: "mid", visited: &visited}))
	require.NoError(t, g.AddNode(&passthroughNode{id: "out", kind: "output", tag: "out", visited: &visited}))

	require.NoError(t, g.Connect("in", "mid"))
	require.NoError(t, g.Connect("mid", "out"))
	require.NoError(t, g.SetOutputNode("out"))

	results, err := g.Execute(processing.NewSingleChannelData([]float32{1}, 44100, 0, 1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"in", "mid", "out"}, visited)
}

func TestGraph_ConnectRejectsCycle(t *testing.T) {
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&passthroughNode{id: "a", kind: "input"}))
	require.NoError(t, g.AddNode(&passthroughNode{id: "b", kind: "filter"}))

	require.NoError(t, g.Connect("a", "b"))
	err := g.Connect("b", "a")
	assert.Error(t, err)
	assert.Equal(t, 1, g.ConnectionCount())
}

func TestGraph_ConnectRejectsUnknownNode(t *testing.T) {
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&passthroughNode{id: "a", kind: "input"}))
	assert.Error(t, g.Connect("a", "missing"))
}

func TestGraph_ExecuteWithoutInputNodeErrors(t *testing.T) {
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&passthroughNode{id: "a", kind: "filter"}))
	_, err := g.Execute(processing.NewSingleChannelData(nil, 44100, 0, 1))
	assert.Error(t, err)
}

func TestGraph_RemoveNodeDropsConnections(t *testing.T) {
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&passthroughNode{id: "a", kind: "input"}))
	require.NoError(t, g.AddNode(&passthroughNode{id: "b", kind: "filter"}))
	require.NoError(t, g.Connect("a", "b"))

	require.NoError(t, g.RemoveNode("b"))
	assert.Equal(t, 0, g.ConnectionCount())
	assert.Equal(t, 1, g.NodeCount())
}

func TestGraph_ExecutePropagatesNodeError(t *testing.T) {
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&passthroughNode{id: "a", kind: "input", fail: true}))
	_, err := g.Execute(processing.NewSingleChannelData(nil, 44100, 0, 1))
	assert.Error(t, err)
}
