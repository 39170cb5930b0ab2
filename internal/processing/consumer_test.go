package processing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
	"github.com/sctg-development/photoacoustic-go/internal/processing/nodes"
)

func buildInputOnlyGraph(t *testing.T) *processing.Graph {
	t.Helper()
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(nodes.NewInputNode("input")))
	require.NoError(t, g.SetOutputNode("input"))
	return g
}

func TestConsumer_ProcessesPublishedFrames(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(8)
	graph := buildInputOnlyGraph(t)
	consumer := processing.NewConsumer("test", stream, graph, nil)

	require.NoError(t, consumer.Start(context.Background()))
	defer func() { _ = consumer.Stop() }()

	require.NoError(t, stream.Publish(&acquisition.AudioFrame{
		ChannelA:    []float32{0.1, 0.2},
		ChannelB:    []float32{0.3, 0.4},
		SampleRate:  44100,
		FrameNumber: 1,
	}))

	assert.Eventually(t, func() bool {
		return consumer.FramesProcessed() > 0
	}, time.Second, 5*time.Millisecond)

	stats := consumer.Stats()
	assert.Equal(t, uint64(0), stats.ProcessingFailures)
}

func TestConsumer_StartIsIdempotent(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	graph := buildInputOnlyGraph(t)
	consumer := processing.NewConsumer("test", stream, graph, nil)

	require.NoError(t, consumer.Start(context.Background()))
	require.NoError(t, consumer.Start(context.Background()))
	assert.True(t, consumer.IsRunning())
	require.NoError(t, consumer.Stop())
}

func TestConsumer_StopIsIdempotent(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	graph := buildInputOnlyGraph(t)
	consumer := processing.NewConsumer("test", stream, graph, nil)

	require.NoError(t, consumer.Stop())
	require.NoError(t, consumer.Start(context.Background()))
	require.NoError(t, consumer.Stop())
	require.NoError(t, consumer.Stop())
	assert.False(t, consumer.IsRunning())
}

func TestConsumer_RecordsFailuresFromGraphErrors(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	g := processing.NewGraph()
	require.NoError(t, g.AddNode(&failingNode{id: "input"}))
	consumer := processing.NewConsumer("test", stream, g, nil)

	require.NoError(t, consumer.Start(context.Background()))
	defer func() { _ = consumer.Stop() }()

	require.NoError(t, stream.Publish(&acquisition.AudioFrame{
		ChannelA: []float32{0.1}, ChannelB: []float32{0.1}, SampleRate: 44100, FrameNumber: 1,
	}))

	assert.Eventually(t, func() bool {
		return consumer.ProcessingFailures() > 0
	}, time.Second, 5*time.Millisecond)
}

type failingNode struct{ id string }

func (n *failingNode) ID() string   { return n.id }
func (n *failingNode) Type() string { return "input" }
func (n *failingNode) Process(processing.Data) (processing.Data, error) {
	return processing.Data{}, assert.AnError
}
