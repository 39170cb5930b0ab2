package nodes

import (
	"github.com/google/uuid"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

const streamingNodeRingCapacity = 1024

// StreamingNode is a transparent pass-through that tees DualChannel data
// onto its own SharedAudioStream and registers that stream with a
// StreamingNodeRegistry, so an HTTP surface can subscribe to a live node's
// output by UUID. Grounded on nodes/streaming.rs + streaming_registry.rs.
type StreamingNode struct {
	idStr    string
	idUUID   uuid.UUID
	name     string
	stream   *acquisition.SharedAudioStream
	registry *processing.StreamingNodeRegistry

	frameNumber uint64
}

// NewStreamingNode builds a streaming node with a graph-unique string id
// and a fresh UUID for registry lookups, registering its stream with
// registry under name.
func NewStreamingNode(idStr, name string, registry *processing.StreamingNodeRegistry) *StreamingNode {
	n := &StreamingNode{
		idStr:    idStr,
		idUUID:   uuid.New(),
		name:     name,
		stream:   acquisition.NewSharedAudioStream(streamingNodeRingCapacity),
		registry: registry,
	}
	registry.RegisterStream(n.idUUID, name, n.stream)
	return n
}

// StreamID returns the UUID this node is registered under.
func (n *StreamingNode) StreamID() uuid.UUID { return n.idUUID }

func (n *StreamingNode) ID() string   { return n.idStr }
func (n *StreamingNode) Type() string { return "streaming" }

func (n *StreamingNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindDualChannel {
		return input, nil
	}

	n.frameNumber++
	_ = n.stream.Publish(&acquisition.AudioFrame{
		ChannelA:    input.ChannelA,
		ChannelB:    input.ChannelB,
		SampleRate:  input.SampleRate,
		TimestampMs: input.Timestamp,
		FrameNumber: n.frameNumber,
	})

	return input, nil
}

func (n *StreamingNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel
}

func (n *StreamingNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	return input.Kind, true
}

func (n *StreamingNode) Reset() { n.frameNumber = 0 }

func (n *StreamingNode) SupportsHotReload() bool { return false }

func (n *StreamingNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }

// Close unregisters the node's stream and releases its consumers.
func (n *StreamingNode) Close() {
	n.registry.UnregisterStream(n.idUUID)
	n.stream.Close()
}
