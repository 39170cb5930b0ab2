package nodes

import (
	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// ChannelSelectorNode extracts a single channel out of a DualChannel value,
// grounded on nodes.rs's ChannelSelectorNode.
type ChannelSelectorNode struct {
	id     string
	target ChannelTarget
}

// NewChannelSelectorNode builds a selector. target must be ChannelA or
// ChannelB; ChannelBoth is rejected at Process time.
func NewChannelSelectorNode(id string, target ChannelTarget) *ChannelSelectorNode {
	return &ChannelSelectorNode{id: id, target: target}
}

func (n *ChannelSelectorNode) ID() string   { return n.id }
func (n *ChannelSelectorNode) Type() string { return "channel_selector" }

func (n *ChannelSelectorNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindDualChannel {
		return processing.Data{}, errors.New(errors.NewStd("channel selector requires dual-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	var samples []float32
	switch n.target {
	case ChannelA:
		samples = input.ChannelA
	case ChannelB:
		samples = input.ChannelB
	default:
		return processing.Data{}, errors.New(errors.NewStd("channel selector cannot target both channels")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	return processing.NewSingleChannelData(samples, input.SampleRate, input.Timestamp, input.FrameNumber), nil
}

func (n *ChannelSelectorNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel
}

func (n *ChannelSelectorNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if input.Kind != processing.KindDualChannel {
		return 0, false
	}
	return processing.KindSingleChannel, true
}

func (n *ChannelSelectorNode) Reset() {}

func (n *ChannelSelectorNode) SupportsHotReload() bool { return false }

func (n *ChannelSelectorNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }
