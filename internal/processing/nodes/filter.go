package nodes

import (
	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/preprocessing"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// FilterNode applies a digital filter to one or both channels of its
// input, grounded on nodes.rs's FilterNode.
type FilterNode struct {
	id     string
	filter preprocessing.Filter
	target ChannelTarget
}

// NewFilterNode builds a filter node wrapping the given Filter implementation.
func NewFilterNode(id string, filter preprocessing.Filter, target ChannelTarget) *FilterNode {
	return &FilterNode{id: id, filter: filter, target: target}
}

func (n *FilterNode) ID() string   { return n.id }
func (n *FilterNode) Type() string { return "filter" }

func (n *FilterNode) Process(input processing.Data) (processing.Data, error) {
	switch input.Kind {
	case processing.KindDualChannel:
		a, b := input.ChannelA, input.ChannelB
		switch n.target {
		case ChannelA:
			a = n.filter.Apply(a)
		case ChannelB:
			b = n.filter.Apply(b)
		case ChannelBoth:
			a = n.filter.Apply(a)
			b = n.filter.Apply(b)
		}
		return processing.NewDualChannelData(a, b, input.SampleRate, input.Timestamp, input.FrameNumber), nil
	case processing.KindSingleChannel:
		filtered := n.filter.Apply(input.Samples)
		return processing.NewSingleChannelData(filtered, input.SampleRate, input.Timestamp, input.FrameNumber), nil
	default:
		return processing.Data{}, errors.New(errors.NewStd("filter node requires dual-channel or single-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}
}

func (n *FilterNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel || input.Kind == processing.KindSingleChannel
}

func (n *FilterNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	switch input.Kind {
	case processing.KindDualChannel, processing.KindSingleChannel:
		return input.Kind, true
	default:
		return 0, false
	}
}

// Reset is a no-op: the wrapped Filter implementations here are stateless
// across calls to Apply (each call starts its biquad state at zero).
func (n *FilterNode) Reset() {}

func (n *FilterNode) SupportsHotReload() bool { return false }

func (n *FilterNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }
