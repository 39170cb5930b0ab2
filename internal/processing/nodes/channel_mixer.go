package nodes

import (
	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// MixStrategyKind selects how ChannelMixerNode combines two channels.
type MixStrategyKind int

const (
	MixAdd MixStrategyKind = iota
	MixSubtract
	MixAverage
	MixWeighted
)

// MixStrategy is the mixer's configuration: Kind selects the formula,
// AWeight/BWeight are only read for MixWeighted.
type MixStrategy struct {
	Kind    MixStrategyKind
	AWeight float32
	BWeight float32
}

// ChannelMixerNode combines two channels of a DualChannel value into one,
// grounded on nodes.rs's ChannelMixerNode/MixStrategy.
type ChannelMixerNode struct {
	id       string
	strategy MixStrategy
}

// NewChannelMixerNode builds a mixer using the given strategy.
func NewChannelMixerNode(id string, strategy MixStrategy) *ChannelMixerNode {
	return &ChannelMixerNode{id: id, strategy: strategy}
}

func (n *ChannelMixerNode) ID() string   { return n.id }
func (n *ChannelMixerNode) Type() string { return "channel_mixer" }

func (n *ChannelMixerNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindDualChannel {
		return processing.Data{}, errors.New(errors.NewStd("channel mixer requires dual-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}
	if len(input.ChannelA) != len(input.ChannelB) {
		return processing.Data{}, errors.New(errors.NewStd("channel lengths must match for mixing")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	mixed := make([]float32, len(input.ChannelA))
	for i := range mixed {
		a, b := input.ChannelA[i], input.ChannelB[i]
		switch n.strategy.Kind {
		case MixAdd:
			mixed[i] = a + b
		case MixSubtract:
			mixed[i] = a - b
		case MixAverage:
			mixed[i] = (a + b) / 2
		case MixWeighted:
			mixed[i] = a*n.strategy.AWeight + b*n.strategy.BWeight
		}
	}

	return processing.NewSingleChannelData(mixed, input.SampleRate, input.Timestamp, input.FrameNumber), nil
}

func (n *ChannelMixerNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel
}

func (n *ChannelMixerNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if input.Kind != processing.KindDualChannel {
		return 0, false
	}
	return processing.KindSingleChannel, true
}

func (n *ChannelMixerNode) Reset() {}

func (n *ChannelMixerNode) SupportsHotReload() bool { return true }

// UpdateConfig applies the "a_weight"/"b_weight" parameters; either one
// switches the strategy to MixWeighted. No other parameter is read.
func (n *ChannelMixerNode) UpdateConfig(parameters map[string]any) (bool, error) {
	updated := false
	if aw, ok := parameters["a_weight"].(float64); ok {
		n.strategy.Kind = MixWeighted
		n.strategy.AWeight = float32(aw)
		updated = true
	}
	if bw, ok := parameters["b_weight"].(float64); ok {
		n.strategy.Kind = MixWeighted
		n.strategy.BWeight = float32(bw)
		updated = true
	}
	return updated, nil
}
