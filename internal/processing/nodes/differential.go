package nodes

import (
	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/preprocessing"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// DifferentialNode reduces a DualChannel value to the SingleChannel
// differential signal between its two channels, grounded on nodes.rs's
// DifferentialNode.
type DifferentialNode struct {
	id         string
	calculator preprocessing.DifferentialCalculator
}

// NewDifferentialNode builds a differential node using calculator.
func NewDifferentialNode(id string, calculator preprocessing.DifferentialCalculator) *DifferentialNode {
	return &DifferentialNode{id: id, calculator: calculator}
}

func (n *DifferentialNode) ID() string   { return n.id }
func (n *DifferentialNode) Type() string { return "differential" }

func (n *DifferentialNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindDualChannel {
		return processing.Data{}, errors.New(errors.NewStd("differential node requires dual-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	signal, err := n.calculator.Calculate(input.ChannelA, input.ChannelB)
	if err != nil {
		return processing.Data{}, errors.New(err).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	return processing.NewSingleChannelData(signal, input.SampleRate, input.Timestamp, input.FrameNumber), nil
}

func (n *DifferentialNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel
}

func (n *DifferentialNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if input.Kind != processing.KindDualChannel {
		return 0, false
	}
	return processing.KindSingleChannel, true
}

func (n *DifferentialNode) Reset() {}

func (n *DifferentialNode) SupportsHotReload() bool { return false }

func (n *DifferentialNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }
