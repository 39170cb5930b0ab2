package nodes

import (
	"math"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// GainNode scales sample amplitude by a fixed decibel gain, grounded on
// nodes/gain.rs.
type GainNode struct {
	id         string
	gainDb     float32
	linearGain float32
}

// NewGainNode builds a gain node. gainDb is positive for amplification,
// negative for attenuation, zero for unity gain.
func NewGainNode(id string, gainDb float32) *GainNode {
	return &GainNode{id: id, gainDb: gainDb, linearGain: DbToLinear(gainDb)}
}

// DbToLinear converts a decibel gain to a linear amplitude multiplier.
func DbToLinear(gainDb float32) float32 {
	return float32(math.Pow(10, float64(gainDb)/20))
}

// LinearToDb converts a linear amplitude multiplier to decibels. Zero or
// negative input returns negative infinity, matching gain.rs.
func LinearToDb(linearGain float32) float32 {
	if linearGain <= 0 {
		return float32(math.Inf(-1))
	}
	return 20 * float32(math.Log10(float64(linearGain)))
}

// GainDb returns the node's current gain in decibels.
func (n *GainNode) GainDb() float32 { return n.gainDb }

// SetGainDb updates the gain, recomputing the cached linear factor.
func (n *GainNode) SetGainDb(gainDb float32) {
	n.gainDb = gainDb
	n.linearGain = DbToLinear(gainDb)
}

func (n *GainNode) ID() string   { return n.id }
func (n *GainNode) Type() string { return "gain" }

func (n *GainNode) applyGain(samples []float32) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * n.linearGain
	}
	return out
}

func (n *GainNode) Process(input processing.Data) (processing.Data, error) {
	switch input.Kind {
	case processing.KindSingleChannel:
		return processing.NewSingleChannelData(n.applyGain(input.Samples), input.SampleRate, input.Timestamp, input.FrameNumber), nil
	case processing.KindDualChannel:
		return processing.NewDualChannelData(
			n.applyGain(input.ChannelA), n.applyGain(input.ChannelB),
			input.SampleRate, input.Timestamp, input.FrameNumber), nil
	case processing.KindAudioFrame:
		if input.Frame == nil {
			return processing.Data{}, errors.New(errors.NewStd("gain node received a nil audio frame")).
				Category(errors.CategoryProcessing).
				Build()
		}
		scaled := *input.Frame
		scaled.ChannelA = n.applyGain(input.Frame.ChannelA)
		scaled.ChannelB = n.applyGain(input.Frame.ChannelB)
		return processing.NewAudioFrameData(&scaled), nil
	default:
		return processing.Data{}, errors.New(errors.NewStd("gain node cannot process a photoacoustic result")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}
}

func (n *GainNode) AcceptsInput(input processing.Data) bool {
	switch input.Kind {
	case processing.KindSingleChannel, processing.KindDualChannel, processing.KindAudioFrame:
		return true
	default:
		return false
	}
}

func (n *GainNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	switch input.Kind {
	case processing.KindSingleChannel, processing.KindDualChannel, processing.KindAudioFrame:
		return input.Kind, true
	default:
		return 0, false
	}
}

func (n *GainNode) Reset() {}

func (n *GainNode) SupportsHotReload() bool { return true }

// UpdateConfig applies a "gain_db" parameter in place.
func (n *GainNode) UpdateConfig(parameters map[string]any) (bool, error) {
	raw, ok := parameters["gain_db"]
	if !ok {
		return false, nil
	}
	gainDb, ok := raw.(float64)
	if !ok {
		return false, errors.New(errors.NewStd("gain_db parameter must be numeric")).
			Category(errors.CategoryValidation).
			Context("node_id", n.id).
			Build()
	}
	n.SetGainDb(float32(gainDb))
	return true, nil
}
