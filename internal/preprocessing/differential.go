package preprocessing

import (
	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

// DifferentialCalculator computes a single-channel differential signal
// from two related channels, grounded on the original differential.rs.
type DifferentialCalculator interface {
	Calculate(channelA, channelB []float32) ([]float32, error)
}

// SimpleDifferential subtracts channel B from channel A sample-by-sample.
type SimpleDifferential struct{}

// NewSimpleDifferential builds the subtraction-only calculator.
func NewSimpleDifferential() *SimpleDifferential { return &SimpleDifferential{} }

func (SimpleDifferential) Calculate(channelA, channelB []float32) ([]float32, error) {
	if len(channelA) != len(channelB) {
		return nil, errors.New(errors.NewStd("channel lengths don't match")).
			Category(errors.CategoryProcessing).
			Context("channel_a_len", len(channelA)).
			Context("channel_b_len", len(channelB)).
			Build()
	}
	result := make([]float32, len(channelA))
	for i := range channelA {
		result[i] = channelA[i] - channelB[i]
	}
	return result, nil
}

// WeightedDifferential computes a*channelA - b*channelB, a Go-native
// extension used where the two channels need independent gain correction
// before subtraction (e.g. mismatched microphone sensitivities).
type WeightedDifferential struct {
	WeightA, WeightB float32
}

// NewWeightedDifferential builds a weighted calculator.
func NewWeightedDifferential(weightA, weightB float32) *WeightedDifferential {
	return &WeightedDifferential{WeightA: weightA, WeightB: weightB}
}

func (d WeightedDifferential) Calculate(channelA, channelB []float32) ([]float32, error) {
	if len(channelA) != len(channelB) {
		return nil, errors.New(errors.NewStd("channel lengths don't match")).
			Category(errors.CategoryProcessing).
			Context("channel_a_len", len(channelA)).
			Context("channel_b_len", len(channelB)).
			Build()
	}
	result := make([]float32, len(channelA))
	for i := range channelA {
		result[i] = d.WeightA*channelA[i] - d.WeightB*channelB[i]
	}
	return result, nil
}
