package nodes_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/processing"
	"github.com/sctg-development/photoacoustic-go/internal/processing/nodes"
)

func sineWave(frequency float32, sampleRate, count int) []float32 {
	samples := make([]float32, count)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * float64(frequency) * float64(i) / float64(sampleRate)))
	}
	return samples
}

func TestPeakFinderNode_DetectsKnownFrequency(t *testing.T) {
	const sampleRate = 48000
	const fftSize = 2048
	freqResolution := float32(sampleRate) / float32(fftSize)
	targetBin := 85
	targetFrequency := float32(targetBin) * freqResolution

	state := processing.NewSharedVisualizationState()
	node := nodes.NewPeakFinderNode("peak", state)

	data := processing.NewSingleChannelData(sineWave(targetFrequency, sampleRate, fftSize*5), sampleRate, 0, 1)
	out, err := node.Process(data)
	require.NoError(t, err)
	assert.Equal(t, processing.KindSingleChannel, out.Kind)

	result, ok := state.PeakResultFor("peak")
	require.True(t, ok, "expected a coherent peak detection to be published")
	assert.InDelta(t, targetFrequency, result.Frequency, float64(freqResolution))
}

func TestPeakFinderNode_PassesThroughWithoutEnoughSamples(t *testing.T) {
	state := processing.NewSharedVisualizationState()
	node := nodes.NewPeakFinderNode("peak", state)

	data := processing.NewSingleChannelData(make([]float32, 16), 48000, 0, 1)
	out, err := node.Process(data)
	require.NoError(t, err)
	assert.Len(t, out.Samples, 16)

	_, ok := state.PeakResultFor("peak")
	assert.False(t, ok)
}

func TestPeakFinderNode_RejectsPhotoacousticResult(t *testing.T) {
	node := nodes.NewPeakFinderNode("peak", nil)
	_, err := node.Process(processing.NewPhotoacousticResultData([]float32{0.1}, processing.Metadata{}))
	assert.Error(t, err)
}

func TestPeakFinderNode_DetectionThresholdIsHotReloadable(t *testing.T) {
	node := nodes.NewPeakFinderNode("peak", nil).WithDetectionThreshold(2.0)
	assert.True(t, node.SupportsHotReload())

	updated, err := node.UpdateConfig(map[string]any{"detection_threshold": 0.5})
	require.NoError(t, err)
	assert.True(t, updated)
}
