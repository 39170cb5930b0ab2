package nodes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/preprocessing"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
	"github.com/sctg-development/photoacoustic-go/internal/processing/nodes"
)

func dualChannel() processing.Data {
	return processing.NewDualChannelData([]float32{0.3, 0.4}, []float32{0.1, 0.2}, 44100, 1000, 1)
}

func TestInputNode_ConvertsAudioFrameToDualChannel(t *testing.T) {
	node := nodes.NewInputNode("input")
	frame := &acquisition.AudioFrame{
		ChannelA:    []float32{0.1, 0.2, 0.3},
		ChannelB:    []float32{0.4, 0.5, 0.6},
		SampleRate:  44100,
		TimestampMs: 1000,
		FrameNumber: 1,
	}
	out, err := node.Process(processing.NewAudioFrameData(frame))
	require.NoError(t, err)
	assert.Equal(t, processing.KindDualChannel, out.Kind)
}

func TestInputNode_PassesThroughOtherKinds(t *testing.T) {
	node := nodes.NewInputNode("input")
	data := dualChannel()
	out, err := node.Process(data)
	require.NoError(t, err)
	assert.Equal(t, processing.KindDualChannel, out.Kind)
}

func TestChannelSelectorNode_SelectsChannelA(t *testing.T) {
	node := nodes.NewChannelSelectorNode("sel", nodes.ChannelA)
	out, err := node.Process(dualChannel())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.4}, out.Samples)
}

func TestChannelSelectorNode_RejectsBoth(t *testing.T) {
	node := nodes.NewChannelSelectorNode("sel", nodes.ChannelBoth)
	_, err := node.Process(dualChannel())
	assert.Error(t, err)
}

func TestChannelMixerNode_AddStrategy(t *testing.T) {
	node := nodes.NewChannelMixerNode("mix", nodes.MixStrategy{Kind: nodes.MixAdd})
	out, err := node.Process(dualChannel())
	require.NoError(t, err)
	assert.Equal(t, []float32{0.4, 0.6}, out.Samples)
}

func TestChannelMixerNode_WeightedViaUpdateConfig(t *testing.T) {
	node := nodes.NewChannelMixerNode("mix", nodes.MixStrategy{Kind: nodes.MixAverage})
	updated, err := node.UpdateConfig(map[string]any{"a_weight": 1.0, "b_weight": -1.0})
	require.NoError(t, err)
	assert.True(t, updated)

	out, err := node.Process(dualChannel())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.2}, toFloat64(out.Samples), 0.0001)
}

func TestFilterNode_AppliesToBothChannels(t *testing.T) {
	node := nodes.NewFilterNode("filt", preprocessing.NewLowpassFilter(500), nodes.ChannelBoth)
	out, err := node.Process(dualChannel())
	require.NoError(t, err)
	assert.Equal(t, processing.KindDualChannel, out.Kind)
	assert.Len(t, out.ChannelA, 2)
}

func TestDifferentialNode_SubtractsChannels(t *testing.T) {
	node := nodes.NewDifferentialNode("diff", preprocessing.NewSimpleDifferential())
	out, err := node.Process(dualChannel())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.2, 0.2}, toFloat64(out.Samples), 0.0001)
}

func TestGainNode_UnityGainIsNoop(t *testing.T) {
	node := nodes.NewGainNode("gain", 0)
	data := processing.NewSingleChannelData([]float32{0.5, -0.5}, 44100, 1000, 1)
	out, err := node.Process(data)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, -0.5}, toFloat64(out.Samples), 0.001)
}

func TestGainNode_RejectsPhotoacousticResult(t *testing.T) {
	node := nodes.NewGainNode("gain", 6)
	_, err := node.Process(processing.NewPhotoacousticResultData([]float32{0.1}, processing.Metadata{}))
	assert.Error(t, err)
}

func TestGainNode_UpdateConfigChangesGain(t *testing.T) {
	node := nodes.NewGainNode("gain", 0)
	updated, err := node.UpdateConfig(map[string]any{"gain_db": 20.0})
	require.NoError(t, err)
	assert.True(t, updated)
	assert.InDelta(t, 20.0, node.GainDb(), 0.001)
}

func TestDbToLinear_KnownConversions(t *testing.T) {
	assert.InDelta(t, 1.0, nodes.DbToLinear(0), 0.001)
	assert.InDelta(t, 10.0, nodes.DbToLinear(20), 0.001)
	assert.InDelta(t, 0.1, nodes.DbToLinear(-20), 0.001)
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
