package processing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

func TestFromAudioFrame_ProducesDualChannel(t *testing.T) {
	frame := &acquisition.AudioFrame{
		ChannelA:    []float32{0.1, 0.2, 0.3},
		ChannelB:    []float32{0.4, 0.5, 0.6},
		SampleRate:  44100,
		TimestampMs: 1000,
		FrameNumber: 1,
	}

	data := processing.FromAudioFrame(frame)
	assert.Equal(t, processing.KindDualChannel, data.Kind)
	assert.Len(t, data.ChannelA, 3)
	assert.Len(t, data.ChannelB, 3)
	assert.Equal(t, 44100, data.SampleRate)
}

func TestSampleRateOf_AudioFrameKind(t *testing.T) {
	frame := &acquisition.AudioFrame{SampleRate: 48000}
	data := processing.NewAudioFrameData(frame)

	rate, ok := data.SampleRateOf()
	assert.True(t, ok)
	assert.Equal(t, 48000, rate)
}

func TestSampleRateOf_PhotoacousticResultHasNone(t *testing.T) {
	data := processing.NewPhotoacousticResultData([]float32{0.1}, processing.Metadata{SampleRate: 44100})

	_, ok := data.SampleRateOf()
	assert.False(t, ok)
}

func TestFrameNumberOf_SingleChannelKind(t *testing.T) {
	data := processing.NewSingleChannelData([]float32{0.1, 0.2}, 44100, 1000, 7)

	n, ok := data.FrameNumberOf()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), n)
}

func TestDataKindString(t *testing.T) {
	assert.Equal(t, "dual_channel", processing.KindDualChannel.String())
	assert.Equal(t, "photoacoustic_result", processing.KindPhotoacousticResult.String())
}
