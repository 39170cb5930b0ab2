package acquisition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
)

// PortAudio requires a real host API, so these tests exercise only the
// state machine around StartStreaming/StopStreaming, not an opened device.

func TestMicSource_SampleRateReflectsConstructor(t *testing.T) {
	mic := acquisition.NewMicSource("", 48000, 1.0)
	assert.Equal(t, 48000, mic.SampleRate())
}

func TestMicSource_NotStreamingBeforeStart(t *testing.T) {
	mic := acquisition.NewMicSource("", 48000, 1.0)
	assert.False(t, mic.IsStreaming())
}

func TestMicSource_StopStreamingIsIdempotentWhenNeverStarted(t *testing.T) {
	mic := acquisition.NewMicSource("", 48000, 1.0)
	require.NoError(t, mic.StopStreaming())
	require.NoError(t, mic.StopStreaming())
	assert.False(t, mic.IsStreaming())
}

func TestMicSource_UnknownDeviceNameFailsToResolve(t *testing.T) {
	mic := acquisition.NewMicSource("nonexistent-device-xyz", 48000, 1.0)
	err := mic.StartStreaming(acquisition.NewSharedAudioStream(4), 64)
	assert.Error(t, err)
	assert.False(t, mic.IsStreaming())
}
