package acquisition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
)

func frame(n uint64) *acquisition.AudioFrame {
	return &acquisition.AudioFrame{
		ChannelA:    []float32{0.1, 0.2},
		ChannelB:    []float32{0.3, 0.4},
		SampleRate:  48000,
		TimestampMs: int64(n) * 10,
		FrameNumber: n,
	}
}

func TestPublishAndSubscribe_OrderPreserved(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	consumer := stream.Subscribe()
	defer consumer.Close()

	require.NoError(t, stream.Publish(frame(1)))
	require.NoError(t, stream.Publish(frame(2)))

	f1, ok := consumer.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(1), f1.FrameNumber)

	f2, ok := consumer.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(2), f2.FrameNumber)
}

func TestNextFrame_TimesOutWithoutAdvancing(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	consumer := stream.Subscribe()
	defer consumer.Close()

	_, ok := consumer.NextFrame(20 * time.Millisecond)
	assert.False(t, ok)

	require.NoError(t, stream.Publish(frame(1)))
	f, ok := consumer.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(1), f.FrameNumber)
}

func TestLaggedConsumer_DropsAndSkipsToOldestResident(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(2)
	consumer := stream.Subscribe()
	defer consumer.Close()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, stream.Publish(frame(i)))
	}

	f, ok := consumer.NextFrame(time.Second)
	require.True(t, ok)
	// capacity 2, 5 published: consumer should land on frame 4 (oldest resident).
	assert.Equal(t, uint64(4), f.FrameNumber)
	assert.Positive(t, consumer.DroppedFrames())
}

func TestSubscribe_StartsAtNewestPositionNotHistory(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	require.NoError(t, stream.Publish(frame(1)))

	consumer := stream.Subscribe()
	defer consumer.Close()

	_, ok := consumer.NextFrame(20 * time.Millisecond)
	assert.False(t, ok, "subscriber should not see frames published before it subscribed")

	require.NoError(t, stream.Publish(frame(2)))
	f, ok := consumer.NextFrame(time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.FrameNumber)
}

func TestLatest_DoesNotAdvanceCursor(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	require.NoError(t, stream.Publish(frame(1)))
	require.NoError(t, stream.Publish(frame(2)))

	assert.Equal(t, uint64(2), stream.Latest().FrameNumber)

	consumer := stream.Subscribe()
	defer consumer.Close()
	assert.Equal(t, uint64(2), stream.Latest().FrameNumber)
}

func TestStats_ReflectsPublishedFramesAndSubscribers(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	c1 := stream.Subscribe()
	defer c1.Close()
	c2 := stream.Subscribe()
	defer c2.Close()

	require.NoError(t, stream.Publish(frame(1)))
	stats := stream.Stats()
	assert.Equal(t, uint64(1), stats.TotalFrames)
	assert.Equal(t, 2, stats.ActiveSubscribers)
	assert.False(t, stats.LastFrameAt.IsZero())
}

func TestPublish_FailsAfterClose(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	stream.Close()
	err := stream.Publish(frame(1))
	assert.Error(t, err)
}

func TestConsumerClose_DecrementsSubscriberCount(t *testing.T) {
	stream := acquisition.NewSharedAudioStream(4)
	consumer := stream.Subscribe()
	assert.Equal(t, 1, stream.Stats().ActiveSubscribers)
	consumer.Close()
	assert.Equal(t, 0, stream.Stats().ActiveSubscribers)
	consumer.Close() // idempotent
	assert.Equal(t, 0, stream.Stats().ActiveSubscribers)
}
