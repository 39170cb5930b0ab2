package acquisition

import "context"

// PullSource is driven by the caller: it blocks until a full frame_size
// pair of samples is ready, or signals end-of-stream with an empty pair.
// Files and synthetic generators are naturally pull sources.
type PullSource interface {
	// ReadFrame blocks until frameSize samples per channel are available
	// and returns them, or returns two empty slices to signal EOF.
	ReadFrame(ctx context.Context, frameSize int) (channelA, channelB []float32, err error)
	SampleRate() int
	Close() error
}

// PushSource drives publication itself, at its own rate, typically from a
// device callback with irregularly sized chunks. Stop must be idempotent
// and return promptly.
type PushSource interface {
	StartStreaming(stream *SharedAudioStream, frameSize int) error
	StopStreaming() error
	IsStreaming() bool
	SampleRate() int
}
