// Package acquisition bridges raw audio sources into the processing graph:
// a bounded broadcast stream (SharedAudioStream), the AudioSource
// abstraction over mic/file/synthetic inputs, and the daemons that drive
// one into the other.
package acquisition

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/metrics"
)

// streamMetricsLabel identifies this stream to the metrics package. Every
// process runs a single shared stream, so a constant label is sufficient.
const streamMetricsLabel = "shared_audio_stream"

// AudioFrame is a fixed-size pair of equal-length channels published onto a
// SharedAudioStream. Once published it is treated as immutable.
type AudioFrame struct {
	ChannelA    []float32
	ChannelB    []float32
	SampleRate  int
	TimestampMs int64
	FrameNumber uint64
}

// DurationMs returns the playback duration of the frame in milliseconds.
func (f *AudioFrame) DurationMs() float64 {
	if f == nil || f.SampleRate == 0 {
		return 0
	}
	return 1000 * float64(len(f.ChannelA)) / float64(f.SampleRate)
}

// StreamStats is a point-in-time snapshot of a SharedAudioStream.
type StreamStats struct {
	TotalFrames       uint64
	ActiveSubscribers int
	FPS               float64
	DroppedFrames     uint64
	LastFrameAt       time.Time
}

// SharedAudioStream is a single-producer, multi-consumer broadcast of
// AudioFrames over a fixed-capacity ring. Publish never blocks: a consumer
// that falls more than capacity frames behind has its cursor advanced and
// is credited dropped frames on its next read, rather than stalling the
// producer.
type SharedAudioStream struct {
	capacity uint64
	slots    []atomic.Pointer[AudioFrame]

	writeCursor  atomic.Uint64
	totalFrames  atomic.Uint64
	droppedTotal atomic.Uint64
	subscribers  atomic.Int64
	closed       atomic.Bool

	// waitMu/waitCh implement publish notification: each publish closes
	// the current channel and installs a fresh one, waking every blocked
	// consumer. The critical section is a single channel swap, so a lone
	// producer never contends with readers.
	waitMu sync.Mutex
	waitCh chan struct{}

	// fpsMu guards the rolling FPS window. Only the producer writes here,
	// so there is no cross-goroutine contention in the common case.
	fpsMu          sync.Mutex
	fpsWindowStart time.Time
	fpsWindowCount uint64
	fpsBits        atomic.Uint64
	lastFrameAtNs  atomic.Int64
}

// NewSharedAudioStream creates a stream with the given ring capacity.
func NewSharedAudioStream(capacity int) *SharedAudioStream {
	if capacity <= 0 {
		capacity = 1
	}
	s := &SharedAudioStream{
		capacity: uint64(capacity),
		slots:    make([]atomic.Pointer[AudioFrame], capacity),
		waitCh:   make(chan struct{}),
	}
	s.fpsWindowStart = time.Now()
	return s
}

// Publish appends frame to the ring, overwriting the oldest slot when full.
// It returns an error only once the stream has been closed.
func (s *SharedAudioStream) Publish(frame *AudioFrame) error {
	if s.closed.Load() {
		return errors.New(errors.NewStd("publish on closed stream")).
			Category(errors.CategoryBroadcast).
			Build()
	}

	idx := s.writeCursor.Load() % s.capacity
	s.slots[idx].Store(frame)
	s.writeCursor.Add(1)
	s.totalFrames.Add(1)
	now := time.Now()
	s.lastFrameAtNs.Store(now.UnixNano())

	s.fpsMu.Lock()
	s.fpsWindowCount++
	if elapsed := now.Sub(s.fpsWindowStart); elapsed >= time.Second {
		fps := float64(s.fpsWindowCount) / elapsed.Seconds()
		s.fpsBits.Store(math.Float64bits(fps))
		s.fpsWindowStart = now
		s.fpsWindowCount = 0
	}
	s.fpsMu.Unlock()

	s.waitMu.Lock()
	close(s.waitCh)
	s.waitCh = make(chan struct{})
	s.waitMu.Unlock()

	metrics.Global().RecordFramePublished(streamMetricsLabel)

	return nil
}

// Close marks the stream closed. Further Publish calls fail; existing
// subscribers continue to drain any frames already in the ring.
func (s *SharedAudioStream) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.waitMu.Lock()
		close(s.waitCh)
		s.waitCh = make(chan struct{})
		s.waitMu.Unlock()
	}
}

// Latest peeks the most recently published frame without advancing any
// consumer cursor. Returns nil if nothing has been published yet.
func (s *SharedAudioStream) Latest() *AudioFrame {
	wc := s.writeCursor.Load()
	if wc == 0 {
		return nil
	}
	idx := (wc - 1) % s.capacity
	return s.slots[idx].Load()
}

// Stats returns a snapshot of the stream's counters.
func (s *SharedAudioStream) Stats() StreamStats {
	fps := math.Float64frombits(s.fpsBits.Load())
	var lastFrameAt time.Time
	if ns := s.lastFrameAtNs.Load(); ns != 0 {
		lastFrameAt = time.Unix(0, ns)
	}
	return StreamStats{
		TotalFrames:       s.totalFrames.Load(),
		ActiveSubscribers: int(s.subscribers.Load()),
		FPS:               fps,
		DroppedFrames:     s.droppedTotal.Load(),
		LastFrameAt:       lastFrameAt,
	}
}

// Consumer is a per-subscriber cursor into a SharedAudioStream.
type Consumer struct {
	stream  *SharedAudioStream
	cursor  uint64
	dropped uint64
	closed  atomic.Bool
}

// Subscribe returns a Consumer whose cursor starts at the current write
// position: it observes frames published from this point on, not the
// stream's history.
func (s *SharedAudioStream) Subscribe() *Consumer {
	s.subscribers.Add(1)
	return &Consumer{stream: s, cursor: s.writeCursor.Load()}
}

// Close releases the consumer's slot in the stream's subscriber count.
// Idempotent.
func (c *Consumer) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.stream.subscribers.Add(-1)
	}
}

// DroppedFrames returns the number of frames this consumer has lost to
// producer overwrite since it subscribed.
func (c *Consumer) DroppedFrames() uint64 {
	return c.dropped
}

// NextFrame returns the next frame once available, or (nil, false) if
// timeout elapses first. If the consumer has fallen more than the ring's
// capacity behind the producer, its cursor is advanced to the oldest frame
// still resident and the skip distance is added to its drop counter.
func (c *Consumer) NextFrame(timeout time.Duration) (*AudioFrame, bool) {
	deadline := time.Now().Add(timeout)
	for {
		wc := c.stream.writeCursor.Load()
		if wc > c.cursor {
			if wc-c.cursor > c.stream.capacity {
				skip := wc - c.cursor - c.stream.capacity
				c.dropped += skip
				c.stream.droppedTotal.Add(skip)
				c.cursor = wc - c.stream.capacity
				for range skip {
					metrics.Global().RecordFrameDropped(streamMetricsLabel)
				}
			}
			idx := c.cursor % c.stream.capacity
			frame := c.stream.slots[idx].Load()
			c.cursor++
			return frame, true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}

		c.stream.waitMu.Lock()
		ch := c.stream.waitCh
		c.stream.waitMu.Unlock()

		select {
		case <-ch:
		case <-time.After(remaining):
			return nil, false
		}
	}
}
