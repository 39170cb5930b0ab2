package acquisition

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/logging"
)

// readErrorBackoff is how long a pull daemon waits after a ReadFrame error
// before retrying, so a flaky source doesn't spin the CPU.
const readErrorBackoff = 100 * time.Millisecond

// pushStatsInterval is how often a push daemon checks its source is still
// streaming and logs throughput.
const pushStatsInterval = 5 * time.Second

// Daemon drives a PullSource or PushSource into a SharedAudioStream. Start
// is idempotent while running; Stop is idempotent and blocks until the
// daemon's goroutines have exited.
type Daemon struct {
	stream    *SharedAudioStream
	frameSize int
	targetFPS float64

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	frameCount atomic.Uint64
	logger     *slog.Logger

	pull PullSource
	push PushSource
}

// NewPullDaemon builds a daemon that periodically calls ReadFrame on
// source at targetFPS and publishes each result onto stream.
func NewPullDaemon(source PullSource, stream *SharedAudioStream, frameSize int, targetFPS float64) *Daemon {
	return &Daemon{
		stream:    stream,
		frameSize: frameSize,
		targetFPS: targetFPS,
		pull:      source,
		logger:    acquisitionLogger(),
	}
}

// NewPushDaemon builds a daemon that starts source streaming directly onto
// stream and supervises it until Stop is called.
func NewPushDaemon(source PushSource, stream *SharedAudioStream, frameSize int) *Daemon {
	return &Daemon{
		stream:    stream,
		frameSize: frameSize,
		push:      source,
		logger:    acquisitionLogger(),
	}
}

// acquisitionLogger returns the service logger, falling back to the
// default slog logger before logging.Init has run.
func acquisitionLogger() *slog.Logger {
	logger := logging.ForService("acquisition")
	if logger == nil {
		logger = slog.Default()
	}
	return logger
}

// IsRunning reports whether the daemon's loop is currently active.
func (d *Daemon) IsRunning() bool { return d.running.Load() }

// FrameCount returns the number of frames this daemon has published.
func (d *Daemon) FrameCount() uint64 { return d.frameCount.Load() }

// Start begins acquisition. Calling Start while already running returns nil.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ctx != nil {
		return nil
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running.Store(true)

	switch {
	case d.pull != nil:
		d.wg.Add(1)
		go d.pullLoop()
	case d.push != nil:
		if err := d.push.StartStreaming(d.stream, d.frameSize); err != nil {
			d.running.Store(false)
			d.ctx, d.cancel = nil, nil
			return err
		}
		d.wg.Add(1)
		go d.pushSupervisor()
	default:
		d.running.Store(false)
		d.ctx, d.cancel = nil, nil
		return errors.New(errors.NewStd("daemon has neither a pull nor a push source")).
			Category(errors.CategoryState).
			Build()
	}

	d.logger.Info("acquisition daemon started", "frame_size", d.frameSize)
	return nil
}

// Stop halts acquisition and waits for its goroutines to exit. Idempotent.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	d.wg.Wait()

	if d.push != nil {
		if err := d.push.StopStreaming(); err != nil {
			d.logger.Error("error stopping push source", "error", err)
		}
	}

	d.mu.Lock()
	d.ctx, d.cancel = nil, nil
	d.mu.Unlock()
	d.running.Store(false)

	d.logger.Info("acquisition daemon stopped", "frames_published", d.frameCount.Load())
	return nil
}

// pullLoop reads frames from the pull source at targetFPS and publishes
// them. A read error backs off rather than terminating, since most sources
// recover from a transient I/O hiccup; EOF (empty channels, nil error)
// terminates the loop cleanly.
func (d *Daemon) pullLoop() {
	defer d.wg.Done()

	interval := time.Second
	if d.targetFPS > 0 {
		interval = time.Duration(float64(time.Second) / d.targetFPS)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var frameNumber uint64
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			a, b, err := d.pull.ReadFrame(d.ctx, d.frameSize)
			if err != nil {
				if d.ctx.Err() != nil {
					return
				}
				d.logger.Warn("read error, backing off", "error", err)
				time.Sleep(readErrorBackoff)
				continue
			}
			if len(a) == 0 && len(b) == 0 {
				d.logger.Info("source reached end of stream")
				d.running.Store(false)
				return
			}

			frameNumber++
			if err := d.stream.Publish(&AudioFrame{
				ChannelA:    a,
				ChannelB:    b,
				SampleRate:  d.pull.SampleRate(),
				TimestampMs: time.Now().UnixMilli(),
				FrameNumber: frameNumber,
			}); err != nil {
				return
			}
			d.frameCount.Add(1)
		}
	}
}

// pushSupervisor periodically checks that the push source is still
// streaming and logs a warning if it has stopped on its own (e.g. device
// unplugged), without attempting to restart it.
func (d *Daemon) pushSupervisor() {
	defer d.wg.Done()

	ticker := time.NewTicker(pushStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if !d.push.IsStreaming() {
				d.logger.Warn("push source is no longer streaming")
				continue
			}
			stats := d.stream.Stats()
			d.logger.Info("acquisition stats",
				"total_frames", stats.TotalFrames,
				"fps", stats.FPS,
				"subscribers", stats.ActiveSubscribers,
				"dropped_frames", stats.DroppedFrames)
			d.frameCount.Store(stats.TotalFrames)
		}
	}
}
