package processing

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/logging"
	"github.com/sctg-development/photoacoustic-go/internal/metrics"
)

// nextFrameTimeout bounds how long the consumer blocks waiting for a new
// frame before re-checking whether it has been asked to stop.
const nextFrameTimeout = 500 * time.Millisecond

// Stats is a point-in-time snapshot of a Consumer's processing activity,
// grounded on consumer.rs's ProcessingStats.
type Stats struct {
	TotalFramesProcessed  uint64
	ProcessingFailures    uint64
	AverageProcessingUs   float64
	MinProcessingUs       uint64
	MaxProcessingUs       uint64
	DetectionsCount       uint64
	LastProcessingUs      uint64
	FPS                   float64
	LastUpdate            time.Time
}

// Consumer drains a SharedAudioStream and runs every frame through a
// Graph, grounded on consumer.rs's ProcessingConsumer and restructured in
// the teacher's ProcessingPipeline idiom (internal/audiocore/processing_pipeline.go):
// a mutex-guarded ctx/cancel pair, a WaitGroup-tracked goroutine, and
// panic recovery around the loop body.
type Consumer struct {
	id     string
	stream *acquisition.SharedAudioStream
	graph  *Graph
	shared *SharedVisualizationState

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	consumer *acquisition.Consumer
	logger   *slog.Logger

	statsMu sync.RWMutex
	stats   Stats

	framesProcessed atomic.Uint64
	failures        atomic.Uint64
}

// NewConsumer builds a consumer bound to stream and graph. sharedState may
// be nil if no computing node in graph needs one.
func NewConsumer(id string, stream *acquisition.SharedAudioStream, graph *Graph, sharedState *SharedVisualizationState) *Consumer {
	logger := logging.ForService("processing")
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		id:     id,
		stream: stream,
		graph:  graph,
		shared: sharedState,
		logger: logger.With("consumer_id", id),
	}
}

// IsRunning reports whether the consumer's loop goroutine is active.
func (c *Consumer) IsRunning() bool { return c.running.Load() }

// FramesProcessed returns the number of frames that have completed
// processing, successfully or not.
func (c *Consumer) FramesProcessed() uint64 { return c.framesProcessed.Load() }

// ProcessingFailures returns the number of frames whose graph execution
// returned an error.
func (c *Consumer) ProcessingFailures() uint64 { return c.failures.Load() }

// Stats returns a snapshot of the consumer's running statistics.
func (c *Consumer) Stats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// Start subscribes to the stream and launches the processing loop. It is
// idempotent: calling Start on an already-running consumer is a no-op.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx != nil {
		c.logger.Warn("consumer already running")
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.consumer = c.stream.Subscribe()
	c.running.Store(true)

	c.wg.Add(1)
	go c.loop()

	c.logger.Info("processing consumer started")
	return nil
}

// Stop cancels the processing loop and waits for it to exit. Idempotent.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	c.wg.Wait()

	c.mu.Lock()
	if c.consumer != nil {
		c.consumer.Close()
		c.consumer = nil
	}
	c.ctx = nil
	c.cancel = nil
	c.mu.Unlock()

	c.running.Store(false)
	c.logger.Info("processing consumer stopped",
		"frames_processed", c.framesProcessed.Load(),
		"processing_failures", c.failures.Load())
	return nil
}

func (c *Consumer) loop() {
	defer c.wg.Done()
	defer c.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in processing consumer loop", "panic", r)
		}
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		frame, ok := c.consumer.NextFrame(nextFrameTimeout)
		if !ok {
			continue
		}

		start := time.Now()
		_, err := c.graph.Execute(Data{Kind: KindAudioFrame, Frame: frame})
		elapsed := time.Since(start)
		elapsedUs := uint64(elapsed.Microseconds())

		metrics.Global().RecordGraphExecution(c.id, elapsed.Seconds(), err)

		if err != nil {
			c.failures.Add(1)
			c.logger.Error("graph execution failed", "error", err)
		}
		total := c.framesProcessed.Add(1)

		c.updateStats(elapsedUs, err == nil)

		if total%100 == 0 {
			snapshot := c.Stats()
			c.logger.Debug("processing consumer progress",
				"frames_processed", snapshot.TotalFramesProcessed,
				"last_processing_us", snapshot.LastProcessingUs,
				"fps", snapshot.FPS)
		}
	}
}

func (c *Consumer) updateStats(processingUs uint64, succeeded bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	now := time.Now()
	if !c.stats.LastUpdate.IsZero() {
		if elapsed := now.Sub(c.stats.LastUpdate); elapsed > 0 {
			c.stats.FPS = float64(time.Second) / float64(elapsed)
		}
	}

	c.stats.TotalFramesProcessed++
	if !succeeded {
		c.stats.ProcessingFailures++
	}
	c.stats.LastProcessingUs = processingUs
	if c.stats.MinProcessingUs == 0 || processingUs < c.stats.MinProcessingUs {
		c.stats.MinProcessingUs = processingUs
	}
	if processingUs > c.stats.MaxProcessingUs {
		c.stats.MaxProcessingUs = processingUs
	}

	n := float64(c.stats.TotalFramesProcessed)
	c.stats.AverageProcessingUs += (float64(processingUs) - c.stats.AverageProcessingUs) / n
	c.stats.LastUpdate = now
}
