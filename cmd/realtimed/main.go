// Command realtimed is the thin entrypoint that wires a configured
// acquisition source, processing graph, and action driver into a running
// photoacoustic analysis daemon: load configuration, start logging and
// metrics, bring up the audio source and its daemon, build and run the
// processing graph against a consumer, and dispatch concentration updates
// and threshold alerts through an action driver until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
	"github.com/sctg-development/photoacoustic-go/internal/action"
	"github.com/sctg-development/photoacoustic-go/internal/conf"
	"github.com/sctg-development/photoacoustic-go/internal/logging"
	"github.com/sctg-development/photoacoustic-go/internal/metrics"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// streamCapacity bounds how many frames a slow consumer may fall behind
// before it starts dropping, matching the ring capacity the teacher's own
// broadcast buffers use for a few seconds of headroom at typical frame
// rates.
const streamCapacity = 64

func main() {
	var debug bool
	var driverOverride string
	flag.BoolVar(&debug, "debug", false, "force debug-level logging regardless of config")
	flag.StringVar(&driverOverride, "action-driver", "", "override the configured action driver (log|mqtt)")
	flag.Parse()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init()
	if settings.Debug || debug {
		logging.SetLevel(slog.LevelDebug)
	}
	logger := logging.ForService("realtimed")
	if logger == nil {
		logger = slog.Default()
	}

	logCPUCapabilities(logger)

	registry := prometheus.NewRegistry()
	var collector *metrics.Collector
	if settings.Metrics.Enabled {
		collector = metrics.NewCollector(registry)
	} else {
		collector = metrics.NewCollector(nil)
	}
	metrics.Init(collector)

	if err := run(settings, logger, driverOverride); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}

func run(settings *conf.Settings, logger *slog.Logger, driverOverride string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream := acquisition.NewSharedAudioStream(streamCapacity)
	daemon, err := buildAcquisitionDaemon(settings, stream)
	if err != nil {
		return fmt.Errorf("building acquisition source: %w", err)
	}

	driver, err := buildDriver(ctx, settings, logger, driverOverride)
	if err != nil {
		return fmt.Errorf("building action driver: %w", err)
	}

	shared := processing.NewSharedVisualizationState()
	actionNode := action.NewUniversalActionNode("action", driver, []string{"peak"}, shared)

	overrides, err := loadNodeOverrides(settings.Processing.GraphConfigPath)
	if err != nil {
		logger.Warn("ignoring unreadable graph overrides", "path", settings.Processing.GraphConfigPath, "error", err)
		overrides = nil
	}

	graph, err := buildGraph(pipelineSettings{
		centerFreq:   2 * float64(conf.DefaultSampleRate) / 96,
		bandwidth:    200,
		frequencyMin: 20,
		frequencyMax: float64(conf.DefaultSampleRate) / 2,
		actionNode:   actionNode,
	}, shared, overrides)
	if err != nil {
		return fmt.Errorf("building processing graph: %w", err)
	}

	consumer := processing.NewConsumer("realtimed", stream, graph, shared)

	statsCtx, cancelStats := context.WithCancel(ctx)
	defer cancelStats()
	go runSystemStatsLogger(statsCtx, logger)

	if err := daemon.Start(ctx); err != nil {
		return fmt.Errorf("starting acquisition daemon: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		_ = daemon.Stop()
		return fmt.Errorf("starting processing consumer: %w", err)
	}

	logger.Info("realtimed running",
		"acquisition_source", settings.Acquisition.Source,
		"action_driver", driver.DriverType(),
		"metrics_enabled", settings.Metrics.Enabled,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining pipeline")

	if err := consumer.Stop(); err != nil {
		logger.Warn("error stopping consumer", "error", err)
	}
	if err := daemon.Stop(); err != nil {
		logger.Warn("error stopping acquisition daemon", "error", err)
	}
	stream.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := driver.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down action driver", "error", err)
	}

	logger.Info("realtimed stopped", "frames_processed", consumer.FramesProcessed())
	return nil
}

// buildAcquisitionDaemon selects a PullSource or PushSource per
// settings.Acquisition.Source and wraps it in the matching Daemon flavor.
func buildAcquisitionDaemon(settings *conf.Settings, stream *acquisition.SharedAudioStream) (*acquisition.Daemon, error) {
	frameSize := settings.Acquisition.FrameSize
	if frameSize <= 0 {
		frameSize = conf.DefaultFrameSize
	}
	sampleRate := settings.Acquisition.SampleRate
	if sampleRate <= 0 {
		sampleRate = conf.DefaultSampleRate
	}

	switch settings.Acquisition.Source {
	case "mic":
		mic := acquisition.NewMicSource(settings.Acquisition.Mic.DeviceName, sampleRate, settings.Acquisition.Mic.Gain)
		return acquisition.NewPushDaemon(mic, stream, frameSize), nil
	case "file":
		file, err := acquisition.NewFileSource(settings.Acquisition.File.Path, settings.Acquisition.File.Loop)
		if err != nil {
			return nil, err
		}
		targetFPS := float64(sampleRate) / float64(frameSize)
		return acquisition.NewPullDaemon(file, stream, frameSize, targetFPS), nil
	default:
		mock := acquisition.NewMockSource(sampleRate, 1200, 1800)
		targetFPS := float64(sampleRate) / float64(frameSize)
		return acquisition.NewPullDaemon(mock, stream, frameSize, targetFPS), nil
	}
}

// buildDriver constructs and initializes the configured action.Driver.
// driverOverride, when non-empty, takes precedence over settings.
func buildDriver(ctx context.Context, settings *conf.Settings, logger *slog.Logger, driverOverride string) (action.Driver, error) {
	useMQTT := settings.Action.MQTT.Enabled
	if driverOverride == "mqtt" {
		useMQTT = true
	} else if driverOverride == "log" {
		useMQTT = false
	}

	var driver action.Driver
	if useMQTT {
		driver = action.NewMQTTActionDriver(
			settings.Action.MQTT.Broker,
			"realtimed",
			settings.Action.MQTT.Topic+"/update",
			settings.Action.MQTT.Topic+"/alert",
		)
	} else {
		driver = action.NewLogDriver(logging.ForService("action"))
	}

	if err := driver.Initialize(ctx); err != nil {
		return nil, err
	}
	return driver, nil
}
