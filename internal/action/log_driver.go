package action

import (
	"context"
	"log/slog"
)

// LogDriver dispatches measurements and alerts as structured log lines.
// It needs no external service, so it is always available and is the
// safe default when no other driver is configured.
type LogDriver struct {
	logger *slog.Logger
}

// NewLogDriver builds a driver that writes to logger, falling back to
// slog.Default if logger is nil.
func NewLogDriver(logger *slog.Logger) *LogDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDriver{logger: logger}
}

func (d *LogDriver) Initialize(context.Context) error { return nil }

func (d *LogDriver) UpdateAction(_ context.Context, data MeasurementData) error {
	d.logger.Info("measurement update",
		"source_node_id", data.SourceNodeID,
		"peak_amplitude", data.PeakAmplitude,
		"peak_frequency", data.PeakFrequency,
		"concentration_ppm", data.ConcentrationPpm)
	return nil
}

func (d *LogDriver) ShowAlert(_ context.Context, alert AlertData) error {
	d.logger.Warn("action alert",
		"alert_type", alert.AlertType,
		"severity", alert.Severity,
		"message", alert.Message)
	return nil
}

func (d *LogDriver) ClearAction(context.Context) error {
	d.logger.Info("action cleared")
	return nil
}

func (d *LogDriver) Status(context.Context) (map[string]any, error) {
	return map[string]any{"driver_type": d.DriverType()}, nil
}

func (d *LogDriver) DriverType() string { return "log" }

func (d *LogDriver) Shutdown(context.Context) error { return nil }
