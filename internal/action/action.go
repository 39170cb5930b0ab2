// Package action implements the dispatch side of the processing pipeline:
// ActionDriver pushes measurement updates and alerts to an external
// system, and UniversalActionNode is the computing node that watches one
// or more peak results and decides when to call it.
package action

import (
	"context"
	"time"
)

// MeasurementData is a single dispatched measurement, grounded on
// visualization/api/action/mod.rs's MeasurementData (referenced there as
// the payload shape stored in an action node's history buffer).
type MeasurementData struct {
	ConcentrationPpm *float64
	SourceNodeID     string
	PeakAmplitude    float32
	PeakFrequency    float32
	Timestamp        time.Time
	Metadata         map[string]any
}

// AlertData is an out-of-band notification, dispatched separately from
// regular measurement updates so a driver can route it differently (a
// distinct Kafka topic, a higher MQTT QoS, a paging webhook).
type AlertData struct {
	AlertType string
	Severity  string
	Message   string
	Data      map[string]any
	Timestamp time.Time
}

// Driver is the contract a concrete dispatch mechanism implements,
// grounded on action_drivers/kafka.rs's ActionDriver trait.
type Driver interface {
	Initialize(ctx context.Context) error
	UpdateAction(ctx context.Context, data MeasurementData) error
	ShowAlert(ctx context.Context, alert AlertData) error
	ClearAction(ctx context.Context) error
	Status(ctx context.Context) (map[string]any, error)
	DriverType() string
	Shutdown(ctx context.Context) error
}
