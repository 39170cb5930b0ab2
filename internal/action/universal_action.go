package action

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sctg-development/photoacoustic-go/internal/logging"
	"github.com/sctg-development/photoacoustic-go/internal/metrics"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// defaultHistoryCapacity bounds the measurement ring buffer kept by a node
// with no explicit capacity configured.
const defaultHistoryCapacity = 100

// UniversalActionNode is the computing-node analog of a Driver: it watches
// one or more other computing nodes' latest peak results through a
// SharedVisualizationState and turns threshold crossings into driver
// dispatch calls, keeping a bounded history of what it has sent. Grounded
// on visualization/api/action/mod.rs's ActionNodeInfo shape (id, node_type,
// has_driver, monitored_nodes_count, buffer_size, buffer_capacity) and on
// action_drivers/kafka.rs's update/alert/clear dispatch pattern; no
// universal_action_node.rs source file is present in the filtered original,
// so the node's own control flow (when to alert, when to clear) is inferred
// from that API surface rather than copied from a retrieved implementation.
type UniversalActionNode struct {
	id             string
	driver         Driver
	monitoredNodes []string
	shared         *processing.SharedVisualizationState
	alertThreshold *float64

	logger *slog.Logger

	mu          sync.Mutex
	history     []MeasurementData
	historyCap  int
	alertActive map[string]bool
}

// NewUniversalActionNode builds a node identified by id, dispatching
// through driver, watching monitoredNodes' results in shared. driver may be
// nil, in which case the node still maintains history but never dispatches.
func NewUniversalActionNode(id string, driver Driver, monitoredNodes []string, shared *processing.SharedVisualizationState) *UniversalActionNode {
	logger := logging.ForService("action")
	if logger == nil {
		logger = slog.Default()
	}
	return &UniversalActionNode{
		id:             id,
		driver:         driver,
		monitoredNodes: monitoredNodes,
		shared:         shared,
		historyCap:     defaultHistoryCapacity,
		alertActive:    make(map[string]bool),
		logger:         logger.With("node_id", id),
	}
}

// WithAlertThreshold configures a concentration (ppm) above which the node
// calls ShowAlert, clearing it again once concentration drops back below.
func (n *UniversalActionNode) WithAlertThreshold(ppm float64) *UniversalActionNode {
	n.alertThreshold = &ppm
	return n
}

// WithHistoryCapacity overrides the default ring buffer size.
func (n *UniversalActionNode) WithHistoryCapacity(capacity int) *UniversalActionNode {
	if capacity > 0 {
		n.historyCap = capacity
	}
	return n
}

func (n *UniversalActionNode) ID() string   { return n.id }
func (n *UniversalActionNode) Type() string { return "universal_action" }

// Process is a pass-through: on every frame it polls its monitored nodes'
// latest peak results and dispatches an update for each monitored node that
// has a result (whether or not it changed since the last frame), then
// forwards input unchanged so it can sit anywhere in a graph, including at
// a branch with no downstream consumer.
func (n *UniversalActionNode) Process(input processing.Data) (processing.Data, error) {
	if n.shared != nil {
		for _, nodeID := range n.monitoredNodes {
			result, ok := n.shared.PeakResultFor(nodeID)
			if !ok {
				continue
			}
			n.dispatch(nodeID, result)
		}
	}
	return input, nil
}

func (n *UniversalActionNode) dispatch(sourceNodeID string, result processing.PeakResult) {
	measurement := MeasurementData{
		ConcentrationPpm: result.ConcentrationPpm,
		SourceNodeID:     sourceNodeID,
		PeakAmplitude:    result.AmplitudeDb,
		PeakFrequency:    result.Frequency,
		Timestamp:        result.Timestamp,
	}

	n.mu.Lock()
	n.history = append(n.history, measurement)
	if len(n.history) > n.historyCap {
		n.history = n.history[len(n.history)-n.historyCap:]
	}
	n.mu.Unlock()

	if measurement.ConcentrationPpm != nil {
		metrics.Global().RecordConcentration(sourceNodeID, *measurement.ConcentrationPpm)
	}

	if n.driver == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.driver.UpdateAction(ctx, measurement); err != nil {
		n.logger.Warn("action driver update failed", "source_node_id", sourceNodeID, "error", err)
		metrics.Global().RecordActionError(n.id, n.driver.DriverType(), "update")
	} else {
		metrics.Global().RecordActionDispatch(n.id, n.driver.DriverType())
	}

	n.checkThreshold(ctx, sourceNodeID, measurement)
}

func (n *UniversalActionNode) checkThreshold(ctx context.Context, sourceNodeID string, measurement MeasurementData) {
	if n.alertThreshold == nil || measurement.ConcentrationPpm == nil {
		return
	}

	n.mu.Lock()
	wasActive := n.alertActive[sourceNodeID]
	nowActive := *measurement.ConcentrationPpm >= *n.alertThreshold
	n.alertActive[sourceNodeID] = nowActive
	n.mu.Unlock()

	switch {
	case nowActive && !wasActive:
		alert := AlertData{
			AlertType: "threshold_exceeded",
			Severity:  "critical",
			Message:   "concentration exceeded configured threshold",
			Data: map[string]any{
				"source_node_id":    sourceNodeID,
				"concentration_ppm": *measurement.ConcentrationPpm,
				"threshold_ppm":     *n.alertThreshold,
			},
			Timestamp: measurement.Timestamp,
		}
		if err := n.driver.ShowAlert(ctx, alert); err != nil {
			n.logger.Warn("action driver alert failed", "source_node_id", sourceNodeID, "error", err)
			metrics.Global().RecordActionError(n.id, n.driver.DriverType(), "alert")
		} else {
			metrics.Global().RecordActionAlert(n.id, alert.AlertType)
		}
	case !nowActive && wasActive:
		if err := n.driver.ClearAction(ctx); err != nil {
			n.logger.Warn("action driver clear failed", "source_node_id", sourceNodeID, "error", err)
		}
	}
}

// History returns a copy of the node's measurement history, newest last.
func (n *UniversalActionNode) History() []MeasurementData {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]MeasurementData, len(n.history))
	copy(out, n.history)
	return out
}

// ActionNodeInfo summarizes a node's monitoring configuration and buffer
// state, grounded on visualization/api/action/mod.rs's ActionNodeInfo.
type ActionNodeInfo struct {
	ID                  string
	NodeType            string
	HasDriver           bool
	MonitoredNodesCount int
	BufferSize          int
	BufferCapacity      int
}

// Info reports the node's current monitoring and buffer state.
func (n *UniversalActionNode) Info() ActionNodeInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	return ActionNodeInfo{
		ID:                  n.id,
		NodeType:            n.Type(),
		HasDriver:           n.driver != nil,
		MonitoredNodesCount: len(n.monitoredNodes),
		BufferSize:          len(n.history),
		BufferCapacity:      n.historyCap,
	}
}

func (n *UniversalActionNode) AcceptsInput(processing.Data) bool { return true }

func (n *UniversalActionNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	return input.Kind, true
}

func (n *UniversalActionNode) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = nil
	n.alertActive = make(map[string]bool)
}

func (n *UniversalActionNode) SupportsHotReload() bool { return true }

func (n *UniversalActionNode) UpdateConfig(config map[string]any) (bool, error) {
	changed := false
	if threshold, ok := config["alert_threshold_ppm"].(float64); ok {
		n.alertThreshold = &threshold
		changed = true
	}
	if capacity, ok := config["history_capacity"].(float64); ok && capacity > 0 {
		n.mu.Lock()
		n.historyCap = int(capacity)
		n.mu.Unlock()
		changed = true
	}
	return changed, nil
}
