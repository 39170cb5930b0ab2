package action

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// recordingDriver captures every dispatch call for assertions, grounded on
// the same fake-driver pattern used across the processing package's node
// tests (a minimal stub satisfying the interface under test).
type recordingDriver struct {
	mu      sync.Mutex
	updates []MeasurementData
	alerts  []AlertData
	clears  int
}

func (d *recordingDriver) Initialize(context.Context) error { return nil }

func (d *recordingDriver) UpdateAction(_ context.Context, data MeasurementData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, data)
	return nil
}

func (d *recordingDriver) ShowAlert(_ context.Context, alert AlertData) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, alert)
	return nil
}

func (d *recordingDriver) ClearAction(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears++
	return nil
}

func (d *recordingDriver) Status(context.Context) (map[string]any, error) {
	return map[string]any{"driver_type": d.DriverType()}, nil
}

func (d *recordingDriver) DriverType() string { return "recording" }

func (d *recordingDriver) Shutdown(context.Context) error { return nil }

func ppmPtr(v float64) *float64 { return &v }

func TestUniversalActionNode_DispatchesUpdateForMonitoredNode(t *testing.T) {
	shared := processing.NewSharedVisualizationState()
	shared.UpdatePeakResult("co2_calc", processing.PeakResult{
		Frequency:        1000,
		AmplitudeDb:      -10,
		ConcentrationPpm: ppmPtr(200),
		Timestamp:        time.Now(),
	})

	driver := &recordingDriver{}
	node := NewUniversalActionNode("dispatcher", driver, []string{"co2_calc"}, shared)

	if _, err := node.Process(processing.Data{Kind: processing.KindPhotoacousticResult}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if len(driver.updates) != 1 {
		t.Fatalf("expected 1 update dispatched, got %d", len(driver.updates))
	}
	if driver.updates[0].SourceNodeID != "co2_calc" {
		t.Fatalf("expected source node co2_calc, got %s", driver.updates[0].SourceNodeID)
	}
	if len(node.History()) != 1 {
		t.Fatalf("expected history to contain 1 entry, got %d", len(node.History()))
	}
}

func TestUniversalActionNode_AlertsOnThresholdCrossingAndClears(t *testing.T) {
	shared := processing.NewSharedVisualizationState()
	driver := &recordingDriver{}
	node := NewUniversalActionNode("dispatcher", driver, []string{"co2_calc"}, shared).
		WithAlertThreshold(500)

	shared.UpdatePeakResult("co2_calc", processing.PeakResult{ConcentrationPpm: ppmPtr(600), Timestamp: time.Now()})
	if _, err := node.Process(processing.Data{}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(driver.alerts) != 1 {
		t.Fatalf("expected 1 alert after crossing threshold, got %d", len(driver.alerts))
	}

	shared.UpdatePeakResult("co2_calc", processing.PeakResult{ConcentrationPpm: ppmPtr(650), Timestamp: time.Now()})
	if _, err := node.Process(processing.Data{}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(driver.alerts) != 1 {
		t.Fatalf("expected no additional alert while still above threshold, got %d", len(driver.alerts))
	}

	shared.UpdatePeakResult("co2_calc", processing.PeakResult{ConcentrationPpm: ppmPtr(100), Timestamp: time.Now()})
	if _, err := node.Process(processing.Data{}); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if driver.clears != 1 {
		t.Fatalf("expected 1 clear after dropping below threshold, got %d", driver.clears)
	}
}

func TestUniversalActionNode_HistoryCapacityBounded(t *testing.T) {
	shared := processing.NewSharedVisualizationState()
	driver := &recordingDriver{}
	node := NewUniversalActionNode("dispatcher", driver, []string{"co2_calc"}, shared).
		WithHistoryCapacity(2)

	for i := 0; i < 5; i++ {
		shared.UpdatePeakResult("co2_calc", processing.PeakResult{ConcentrationPpm: ppmPtr(float64(i)), Timestamp: time.Now()})
		if _, err := node.Process(processing.Data{}); err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
	}

	if len(node.History()) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(node.History()))
	}
}

func TestUniversalActionNode_InfoReportsConfiguration(t *testing.T) {
	shared := processing.NewSharedVisualizationState()
	node := NewUniversalActionNode("dispatcher", nil, []string{"a", "b"}, shared)

	info := node.Info()
	if info.HasDriver {
		t.Fatal("expected HasDriver false with nil driver")
	}
	if info.MonitoredNodesCount != 2 {
		t.Fatalf("expected 2 monitored nodes, got %d", info.MonitoredNodesCount)
	}
	if info.NodeType != "universal_action" {
		t.Fatalf("expected node type universal_action, got %s", info.NodeType)
	}
}
