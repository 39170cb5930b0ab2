package processing

import (
	"sync"
	"time"
)

// PeakResult is a single computing node's most recent finding: a detected
// spectral peak plus whatever downstream quantity (concentration) has been
// derived from it. Grounded on computing_nodes/shared_data.rs's PeakResult.
type PeakResult struct {
	Frequency        float32
	AmplitudeDb       float32
	ConcentrationPpm *float64
	Timestamp        time.Time
	CoherenceScore    float32
}

// SharedVisualizationState is the read side of the computing-node pipeline:
// a snapshot of every computing node's latest result, kept current by the
// nodes themselves and polled by an HTTP surface (outside this package's
// scope) for live dashboards. Grounded on computing_nodes/shared_data.rs's
// ComputingSharedData, restructured with a plain RWMutex-guarded map in the
// teacher's MetricsCollector idiom (internal/audiocore/metrics.go) instead
// of a tokio RwLock.
type SharedVisualizationState struct {
	mu    sync.RWMutex
	peaks map[string]PeakResult
}

// NewSharedVisualizationState builds an empty state.
func NewSharedVisualizationState() *SharedVisualizationState {
	return &SharedVisualizationState{peaks: make(map[string]PeakResult)}
}

// UpdatePeakResult records nodeID's latest peak finding.
func (s *SharedVisualizationState) UpdatePeakResult(nodeID string, result PeakResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peaks[nodeID] = result
}

// PeakResultFor returns nodeID's most recently recorded peak, if any.
func (s *SharedVisualizationState) PeakResultFor(nodeID string) (PeakResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.peaks[nodeID]
	return result, ok
}

// AllPeakResults returns a snapshot copy of every node's latest peak.
func (s *SharedVisualizationState) AllPeakResults() map[string]PeakResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]PeakResult, len(s.peaks))
	for id, result := range s.peaks {
		out[id] = result
	}
	return out
}
