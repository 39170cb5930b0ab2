package nodes

import (
	"math"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// PhotoacousticOutputNode is the terminal stage of a graph: it analyzes a
// SingleChannel differential signal and emits a PhotoacousticResult,
// grounded on nodes.rs's PhotoacousticOutputNode.
type PhotoacousticOutputNode struct {
	id                 string
	detectionThreshold float32
	analysisWindowSize int
}

// NewPhotoacousticOutputNode builds an output node with the defaults from
// nodes.rs: a 1% detection threshold and a 1024-sample analysis window.
func NewPhotoacousticOutputNode(id string) *PhotoacousticOutputNode {
	return &PhotoacousticOutputNode{id: id, detectionThreshold: 0.01, analysisWindowSize: 1024}
}

// WithDetectionThreshold overrides the minimum relative amplitude treated
// as a detection.
func (n *PhotoacousticOutputNode) WithDetectionThreshold(threshold float32) *PhotoacousticOutputNode {
	n.detectionThreshold = threshold
	return n
}

// WithAnalysisWindowSize stores the analysis window size, in samples. The
// value is not read by the analysis, which scans the whole input signal.
func (n *PhotoacousticOutputNode) WithAnalysisWindowSize(windowSize int) *PhotoacousticOutputNode {
	n.analysisWindowSize = windowSize
	return n
}

func (n *PhotoacousticOutputNode) ID() string   { return n.id }
func (n *PhotoacousticOutputNode) Type() string { return "output" }

func (n *PhotoacousticOutputNode) analyzeSignal(signal []float32) (steps []string, isDetection bool) {
	steps = []string{"photoacoustic_analysis"}

	var maxAmplitude float32
	for _, x := range signal {
		if abs := float32(math.Abs(float64(x))); abs > maxAmplitude {
			maxAmplitude = abs
		}
	}

	isDetection = maxAmplitude > n.detectionThreshold
	if isDetection {
		steps = append(steps, "detection_confirmed")
	}
	return steps, isDetection
}

func (n *PhotoacousticOutputNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindSingleChannel {
		return processing.Data{}, errors.New(errors.NewStd("output node requires single-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	steps, _ := n.analyzeSignal(input.Samples)

	return processing.NewPhotoacousticResultData(input.Samples, processing.Metadata{
		OriginalFrameNumber: input.FrameNumber,
		OriginalTimestamp:   input.Timestamp,
		SampleRate:          input.SampleRate,
		ProcessingSteps:     steps,
	}), nil
}

func (n *PhotoacousticOutputNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindSingleChannel
}

func (n *PhotoacousticOutputNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if input.Kind != processing.KindSingleChannel {
		return 0, false
	}
	return processing.KindPhotoacousticResult, true
}

func (n *PhotoacousticOutputNode) Reset() {}

func (n *PhotoacousticOutputNode) SupportsHotReload() bool { return true }

// UpdateConfig applies a "detection_threshold" parameter in place.
func (n *PhotoacousticOutputNode) UpdateConfig(parameters map[string]any) (bool, error) {
	raw, ok := parameters["detection_threshold"]
	if !ok {
		return false, nil
	}
	threshold, ok := raw.(float64)
	if !ok {
		return false, errors.New(errors.NewStd("detection_threshold parameter must be numeric")).
			Category(errors.CategoryValidation).
			Context("node_id", n.id).
			Build()
	}
	n.detectionThreshold = float32(threshold)
	return true, nil
}
