package nodes

import (
	"math"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/metrics"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

// referenceMagnitude avoids log(0) and gives the dB scale a floor, matching
// computing_nodes/peak_finder.rs's reference_magnitude.
const referenceMagnitude = 1e-6

// silentFloorDb is the amplitude reported when a peak's magnitude does not
// clear referenceMagnitude.
const silentFloorDb = -120

// PeakFinderNode is a computing node: it passes its input through
// unchanged while performing FFT-based spectral peak detection on the
// side, publishing results to a SharedVisualizationState for an HTTP
// surface to poll. Grounded on computing_nodes/peak_finder.rs.
type PeakFinderNode struct {
	id string

	detectionThreshold float32
	frequencyMin       float32
	frequencyMax       float32
	fftSize            int
	sampleRate         int
	smoothingFactor    float32
	coherenceThreshold int

	sampleBuffer      []float32
	peakHistory       []*float32
	smoothedFrequency *float32
	processingCount   uint64

	sharedState *processing.SharedVisualizationState
}

// NewPeakFinderNode builds a peak finder with the defaults from
// peak_finder.rs: a 10% detection threshold, the full audible range,
// a 2048-sample FFT at 48kHz, 0.7 smoothing, and a 3-frame coherence
// requirement.
func NewPeakFinderNode(id string, sharedState *processing.SharedVisualizationState) *PeakFinderNode {
	return &PeakFinderNode{
		id:                 id,
		detectionThreshold: 0.1,
		frequencyMin:       20.0,
		frequencyMax:       20000.0,
		fftSize:            2048,
		sampleRate:         48000,
		smoothingFactor:    0.7,
		coherenceThreshold: 3,
		sharedState:        sharedState,
	}
}

// WithDetectionThreshold clamps and applies a minimum normalized peak
// amplitude (0.0-1.0) required to report a detection.
func (n *PeakFinderNode) WithDetectionThreshold(threshold float32) *PeakFinderNode {
	n.detectionThreshold = clamp32(threshold, 0, 1)
	return n
}

// WithFrequencyRange clamps and applies the band searched for a peak,
// capping max at the Nyquist frequency for the node's sample rate.
func (n *PeakFinderNode) WithFrequencyRange(min, max float32) *PeakFinderNode {
	nyquist := float32(n.sampleRate) / 2
	if min < 0 {
		min = 0
	}
	if max > nyquist {
		max = nyquist
	}
	n.frequencyMin = min
	n.frequencyMax = max
	return n
}

// WithFFTSize overrides the analysis window, in samples. Should be a
// power of two; callers that pass something else get FFT bins that
// don't line up evenly with frequency, not an error.
func (n *PeakFinderNode) WithFFTSize(fftSize int) *PeakFinderNode {
	n.fftSize = fftSize
	return n
}

// WithSampleRate overrides the sample rate used for bin-to-frequency
// conversion.
func (n *PeakFinderNode) WithSampleRate(sampleRate int) *PeakFinderNode {
	n.sampleRate = sampleRate
	return n
}

// WithSmoothingFactor clamps and applies the exponential weight given to
// the previous smoothed frequency versus a new detection.
func (n *PeakFinderNode) WithSmoothingFactor(factor float32) *PeakFinderNode {
	n.smoothingFactor = clamp32(factor, 0, 1)
	return n
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (n *PeakFinderNode) ID() string   { return n.id }
func (n *PeakFinderNode) Type() string { return "peak_finder" }

// analyzeSpectrum windows and FFTs the oldest fftSize samples of the
// accumulated buffer and searches the configured frequency range for a
// peak, returning its frequency and amplitude in dB if the normalized
// peak amplitude clears detectionThreshold.
func (n *PeakFinderNode) analyzeSpectrum() (frequency, amplitudeDb float32, found bool) {
	if len(n.sampleBuffer) < n.fftSize {
		return 0, 0, false
	}

	windowed := make([]float64, n.fftSize)
	for i := 0; i < n.fftSize; i++ {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n.fftSize-1)))
		windowed[i] = float64(n.sampleBuffer[i]) * window
	}

	spectrum := fft.FFTReal(windowed)
	magnitudes := make([]float32, len(spectrum))
	for i, c := range spectrum {
		magnitudes[i] = float32(math.Sqrt(real(c)*real(c) + imag(c)*imag(c)))
	}

	freqResolution := float32(n.sampleRate) / float32(n.fftSize)
	minBin := int(n.frequencyMin / freqResolution)
	maxBin := int(n.frequencyMax / freqResolution)
	if maxBin > len(magnitudes)-1 {
		maxBin = len(magnitudes) - 1
	}
	if minBin >= maxBin || minBin < 0 {
		return 0, 0, false
	}

	peakBin := minBin
	peakMagnitude := magnitudes[minBin]
	maxMagnitude := magnitudes[minBin]
	for i := minBin; i <= maxBin; i++ {
		if magnitudes[i] > maxMagnitude {
			maxMagnitude = magnitudes[i]
		}
		if magnitudes[i] > peakMagnitude {
			peakMagnitude = magnitudes[i]
			peakBin = i
		}
	}

	if peakMagnitude > referenceMagnitude {
		amplitudeDb = 20 * float32(math.Log10(float64(peakMagnitude)))
	} else {
		amplitudeDb = silentFloorDb
	}

	var normalizedAmplitude float32
	if maxMagnitude > 0 {
		normalizedAmplitude = peakMagnitude / maxMagnitude
	}

	if normalizedAmplitude < n.detectionThreshold {
		return 0, 0, false
	}

	return float32(peakBin) * freqResolution, amplitudeDb, true
}

// applyCoherenceFilter records the current detection in peakHistory and
// reports an average frequency only once coherenceThreshold consecutive
// detections agree within 5% of each other, matching peak_finder.rs's
// temporal-coherence gate against transient spurious peaks.
func (n *PeakFinderNode) applyCoherenceFilter(detected *float32) (float32, bool) {
	n.peakHistory = append(n.peakHistory, detected)
	for len(n.peakHistory) > n.coherenceThreshold*2 {
		n.peakHistory = n.peakHistory[1:]
	}

	if len(n.peakHistory) < n.coherenceThreshold {
		return 0, false
	}

	recent := make([]float32, 0, n.coherenceThreshold)
	for _, f := range n.peakHistory[len(n.peakHistory)-n.coherenceThreshold:] {
		if f == nil {
			return 0, false
		}
		recent = append(recent, *f)
	}

	var sum float32
	for _, f := range recent {
		sum += f
	}
	avg := sum / float32(len(recent))

	var maxDeviation float32
	for _, f := range recent {
		if dev := float32(math.Abs(float64(f - avg))); dev > maxDeviation {
			maxDeviation = dev
		}
	}

	if maxDeviation < avg*0.05 {
		return avg, true
	}
	return 0, false
}

// applySmoothing exponentially blends a newly validated frequency with
// the node's running estimate.
func (n *PeakFinderNode) applySmoothing(newFrequency float32) float32 {
	if n.smoothedFrequency == nil {
		n.smoothedFrequency = &newFrequency
		return newFrequency
	}
	smoothed := *n.smoothedFrequency*n.smoothingFactor + newFrequency*(1-n.smoothingFactor)
	n.smoothedFrequency = &smoothed
	return smoothed
}

func (n *PeakFinderNode) updateSharedState(frequency, amplitudeDb float32) {
	if n.sharedState == nil {
		return
	}
	n.sharedState.UpdatePeakResult(n.id, processing.PeakResult{
		Frequency:      frequency,
		AmplitudeDb:    amplitudeDb,
		Timestamp:      time.Now(),
		CoherenceScore: 1.0,
	})
	metrics.Global().RecordPeakDetection(n.id, frequency, amplitudeDb)
}

// Process is pass-through: input is returned unchanged while spectral
// analysis accumulates samples and, for each complete fftSize block,
// runs synchronously within this call.
func (n *PeakFinderNode) Process(input processing.Data) (processing.Data, error) {
	var samples []float32
	switch input.Kind {
	case processing.KindSingleChannel:
		samples = input.Samples
	case processing.KindDualChannel:
		samples = input.ChannelA
	default:
		return processing.Data{}, errors.New(errors.NewStd("peak finder requires single- or dual-channel input")).
			Category(errors.CategoryProcessing).
			Context("node_id", n.id).
			Build()
	}

	n.sampleBuffer = append(n.sampleBuffer, samples...)
	n.processingCount++

	for len(n.sampleBuffer) >= n.fftSize {
		frequency, amplitudeDb, found := n.analyzeSpectrum()
		n.sampleBuffer = n.sampleBuffer[n.fftSize:]

		var detected *float32
		if found {
			detected = &frequency
		}

		if avg, ok := n.applyCoherenceFilter(detected); ok {
			smoothed := n.applySmoothing(avg)
			n.updateSharedState(smoothed, amplitudeDb)
		}
	}

	return input, nil
}

func (n *PeakFinderNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindSingleChannel || input.Kind == processing.KindDualChannel
}

func (n *PeakFinderNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if !n.AcceptsInput(input) {
		return 0, false
	}
	return input.Kind, true
}

func (n *PeakFinderNode) Reset() {
	n.sampleBuffer = nil
	n.peakHistory = nil
	n.smoothedFrequency = nil
	n.processingCount = 0
}

func (n *PeakFinderNode) SupportsHotReload() bool { return true }

// UpdateConfig applies "detection_threshold", "frequency_min",
// "frequency_max", and "smoothing_factor" parameters in place.
func (n *PeakFinderNode) UpdateConfig(parameters map[string]any) (bool, error) {
	changed := false

	if raw, ok := parameters["detection_threshold"]; ok {
		v, ok := raw.(float64)
		if !ok {
			return false, errors.New(errors.NewStd("detection_threshold parameter must be numeric")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.WithDetectionThreshold(float32(v))
		changed = true
	}

	min, hasMin := parameters["frequency_min"]
	max, hasMax := parameters["frequency_max"]
	if hasMin || hasMax {
		newMin, newMax := n.frequencyMin, n.frequencyMax
		if hasMin {
			v, ok := min.(float64)
			if !ok {
				return false, errors.New(errors.NewStd("frequency_min parameter must be numeric")).
					Category(errors.CategoryValidation).Context("node_id", n.id).Build()
			}
			newMin = float32(v)
		}
		if hasMax {
			v, ok := max.(float64)
			if !ok {
				return false, errors.New(errors.NewStd("frequency_max parameter must be numeric")).
					Category(errors.CategoryValidation).Context("node_id", n.id).Build()
			}
			newMax = float32(v)
		}
		n.WithFrequencyRange(newMin, newMax)
		changed = true
	}

	if raw, ok := parameters["smoothing_factor"]; ok {
		v, ok := raw.(float64)
		if !ok {
			return false, errors.New(errors.NewStd("smoothing_factor parameter must be numeric")).
				Category(errors.CategoryValidation).Context("node_id", n.id).Build()
		}
		n.WithSmoothingFactor(float32(v))
		changed = true
	}

	return changed, nil
}
