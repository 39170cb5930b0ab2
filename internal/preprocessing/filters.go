// Package preprocessing implements the digital filters and differential
// calculators that FilterNode and DifferentialNode delegate to, grounded on
// the original filters.rs/differential.rs modules.
package preprocessing

import "math"

// Filter transforms a signal, returning a filtered copy; the input slice is
// not modified.
type Filter interface {
	Apply(signal []float32) []float32
}

// BandpassFilter is a cascade of biquad sections implementing a
// Butterworth-style bandpass, Direct Form II Transposed.
type BandpassFilter struct {
	centerFreq float64
	bandwidth  float64
	sampleRate int
	order      int
	bCoeffs    []float64
	aCoeffs    []float64
}

// NewBandpassFilter builds a 4th-order bandpass centered at centerFreq with
// the given bandwidth, at 48kHz until WithSampleRate overrides it.
func NewBandpassFilter(centerFreq, bandwidth float64) *BandpassFilter {
	f := &BandpassFilter{centerFreq: centerFreq, bandwidth: bandwidth, sampleRate: 48000, order: 4}
	f.computeCoefficients()
	return f
}

// WithSampleRate recomputes the filter's coefficients for sampleRate.
func (f *BandpassFilter) WithSampleRate(sampleRate int) *BandpassFilter {
	f.sampleRate = sampleRate
	f.computeCoefficients()
	return f
}

// WithOrder recomputes the filter for a different (even) order.
func (f *BandpassFilter) WithOrder(order int) *BandpassFilter {
	if order%2 != 0 {
		panic("bandpass filter order must be even")
	}
	f.order = order
	f.computeCoefficients()
	return f
}

func (f *BandpassFilter) computeCoefficients() {
	f.bCoeffs = f.bCoeffs[:0]
	f.aCoeffs = f.aCoeffs[:0]

	fs := float64(f.sampleRate)
	w0 := 2 * math.Pi * f.centerFreq / fs
	q := f.centerFreq / f.bandwidth
	alpha := math.Sin(w0) / (2 * q)

	b0, b1, b2 := alpha, 0.0, -alpha
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha

	b0n, b1n, b2n := b0/a0, b1/a0, b2/a0
	a1n, a2n := a1/a0, a2/a0

	for i := 0; i < f.order/2; i++ {
		f.bCoeffs = append(f.bCoeffs, b0n, b1n, b2n)
		f.aCoeffs = append(f.aCoeffs, a1n, a2n)
	}
}

// Apply runs signal through the biquad cascade.
func (f *BandpassFilter) Apply(signal []float32) []float32 {
	if len(f.aCoeffs) == 0 || len(f.bCoeffs) == 0 {
		out := make([]float32, len(signal))
		copy(out, signal)
		return out
	}

	nSections := f.order / 2
	z1 := make([]float64, nSections)
	z2 := make([]float64, nSections)
	filtered := make([]float32, 0, len(signal))

	for _, x := range signal {
		y := float64(x)
		for section := range nSections {
			b0 := f.bCoeffs[section*3]
			b1 := f.bCoeffs[section*3+1]
			b2 := f.bCoeffs[section*3+2]
			a1 := f.aCoeffs[section*2]
			a2 := f.aCoeffs[section*2+1]

			ySection := b0*y + z1[section]
			z1[section] = b1*y - a1*ySection + z2[section]
			z2[section] = b2*y - a2*ySection
			y = ySection
		}
		filtered = append(filtered, float32(y))
	}

	return filtered
}

// LowpassFilter is a single-pole exponential smoother.
type LowpassFilter struct {
	cutoffFreq float64
	sampleRate int
}

// NewLowpassFilter builds a lowpass filter at the given cutoff, 48kHz until
// WithSampleRate overrides it.
func NewLowpassFilter(cutoffFreq float64) *LowpassFilter {
	return &LowpassFilter{cutoffFreq: cutoffFreq, sampleRate: 48000}
}

// WithSampleRate records the sample rate the filter operates at.
func (f *LowpassFilter) WithSampleRate(sampleRate int) *LowpassFilter {
	f.sampleRate = sampleRate
	return f
}

// Apply runs signal through a single-pole IIR smoother. The smoothing
// coefficient is a fixed 0.2 regardless of cutoffFreq/sampleRate, matching
// the original module's approximation rather than a derived pole.
func (f *LowpassFilter) Apply(signal []float32) []float32 {
	const alpha = 0.2
	filtered := make([]float32, 0, len(signal))
	var prev float32
	for _, sample := range signal {
		out := alpha*sample + (1-alpha)*prev
		filtered = append(filtered, out)
		prev = out
	}
	return filtered
}
