package acquisition

import (
	"context"
	"math"
	"sync"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

// MockSource is a synthetic PullSource generating two sine tones, used for
// development and the end-to-end scenarios that don't need real hardware.
// No third-party library is warranted for a bounded sine generator; this is
// the one acquisition component built on stdlib math by necessity.
type MockSource struct {
	mu         sync.Mutex
	sampleRate int
	freqA      float64
	freqB      float64
	phaseA     float64
	phaseB     float64
	closed     bool
}

// NewMockSource builds a mock source emitting freqA/freqB Hz tones at sampleRate.
func NewMockSource(sampleRate int, freqA, freqB float64) *MockSource {
	return &MockSource{sampleRate: sampleRate, freqA: freqA, freqB: freqB}
}

func (m *MockSource) SampleRate() int { return m.sampleRate }

// ReadFrame synthesizes frameSize samples per channel. It never signals EOF
// on its own; callers stop it via context cancellation.
func (m *MockSource) ReadFrame(ctx context.Context, frameSize int) ([]float32, []float32, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, nil, nil
	}

	a := make([]float32, frameSize)
	b := make([]float32, frameSize)
	stepA := 2 * math.Pi * m.freqA / float64(m.sampleRate)
	stepB := 2 * math.Pi * m.freqB / float64(m.sampleRate)
	for i := range a {
		a[i] = float32(math.Sin(m.phaseA))
		b[i] = float32(math.Sin(m.phaseB))
		m.phaseA += stepA
		m.phaseB += stepB
	}
	// Keep phases bounded so long runs don't lose precision.
	m.phaseA = math.Mod(m.phaseA, 2*math.Pi)
	m.phaseB = math.Mod(m.phaseB, 2*math.Pi)

	return a, b, nil
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New(errors.NewStd("mock source already closed")).
			Category(errors.CategoryIO).
			Build()
	}
	m.closed = true
	return nil
}
