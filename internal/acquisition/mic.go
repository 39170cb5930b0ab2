package acquisition

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/smallnest/ringbuffer"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

const bytesPerSample = 4 // float32

// MicSource is a PushSource backed by a PortAudio input stream. The device
// callback delivers irregularly sized chunks; this accumulates them in a
// byte ring per channel and drains exact frameSize blocks into the shared
// stream, per §4.2's push-path contract.
type MicSource struct {
	deviceName string
	sampleRate int
	gain       float64

	mu          sync.Mutex
	stream      *portaudio.Stream
	ringA       *ringbuffer.RingBuffer
	ringB       *ringbuffer.RingBuffer
	frameSize   int
	shared      *SharedAudioStream
	streaming   atomic.Bool
	frameNumber atomic.Uint64
}

// NewMicSource builds a microphone source. deviceName is matched against
// PortAudio's device list at StartStreaming time; an empty string selects
// the host API default input device.
func NewMicSource(deviceName string, sampleRate int, gain float64) *MicSource {
	return &MicSource{deviceName: deviceName, sampleRate: sampleRate, gain: gain}
}

func (m *MicSource) SampleRate() int { return m.sampleRate }

func (m *MicSource) IsStreaming() bool { return m.streaming.Load() }

// StartStreaming opens the device and begins publishing frameSize blocks
// onto stream until StopStreaming is called.
func (m *MicSource) StartStreaming(stream *SharedAudioStream, frameSize int) error {
	if m.streaming.Load() {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return errors.New(err).Category(errors.CategoryIO).Build()
	}

	device, err := m.resolveDevice()
	if err != nil {
		_ = portaudio.Terminate()
		return err
	}

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = 2
	params.SampleRate = float64(m.sampleRate)

	ringCapacity := frameSize * bytesPerSample * 4 // headroom for a few frames of jitter
	m.mu.Lock()
	m.frameSize = frameSize
	m.shared = stream
	m.ringA = ringbuffer.New(ringCapacity)
	m.ringB = ringbuffer.New(ringCapacity)
	m.mu.Unlock()

	paStream, err := portaudio.OpenStream(params, m.audioCallback)
	if err != nil {
		_ = portaudio.Terminate()
		return errors.New(err).Category(errors.CategoryIO).Build()
	}
	if err := paStream.Start(); err != nil {
		_ = portaudio.Terminate()
		return errors.New(err).Category(errors.CategoryIO).Build()
	}

	m.mu.Lock()
	m.stream = paStream
	m.mu.Unlock()
	m.streaming.Store(true)
	return nil
}

func (m *MicSource) resolveDevice() (*portaudio.DeviceInfo, error) {
	if m.deviceName == "" {
		host, err := portaudio.DefaultHostApi()
		if err != nil {
			return nil, errors.New(err).Category(errors.CategoryIO).Build()
		}
		return host.DefaultInputDevice, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryIO).Build()
	}
	for _, d := range devices {
		if d.Name == m.deviceName && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, errors.New(errors.NewStd("input device not found")).
		Category(errors.CategoryIO).
		Context("device_name", m.deviceName).
		Build()
}

// audioCallback runs on the PortAudio audio thread: it must never block.
// Samples are converted to bytes and pushed into the per-channel rings;
// if a ring write fails (the chunk does not fit), the callback returns
// without draining and without logging.
func (m *MicSource) audioCallback(in [][]float32) {
	if len(in) == 0 {
		return
	}
	left := in[0]
	right := left
	if len(in) > 1 {
		right = in[1]
	}

	m.mu.Lock()
	ringA, ringB := m.ringA, m.ringB
	m.mu.Unlock()
	if ringA == nil || ringB == nil {
		return
	}

	bufA := make([]byte, 0, len(left)*bytesPerSample)
	bufB := make([]byte, 0, len(right)*bytesPerSample)
	for i := range left {
		bufA = binary.LittleEndian.AppendUint32(bufA, math.Float32bits(left[i]*float32(m.gain)))
		bufB = binary.LittleEndian.AppendUint32(bufB, math.Float32bits(right[i]*float32(m.gain)))
	}

	if _, err := ringA.Write(bufA); err != nil {
		return
	}
	if _, err := ringB.Write(bufB); err != nil {
		return
	}

	m.drainFrames()
}

// drainFrames publishes every complete frameSize block currently resident
// in the rings. Called from the audio callback, so it must stay bounded.
func (m *MicSource) drainFrames() {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameBytes := m.frameSize * bytesPerSample
	for m.ringA.Length() >= frameBytes && m.ringB.Length() >= frameBytes {
		rawA := make([]byte, frameBytes)
		rawB := make([]byte, frameBytes)
		if _, err := m.ringA.Read(rawA); err != nil {
			return
		}
		if _, err := m.ringB.Read(rawB); err != nil {
			return
		}

		a := bytesToFloat32(rawA)
		b := bytesToFloat32(rawB)
		frame := &AudioFrame{
			ChannelA:    a,
			ChannelB:    b,
			SampleRate:  m.sampleRate,
			TimestampMs: time.Now().UnixMilli(),
			FrameNumber: m.frameNumber.Add(1),
		}
		if err := m.shared.Publish(frame); err != nil {
			return
		}
	}
}

func bytesToFloat32(raw []byte) []float32 {
	out := make([]float32, len(raw)/bytesPerSample)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*bytesPerSample:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// StopStreaming closes the device stream. Idempotent and bounded: a second
// call is a no-op.
func (m *MicSource) StopStreaming() error {
	if !m.streaming.CompareAndSwap(true, false) {
		return nil
	}

	m.mu.Lock()
	stream := m.stream
	m.stream = nil
	m.mu.Unlock()

	if stream == nil {
		return nil
	}
	if err := stream.Close(); err != nil {
		_ = portaudio.Terminate()
		return errors.New(err).Category(errors.CategoryIO).Build()
	}
	if err := portaudio.Terminate(); err != nil {
		return errors.New(err).Category(errors.CategoryIO).Build()
	}
	return nil
}
