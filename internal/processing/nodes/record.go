package nodes

import (
	"log/slog"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
	"github.com/sctg-development/photoacoustic-go/internal/logging"
	"github.com/sctg-development/photoacoustic-go/internal/processing"
)

const recordBitDepth = 16

// RecordNode is a transparent pass-through that tees DualChannel data to a
// WAV file on disk, grounded on acquisition/record_consumer.rs's WAV
// writing (there applied to a standalone stream consumer; here adapted
// into a graph stage so recording composes with the rest of the pipeline).
type RecordNode struct {
	id         string
	outputPath string

	mu             sync.Mutex
	file           *os.File
	encoder        *wav.Encoder
	sampleRate     int
	framesRecorded uint64
}

// NewRecordNode builds a node that writes every DualChannel frame it sees
// to outputPath as a stereo 16-bit WAV, opening the file lazily on the
// first frame (so the sample rate is known before the header is written).
func NewRecordNode(id, outputPath string) *RecordNode {
	return &RecordNode{id: id, outputPath: outputPath}
}

func (n *RecordNode) ID() string   { return n.id }
func (n *RecordNode) Type() string { return "record" }

func (n *RecordNode) ensureEncoderLocked(sampleRate int) error {
	if n.encoder != nil {
		return nil
	}
	f, err := os.Create(n.outputPath)
	if err != nil {
		return errors.New(err).Category(errors.CategoryIO).Context("path", n.outputPath).Build()
	}
	n.file = f
	n.sampleRate = sampleRate
	n.encoder = wav.NewEncoder(f, sampleRate, recordBitDepth, 2, 1)
	return nil
}

func (n *RecordNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind != processing.KindDualChannel {
		return input, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureEncoderLocked(input.SampleRate); err != nil {
		return processing.Data{}, err
	}

	frames := len(input.ChannelA)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: n.sampleRate},
		Data:   make([]int, frames*2),
	}
	maxVal := float32(int(1) << (recordBitDepth - 1))
	for i := range frames {
		buf.Data[i*2] = int(input.ChannelA[i] * maxVal)
		buf.Data[i*2+1] = int(input.ChannelB[i] * maxVal)
	}

	if err := n.encoder.Write(buf); err != nil {
		return processing.Data{}, errors.New(err).Category(errors.CategoryIO).Context("path", n.outputPath).Build()
	}
	n.framesRecorded += uint64(frames)

	return input, nil
}

// FramesRecorded returns the number of sample frames written so far.
func (n *RecordNode) FramesRecorded() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.framesRecorded
}

// Close flushes and closes the underlying WAV file, if one was opened.
func (n *RecordNode) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.encoder == nil {
		return nil
	}
	if err := n.encoder.Close(); err != nil {
		logger := logging.ForService("processing")
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("failed to finalize WAV recording", "path", n.outputPath, "error", err)
	}
	err := n.file.Close()
	n.encoder = nil
	n.file = nil
	return err
}

func (n *RecordNode) AcceptsInput(input processing.Data) bool {
	return input.Kind == processing.KindDualChannel
}

func (n *RecordNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	return input.Kind, true
}

func (n *RecordNode) Reset() {}

func (n *RecordNode) SupportsHotReload() bool { return false }

func (n *RecordNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }
