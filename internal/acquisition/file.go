package acquisition

import (
	"context"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

// FileSource is a PullSource that replays a WAV file, decoded with
// go-audio/wav the way RecordNode encodes one (§4.4). Mono files are
// duplicated into both channels; files with more than two channels use the
// first two.
type FileSource struct {
	mu         sync.Mutex
	file       *os.File
	decoder    *wav.Decoder
	sampleRate int
	channels   int
	loop       bool
	path       string
}

// NewFileSource opens path and prepares it for frame-sized pull reads.
func NewFileSource(path string, loop bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryIO).
			Context("path", path).
			Build()
	}
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, errors.New(errors.NewStd("not a valid WAV file")).
			Category(errors.CategoryIO).
			Context("path", path).
			Build()
	}
	dec.ReadInfo()

	return &FileSource{
		file:       f,
		decoder:    dec,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		loop:       loop,
		path:       path,
	}, nil
}

func (fs *FileSource) SampleRate() int { return fs.sampleRate }

// ReadFrame decodes frameSize samples per channel. It returns two empty
// slices once the file is exhausted and Loop is false.
func (fs *FileSource) ReadFrame(ctx context.Context, frameSize int) ([]float32, []float32, error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	channels := fs.channels
	if channels < 1 {
		channels = 1
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: fs.sampleRate},
		Data:   make([]int, frameSize*channels),
	}

	n, err := fs.decoder.PCMBuffer(buf)
	if err != nil {
		return nil, nil, errors.New(err).
			Category(errors.CategoryIO).
			Context("path", fs.path).
			Build()
	}
	if n == 0 {
		if fs.loop {
			if seekErr := fs.rewindLocked(); seekErr != nil {
				return nil, nil, seekErr
			}
			n, err = fs.decoder.PCMBuffer(buf)
			if err != nil {
				return nil, nil, errors.New(err).Category(errors.CategoryIO).Build()
			}
		}
		if n == 0 {
			return nil, nil, nil
		}
	}

	frames := n / channels
	maxVal := float32(int(1) << (uint(fs.decoder.BitDepth) - 1))
	a := make([]float32, frames)
	b := make([]float32, frames)
	for i := range frames {
		left := float32(buf.Data[i*channels]) / maxVal
		right := left
		if channels > 1 {
			right = float32(buf.Data[i*channels+1]) / maxVal
		}
		a[i] = left
		b[i] = right
	}

	return a, b, nil
}

func (fs *FileSource) rewindLocked() error {
	if _, err := fs.file.Seek(0, 0); err != nil {
		return errors.New(err).Category(errors.CategoryIO).Build()
	}
	fs.decoder = wav.NewDecoder(fs.file)
	fs.decoder.ReadInfo()
	return nil
}

func (fs *FileSource) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.file.Close()
}
