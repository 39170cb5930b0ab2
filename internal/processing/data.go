// Package processing implements the signal processing graph: the data
// that flows through it, the nodes that transform it, and the graph and
// consumer that wire nodes to a live acquisition stream.
package processing

import "github.com/sctg-development/photoacoustic-go/internal/acquisition"

// NodeId identifies a node within a ProcessingGraph.
type NodeId = string

// DataKind discriminates the payload carried by a Data value. Go has no
// tagged-union enum, so Data is a flat struct with a Kind discriminant and
// only the fields for that Kind populated.
type DataKind int

const (
	KindAudioFrame DataKind = iota
	KindSingleChannel
	KindDualChannel
	KindPhotoacousticResult
)

func (k DataKind) String() string {
	switch k {
	case KindAudioFrame:
		return "audio_frame"
	case KindSingleChannel:
		return "single_channel"
	case KindDualChannel:
		return "dual_channel"
	case KindPhotoacousticResult:
		return "photoacoustic_result"
	default:
		return "unknown"
	}
}

// Metadata describes how a PhotoacousticResult was derived from its
// originating AudioFrame.
type Metadata struct {
	OriginalFrameNumber  uint64
	OriginalTimestamp    int64
	SampleRate           int
	ProcessingSteps      []string
	ProcessingLatencyUs  int64
}

// Data is the value passed between processing nodes. Exactly the fields
// relevant to Kind are meaningful; the rest are zero-valued.
type Data struct {
	Kind DataKind

	// AudioFrame
	Frame *acquisition.AudioFrame

	// SingleChannel
	Samples []float32

	// DualChannel
	ChannelA []float32
	ChannelB []float32

	// common to SingleChannel/DualChannel (an AudioFrame carries these on
	// Frame instead)
	SampleRate  int
	Timestamp   int64
	FrameNumber uint64

	// PhotoacousticResult
	Signal   []float32
	Metadata Metadata
}

// NewAudioFrameData wraps a raw acquisition frame as graph input.
func NewAudioFrameData(frame *acquisition.AudioFrame) Data {
	return Data{Kind: KindAudioFrame, Frame: frame}
}

// NewDualChannelData builds a Data value carrying two related channels.
func NewDualChannelData(channelA, channelB []float32, sampleRate int, timestamp int64, frameNumber uint64) Data {
	return Data{
		Kind:        KindDualChannel,
		ChannelA:    channelA,
		ChannelB:    channelB,
		SampleRate:  sampleRate,
		Timestamp:   timestamp,
		FrameNumber: frameNumber,
	}
}

// NewSingleChannelData builds a Data value carrying a single channel.
func NewSingleChannelData(samples []float32, sampleRate int, timestamp int64, frameNumber uint64) Data {
	return Data{
		Kind:        KindSingleChannel,
		Samples:     samples,
		SampleRate:  sampleRate,
		Timestamp:   timestamp,
		FrameNumber: frameNumber,
	}
}

// NewPhotoacousticResultData builds the terminal result value produced by
// an output node.
func NewPhotoacousticResultData(signal []float32, metadata Metadata) Data {
	return Data{Kind: KindPhotoacousticResult, Signal: signal, Metadata: metadata}
}

// FromAudioFrame converts a raw AudioFrame into the graph's DualChannel
// representation, the form every built-in node after the input stage
// operates on.
func FromAudioFrame(frame *acquisition.AudioFrame) Data {
	return NewDualChannelData(frame.ChannelA, frame.ChannelB, frame.SampleRate, frame.TimestampMs, frame.FrameNumber)
}

// SampleRateOf returns the sample rate carried by d, or false if d's Kind
// doesn't carry one (PhotoacousticResult).
func (d Data) SampleRateOf() (int, bool) {
	switch d.Kind {
	case KindAudioFrame:
		if d.Frame == nil {
			return 0, false
		}
		return d.Frame.SampleRate, true
	case KindSingleChannel, KindDualChannel:
		return d.SampleRate, true
	default:
		return 0, false
	}
}

// TimestampOf returns the timestamp carried by d, or false if d's Kind
// doesn't carry one.
func (d Data) TimestampOf() (int64, bool) {
	switch d.Kind {
	case KindAudioFrame:
		if d.Frame == nil {
			return 0, false
		}
		return d.Frame.TimestampMs, true
	case KindSingleChannel, KindDualChannel:
		return d.Timestamp, true
	default:
		return 0, false
	}
}

// FrameNumberOf returns the frame number carried by d, or false if d's
// Kind doesn't carry one.
func (d Data) FrameNumberOf() (uint64, bool) {
	switch d.Kind {
	case KindAudioFrame:
		if d.Frame == nil {
			return 0, false
		}
		return d.Frame.FrameNumber, true
	case KindSingleChannel, KindDualChannel:
		return d.FrameNumber, true
	default:
		return 0, false
	}
}
