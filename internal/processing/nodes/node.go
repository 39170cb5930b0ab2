// Package nodes implements the processing graph's built-in node types: the
// shared Node contract plus input, channel selection/mixing, filtering,
// differential, gain, recording, streaming, peak detection, scripting, and
// output stages.
package nodes

import "github.com/sctg-development/photoacoustic-go/internal/processing"

// Node is the contract every processing graph stage implements. It mirrors
// AudioProcessor/Analyzer from audiocore, generalized to the graph's typed
// Data values instead of raw PCM buffers.
type Node interface {
	// Process transforms input into output, or returns an error if input's
	// Kind isn't one this node accepts.
	Process(input processing.Data) (processing.Data, error)

	ID() string
	Type() string

	// AcceptsInput reports whether this node can process input's Kind.
	AcceptsInput(input processing.Data) bool

	// OutputKind reports the Kind this node would emit for input, if any.
	OutputKind(input processing.Data) (processing.DataKind, bool)

	// Reset clears any internal state (buffers, history) a node carries
	// between frames.
	Reset()

	// SupportsHotReload reports whether UpdateConfig can mutate this node
	// without rebuilding the graph.
	SupportsHotReload() bool

	// UpdateConfig applies a subset of parameters in place, returning
	// whether anything changed. Nodes that don't support hot reload return
	// (false, nil) for any input.
	UpdateConfig(parameters map[string]any) (bool, error)
}

// ChannelTarget selects which channel(s) of a DualChannel value an
// operation applies to.
type ChannelTarget int

const (
	ChannelA ChannelTarget = iota
	ChannelB
	ChannelBoth
)
