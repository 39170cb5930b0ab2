package nodes

import "github.com/sctg-development/photoacoustic-go/internal/processing"

// InputNode is typically the first stage of a graph: it converts a raw
// AudioFrame into DualChannel form and passes everything else through
// unchanged, grounded on nodes.rs's InputNode.
type InputNode struct {
	id string
}

// NewInputNode builds an input node with the given graph-unique id.
func NewInputNode(id string) *InputNode {
	return &InputNode{id: id}
}

func (n *InputNode) ID() string   { return n.id }
func (n *InputNode) Type() string { return "input" }

func (n *InputNode) Process(input processing.Data) (processing.Data, error) {
	if input.Kind == processing.KindAudioFrame && input.Frame != nil {
		return processing.FromAudioFrame(input.Frame), nil
	}
	return input, nil
}

func (n *InputNode) AcceptsInput(processing.Data) bool { return true }

func (n *InputNode) OutputKind(input processing.Data) (processing.DataKind, bool) {
	if input.Kind == processing.KindAudioFrame {
		return processing.KindDualChannel, true
	}
	return input.Kind, true
}

func (n *InputNode) Reset() {}

func (n *InputNode) SupportsHotReload() bool { return false }

func (n *InputNode) UpdateConfig(map[string]any) (bool, error) { return false, nil }
