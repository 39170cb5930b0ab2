package processing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/sctg-development/photoacoustic-go/internal/acquisition"
)

// streamEntry pairs a registered stream with its human-readable name.
type streamEntry struct {
	name   string
	stream *acquisition.SharedAudioStream
}

// StreamingNodeRegistry maps node UUIDs to their live SharedAudioStream, so
// an HTTP surface (outside this package's scope) can look up a stream by
// ID and tee a live feed to external consumers. Grounded on
// streaming_registry.rs, restructured with a plain RWMutex-guarded map in
// the teacher's manager.go idiom instead of a DashMap.
type StreamingNodeRegistry struct {
	mu      sync.RWMutex
	streams map[uuid.UUID]streamEntry
}

// NewStreamingNodeRegistry builds an empty registry.
func NewStreamingNodeRegistry() *StreamingNodeRegistry {
	return &StreamingNodeRegistry{streams: make(map[uuid.UUID]streamEntry)}
}

// RegisterStream associates nodeID with stream under name.
func (r *StreamingNodeRegistry) RegisterStream(nodeID uuid.UUID, name string, stream *acquisition.SharedAudioStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[nodeID] = streamEntry{name: name, stream: stream}
}

// GetStream looks up a stream by node ID.
func (r *StreamingNodeRegistry) GetStream(nodeID uuid.UUID) (*acquisition.SharedAudioStream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.streams[nodeID]
	if !ok {
		return nil, false
	}
	return entry.stream, true
}

// UnregisterStream removes nodeID's registration. Returns whether anything
// was removed.
func (r *StreamingNodeRegistry) UnregisterStream(nodeID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[nodeID]; !ok {
		return false
	}
	delete(r.streams, nodeID)
	return true
}

// ListAllNodes returns every registered node ID.
func (r *StreamingNodeRegistry) ListAllNodes() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	return ids
}

// NameOf returns the human-readable name registered for nodeID.
func (r *StreamingNodeRegistry) NameOf(nodeID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.streams[nodeID]
	return entry.name, ok
}
