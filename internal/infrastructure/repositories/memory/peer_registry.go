package memory

import (
	"context"
	"sync"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"
)

type MemoryPeerRegistry struct {
	peers map[domain.PeerID]*domain.Peer
	mu    sync.RWMutex
}

func NewMemoryPeerRegistry() ports.PeerRegistry {
	return &MemoryPeerRegistry{
		peers: make(map[domain.PeerID]*domain.Peer),
	}
}

func (r *MemoryPeerRegistry) Upsert(ctx context.Context, peer *domain.Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-joining with the same id overwrites the row, it is not an error.
	stored := *peer
	r.peers[peer.ID] = &stored
	return nil
}

func (r *MemoryPeerRegistry) Touch(ctx context.Context, id domain.PeerID, seen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	peer, exists := r.peers[id]
	if !exists {
		return domain.ErrPeerNotFound
	}

	peer.LastSeen = seen
	return nil
}

func (r *MemoryPeerRegistry) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.peers), nil
}

func (r *MemoryPeerRegistry) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, peer := range r.peers {
		if peer.LastSeen.Before(cutoff) {
			delete(r.peers, id)
			deleted++
		}
	}

	return deleted, nil
}

func (r *MemoryPeerRegistry) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peers = make(map[domain.PeerID]*domain.Peer)
	return nil
}
