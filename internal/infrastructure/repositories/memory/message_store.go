package memory

import (
	"context"
	"sort"
	"sync"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"
)

type MemoryMessageStore struct {
	messages []*domain.Message
	nextID   int64
	mu       sync.RWMutex
}

func NewMemoryMessageStore() ports.MessageStore {
	return &MemoryMessageStore{
		nextID: 1,
	}
}

func (s *MemoryMessageStore) Append(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *msg
	stored.ID = s.nextID
	s.nextID++

	s.messages = append(s.messages, &stored)
	msg.ID = stored.ID
	return nil
}

func (s *MemoryMessageStore) ListSince(ctx context.Context, exclude domain.PeerID, since int64) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Message
	for _, msg := range s.messages {
		if msg.PeerID == exclude {
			continue
		}
		if msg.Timestamp <= since {
			continue
		}
		result = append(result, msg)
	}

	// Appends are already near-ordered, but concurrent senders can interleave.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

func (s *MemoryMessageStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.messages[:0]
	deleted := 0
	for _, msg := range s.messages {
		if msg.Timestamp < cutoff {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	s.messages = kept

	return deleted, nil
}

func (s *MemoryMessageStore) TrimToNewest(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) <= keep {
		return 0, nil
	}

	// Oldest rows sit at the front; ids are assigned in append order.
	excess := len(s.messages) - keep
	s.messages = append([]*domain.Message(nil), s.messages[excess:]...)
	return excess, nil
}

func (s *MemoryMessageStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	return nil
}
