package ports

import (
	"context"
	"time"

	"vidlink/internal/core/domain"
)

// PeerRegistry is the durable table of known peers. Upsert semantics: writing
// an existing id is not an error, it refreshes the row.
type PeerRegistry interface {
	Upsert(ctx context.Context, peer *domain.Peer) error
	Touch(ctx context.Context, id domain.PeerID, seen time.Time) error
	Count(ctx context.Context) (int, error)
	DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error)
	DeleteAll(ctx context.Context) error
}

// MessageStore is the durable append-only signaling message table. Append
// assigns the storage id; rows are never mutated afterwards.
type MessageStore interface {
	Append(ctx context.Context, msg *domain.Message) error
	// ListSince returns messages with timestamp strictly greater than since,
	// excluding those sent by exclude, ordered ascending by timestamp.
	ListSince(ctx context.Context, exclude domain.PeerID, since int64) ([]*domain.Message, error)
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
	// TrimToNewest keeps only the keep most recent rows. keep <= 0 disables
	// the cap.
	TrimToNewest(ctx context.Context, keep int) (int, error)
	DeleteAll(ctx context.Context) error
}
