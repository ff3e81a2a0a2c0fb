package ports

import (
	"context"
	"encoding/json"

	"vidlink/internal/core/domain"
)

type SignalingService interface {
	// Join upserts the peer and, for a host (or a lone first joiner), resets
	// the whole session before counting.
	Join(ctx context.Context, peerID domain.PeerID, asHost bool) (*domain.JoinResult, error)
	// Publish stores one offer/answer/candidate under the sender's id.
	Publish(ctx context.Context, peerID domain.PeerID, t domain.SignalType, data json.RawMessage) error
}

type DeliveryService interface {
	// Fetch returns messages from other senders newer than since and a fresh
	// watermark, touching the requester's last_seen as a side effect.
	Fetch(ctx context.Context, peerID domain.PeerID, since int64) (*domain.Inbox, error)
}

// RetentionService bounds storage growth. Sweep never returns an error: it is
// invoked best-effort on write paths and must not fail the triggering request.
type RetentionService interface {
	Sweep(ctx context.Context)
}

type CredentialService interface {
	// Grant issues the ICE server list with time-limited TURN credentials
	// bound to the requesting peer id.
	Grant(peerID domain.PeerID) *domain.ICEServerGrant
}
