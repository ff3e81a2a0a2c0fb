package services

import (
	"context"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"

	"go.uber.org/zap"
)

type deliveryService struct {
	messages ports.MessageStore
	peers    ports.PeerRegistry
	logger   *zap.SugaredLogger
}

func NewDeliveryService(
	messages ports.MessageStore,
	peers ports.PeerRegistry,
	logger *zap.SugaredLogger,
) ports.DeliveryService {
	return &deliveryService{
		messages: messages,
		peers:    peers,
		logger:   logger,
	}
}

// Fetch returns every stored message from other senders newer than since,
// ascending by timestamp. The returned watermark is server time at response
// construction rather than the max message timestamp, so a quiet window still
// advances the caller past clock skew.
func (s *deliveryService) Fetch(ctx context.Context, peerID domain.PeerID, since int64) (*domain.Inbox, error) {
	if peerID == "" {
		return nil, domain.ErrMissingPeerID
	}

	now := time.Now().UnixMilli()

	msgs, err := s.messages.ListSince(ctx, peerID, since)
	if err != nil {
		return nil, err
	}

	// A message appended after the watermark was taken would be handed out
	// now and again on the next poll, since the watermark sits below its
	// timestamp. Defer it to the window that covers it.
	for len(msgs) > 0 && msgs[len(msgs)-1].Timestamp > now {
		msgs = msgs[:len(msgs)-1]
	}

	// Polling is the only liveness signal the relay gets, so keep the
	// requester's row fresh. A peer the sweeper already removed just has to
	// re-join; its poll still succeeds.
	if err := s.peers.Touch(ctx, peerID, time.UnixMilli(now)); err != nil && err != domain.ErrPeerNotFound {
		s.logger.Warnw("failed to touch peer", "peer_id", peerID, "error", err)
	}

	return &domain.Inbox{
		Messages:  msgs,
		Timestamp: now,
	}, nil
}
