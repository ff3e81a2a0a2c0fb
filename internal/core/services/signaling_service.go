package services

import (
	"context"
	"encoding/json"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"

	"go.uber.org/zap"
)

type signalingService struct {
	messages  ports.MessageStore
	peers     ports.PeerRegistry
	retention ports.RetentionService
	logger    *zap.SugaredLogger
}

func NewSignalingService(
	messages ports.MessageStore,
	peers ports.PeerRegistry,
	retention ports.RetentionService,
	logger *zap.SugaredLogger,
) ports.SignalingService {
	return &signalingService{
		messages:  messages,
		peers:     peers,
		retention: retention,
		logger:    logger,
	}
}

// Join upserts the peer row and reports initiator status.
//
// A host join resets the whole session: every other peer row and every stored
// message is deleted before the host's own row is written, so each conference
// starts from zero stale state. Clients that do not declare a role fall back
// to count-based assignment: a joiner that finds itself alone is the
// initiator of a fresh session and prior messages are cleared.
func (s *signalingService) Join(ctx context.Context, peerID domain.PeerID, asHost bool) (*domain.JoinResult, error) {
	if peerID == "" {
		return nil, domain.ErrMissingPeerID
	}

	now := time.Now()
	peer := &domain.Peer{
		ID:       peerID,
		JoinedAt: now,
		LastSeen: now,
	}

	var result *domain.JoinResult

	if asHost {
		// Clear all, then insert self. Sequential is acceptable: the relay
		// supports a single best-effort session and a guest racing the reset
		// simply re-joins.
		if err := s.messages.DeleteAll(ctx); err != nil {
			return nil, err
		}
		if err := s.peers.DeleteAll(ctx); err != nil {
			return nil, err
		}
		if err := s.peers.Upsert(ctx, peer); err != nil {
			return nil, err
		}
		s.logger.Infow("session reset by host join", "peer_id", peerID)
		result = &domain.JoinResult{IsInitiator: true, PeerCount: 1}
	} else {
		if err := s.peers.Upsert(ctx, peer); err != nil {
			return nil, err
		}
		count, err := s.peers.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 1 {
			// Lone joiner starts a fresh session; drop leftovers from the
			// previous one.
			if err := s.messages.DeleteAll(ctx); err != nil {
				return nil, err
			}
		}
		result = &domain.JoinResult{IsInitiator: count == 1, PeerCount: count}
	}

	s.retention.Sweep(ctx)

	s.logger.Infow("peer joined",
		"peer_id", peerID,
		"is_initiator", result.IsInitiator,
		"peer_count", result.PeerCount,
	)

	return result, nil
}

// Publish stores one offer/answer/candidate under the sender's id. The
// payload stays opaque: the relay never looks past the envelope type.
func (s *signalingService) Publish(ctx context.Context, peerID domain.PeerID, t domain.SignalType, data json.RawMessage) error {
	if peerID == "" {
		return domain.ErrMissingPeerID
	}
	if !t.IsRelayable() {
		return domain.ErrUnknownSignalType
	}
	// An offer, answer, or candidate is meaningless without a body; storing
	// one would only burn a delivery slot on every other peer's next poll.
	if len(data) == 0 {
		return domain.ErrEmptyPayload
	}

	msg := &domain.Message{
		PeerID:    peerID,
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		return err
	}

	s.retention.Sweep(ctx)

	s.logger.Debugw("signal stored",
		"peer_id", peerID,
		"type", t,
		"message_id", msg.ID,
	)

	return nil
}
