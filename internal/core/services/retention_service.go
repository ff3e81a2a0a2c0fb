package services

import (
	"context"
	"time"

	"vidlink/internal/core/ports"

	"go.uber.org/zap"
)

type retentionService struct {
	messages ports.MessageStore
	peers    ports.PeerRegistry

	messageHorizon time.Duration
	peerHorizon    time.Duration
	maxMessages    int

	logger *zap.SugaredLogger
}

// NewRetentionService returns the sweeper that bounds storage growth. Both
// horizons default to one hour upstream; maxMessages <= 0 disables the cap.
func NewRetentionService(
	messages ports.MessageStore,
	peers ports.PeerRegistry,
	messageHorizon, peerHorizon time.Duration,
	maxMessages int,
	logger *zap.SugaredLogger,
) ports.RetentionService {
	return &retentionService{
		messages:       messages,
		peers:          peers,
		messageHorizon: messageHorizon,
		peerHorizon:    peerHorizon,
		maxMessages:    maxMessages,
		logger:         logger,
	}
}

// Sweep prunes expired rows. It rides the write path of every join and
// message insert, so failures are logged and swallowed: sweeping must never
// fail the triggering request.
func (s *retentionService) Sweep(ctx context.Context) {
	now := time.Now()

	expired, err := s.messages.DeleteOlderThan(ctx, now.Add(-s.messageHorizon).UnixMilli())
	if err != nil {
		s.logger.Warnw("message sweep failed", "error", err)
	}

	// The cap guards against write bursts between sweeps; it applies
	// independently of the time-based rule.
	trimmed, err := s.messages.TrimToNewest(ctx, s.maxMessages)
	if err != nil {
		s.logger.Warnw("message trim failed", "error", err)
	}

	stale, err := s.peers.DeleteInactiveSince(ctx, now.Add(-s.peerHorizon))
	if err != nil {
		s.logger.Warnw("peer sweep failed", "error", err)
	}

	if expired+trimmed+stale > 0 {
		s.logger.Debugw("retention sweep",
			"expired_messages", expired,
			"trimmed_messages", trimmed,
			"stale_peers", stale,
		)
	}
}
