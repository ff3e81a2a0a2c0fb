package peer

import (
	"context"
	"encoding/json"
	"sync"

	"vidlink/internal/core/domain"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// Host is the answering endpoint. It joins with the host role (resetting the
// session), then polls indefinitely: every offer from a new sender id spawns
// a fresh per-guest Session, keyed by that sender id.
type Host struct {
	client    *RelayClient
	peerID    string
	webrtcCfg webrtc.Configuration
	newConn   func(webrtc.Configuration) (PeerConnection, error)
	poller    *Poller
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*Session
	since    int64
}

func NewHost(client *RelayClient, peerID string, webrtcCfg webrtc.Configuration, poller *Poller, logger *zap.SugaredLogger) *Host {
	return &Host{
		client:    client,
		peerID:    peerID,
		webrtcCfg: webrtcCfg,
		newConn: func(cfg webrtc.Configuration) (PeerConnection, error) {
			return webrtc.NewPeerConnection(cfg)
		},
		poller:   poller,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Run joins as host and polls until ctx is cancelled. New guests can arrive
// at any time, so the host never stops polling on its own.
func (h *Host) Run(ctx context.Context) error {
	result, err := h.client.Join(ctx, h.peerID, true)
	if err != nil {
		return err
	}
	if !result.IsInitiator {
		h.logger.Warnw("host joined but was not assigned initiator", "peer_count", result.PeerCount)
	}
	h.logger.Infow("host joined", "peer_id", h.peerID, "peer_count", result.PeerCount)

	h.poller.Run(ctx, h.pollOnce)
	h.closeAll()
	return ctx.Err()
}

// SessionCount returns the number of live per-guest sessions.
func (h *Host) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Host) pollOnce(ctx context.Context) (int, error) {
	resp, err := h.client.Poll(ctx, h.peerID, h.watermark())
	if err != nil {
		return 0, err
	}
	h.setWatermark(resp.Timestamp)

	for _, msg := range resp.Messages {
		h.dispatch(ctx, msg)
	}
	return len(resp.Messages), nil
}

// dispatch routes one delivered message by type, then by sender id.
func (h *Host) dispatch(ctx context.Context, msg RelayMessage) {
	switch msg.Type {
	case domain.SignalOffer:
		h.handleOffer(ctx, msg)
	case domain.SignalCandidate:
		h.handleCandidate(msg)
	case domain.SignalAnswer:
		// The host never offers, so answers have nothing to land on.
		h.logger.Debugw("ignoring stray answer", "from_peer", msg.FromPeerID)
	default:
		h.logger.Warnw("unexpected message type", "type", msg.Type, "from_peer", msg.FromPeerID)
	}
}

func (h *Host) handleOffer(ctx context.Context, msg RelayMessage) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(msg.Data, &desc); err != nil {
		h.logger.Warnw("malformed offer payload", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	h.mu.Lock()
	old := h.sessions[msg.FromPeerID]
	delete(h.sessions, msg.FromPeerID)
	h.mu.Unlock()

	if old != nil {
		// An offer never reuses a context; tear the old one down first.
		if err := old.Close(); err != nil {
			h.logger.Debugw("error closing replaced session", "from_peer", msg.FromPeerID, "error", err)
		}
	}

	pc, err := h.newConn(h.webrtcCfg)
	if err != nil {
		h.logger.Errorw("failed to create peer connection", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	session := NewSession(msg.FromPeerID, pc, h.sendFunc(ctx), h.handleSessionState, h.logger)

	h.mu.Lock()
	h.sessions[msg.FromPeerID] = session
	h.mu.Unlock()

	if err := session.HandleOffer(desc); err != nil {
		h.logger.Errorw("failed to answer offer", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	h.logger.Infow("answered guest offer", "from_peer", msg.FromPeerID)
}

func (h *Host) handleCandidate(msg RelayMessage) {
	h.mu.Lock()
	session, exists := h.sessions[msg.FromPeerID]
	h.mu.Unlock()

	if !exists {
		// No context means nothing to ever apply it to: discard, don't queue.
		h.logger.Infow("discarding candidate from unknown sender", "from_peer", msg.FromPeerID)
		return
	}

	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(msg.Data, &candidate); err != nil {
		h.logger.Warnw("malformed candidate payload", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	session.HandleCandidate(candidate)
}

// sendFunc binds outbound signals to this host's peer id and keeps the poll
// cadence fast right after sending.
func (h *Host) sendFunc(ctx context.Context) SendFunc {
	return func(t domain.SignalType, payload interface{}) error {
		if err := h.client.Signal(ctx, h.peerID, t, payload); err != nil {
			return err
		}
		h.poller.Kick()
		return nil
	}
}

func (h *Host) handleSessionState(remoteID string, s State) {
	h.logger.Infow("session state changed", "remote_peer", remoteID, "state", s)
	if !s.Terminal() {
		return
	}

	h.mu.Lock()
	delete(h.sessions, remoteID)
	h.mu.Unlock()
}

func (h *Host) watermark() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.since
}

func (h *Host) setWatermark(ts int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.since = ts
}

func (h *Host) closeAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(); err != nil {
			h.logger.Debugw("error closing session", "error", err)
		}
	}
}
