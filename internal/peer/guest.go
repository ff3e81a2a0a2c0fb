package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"vidlink/internal/core/domain"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// Guest is the offering endpoint: it joins, offers immediately, and polls
// until its single connection reaches a final state. Unlike the host it has
// nothing left to negotiate once connected, so polling stops entirely.
type Guest struct {
	client    *RelayClient
	peerID    string
	webrtcCfg webrtc.Configuration
	newConn   func(webrtc.Configuration) (PeerConnection, error)
	poller    *Poller
	logger    *zap.SugaredLogger

	mu       sync.Mutex
	session  *Session
	remoteID string
	pending  map[string][]webrtc.ICECandidateInit
	since    int64
	done     context.CancelFunc
	final    State
}

func NewGuest(client *RelayClient, peerID string, webrtcCfg webrtc.Configuration, poller *Poller, logger *zap.SugaredLogger) *Guest {
	return &Guest{
		client:    client,
		peerID:    peerID,
		webrtcCfg: webrtcCfg,
		newConn: func(cfg webrtc.Configuration) (PeerConnection, error) {
			return webrtc.NewPeerConnection(cfg)
		},
		poller:  poller,
		logger:  logger,
		pending: make(map[string][]webrtc.ICECandidateInit),
	}
}

// Run joins the session, sends the offer, and polls until the connection is
// established or a terminal state is reached. Returns nil once connected.
func (g *Guest) Run(ctx context.Context) error {
	result, err := g.client.Join(ctx, g.peerID, false)
	if err != nil {
		return err
	}
	if result.IsInitiator {
		// A guest that finds itself alone has no host to offer to yet; it
		// still offers, and the offer ages out if nobody answers.
		g.logger.Warnw("guest joined an empty session", "peer_id", g.peerID)
	}
	g.logger.Infow("guest joined", "peer_id", g.peerID, "peer_count", result.PeerCount)

	pc, err := g.newConn(g.webrtcCfg)
	if err != nil {
		return fmt.Errorf("failed to create peer connection: %w", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	g.done = cancel
	g.session = NewSession("", pc, g.sendFunc(ctx), g.handleSessionState, g.logger)
	session := g.session
	g.mu.Unlock()

	if err := session.StartOffer(); err != nil {
		return fmt.Errorf("failed to send offer: %w", err)
	}

	g.poller.Run(pollCtx, g.pollOnce)

	if err := ctx.Err(); err != nil {
		return err
	}

	switch final := g.finalState(); final {
	case StateConnected:
		return nil
	default:
		return fmt.Errorf("negotiation ended in state %s", final)
	}
}

// Session exposes the guest's single negotiation context.
func (g *Guest) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *Guest) pollOnce(ctx context.Context) (int, error) {
	resp, err := g.client.Poll(ctx, g.peerID, g.watermark())
	if err != nil {
		return 0, err
	}
	g.setWatermark(resp.Timestamp)

	for _, msg := range resp.Messages {
		g.dispatch(msg)
	}
	return len(resp.Messages), nil
}

func (g *Guest) dispatch(msg RelayMessage) {
	switch msg.Type {
	case domain.SignalAnswer:
		g.handleAnswer(msg)
	case domain.SignalCandidate:
		g.handleCandidate(msg)
	case domain.SignalOffer:
		// Another guest negotiating with the host; not addressed to us.
		g.logger.Debugw("ignoring offer from another peer", "from_peer", msg.FromPeerID)
	default:
		g.logger.Warnw("unexpected message type", "type", msg.Type, "from_peer", msg.FromPeerID)
	}
}

func (g *Guest) handleAnswer(msg RelayMessage) {
	g.mu.Lock()
	if g.remoteID != "" && g.remoteID != msg.FromPeerID {
		g.mu.Unlock()
		g.logger.Debugw("ignoring answer from unexpected sender", "from_peer", msg.FromPeerID)
		return
	}
	g.remoteID = msg.FromPeerID
	session := g.session
	// The answer identifies the host. Its queued candidates get flushed;
	// everyone else's are dropped along with the queue itself.
	queued := g.pending[msg.FromPeerID]
	g.pending = nil
	g.mu.Unlock()

	var desc webrtc.SessionDescription
	if err := json.Unmarshal(msg.Data, &desc); err != nil {
		g.logger.Warnw("malformed answer payload", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	if err := session.HandleAnswer(desc); err != nil {
		g.logger.Errorw("failed to apply answer", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	for _, candidate := range queued {
		session.HandleCandidate(candidate)
	}
}

func (g *Guest) handleCandidate(msg RelayMessage) {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(msg.Data, &candidate); err != nil {
		g.logger.Warnw("malformed candidate payload", "from_peer", msg.FromPeerID, "error", err)
		return
	}

	g.mu.Lock()
	// Until the answer arrives the host is not identified, and the host may
	// trickle candidates that reach the relay ahead of its answer. Hold every
	// sender's candidates in order; the answer decides whose queue survives.
	if g.remoteID == "" {
		g.pending[msg.FromPeerID] = append(g.pending[msg.FromPeerID], candidate)
		g.mu.Unlock()
		g.logger.Debugw("queued candidate until answer", "from_peer", msg.FromPeerID)
		return
	}
	remoteID := g.remoteID
	session := g.session
	g.mu.Unlock()

	// Candidates from other guests are visible on the shared relay; only the
	// answering host's matter to us.
	if remoteID != msg.FromPeerID {
		g.logger.Debugw("ignoring candidate from unrelated peer", "from_peer", msg.FromPeerID)
		return
	}

	session.HandleCandidate(candidate)
}

func (g *Guest) sendFunc(ctx context.Context) SendFunc {
	return func(t domain.SignalType, payload interface{}) error {
		if err := g.client.Signal(ctx, g.peerID, t, payload); err != nil {
			return err
		}
		g.poller.Kick()
		return nil
	}
}

// handleSessionState stops the polling loop once the connection is settled,
// in either direction: a connected guest has nothing left to ask the relay,
// and a failed one needs a fresh join under a new id anyway.
func (g *Guest) handleSessionState(remoteID string, s State) {
	g.logger.Infow("session state changed", "state", s)

	if s != StateConnected && !s.Terminal() {
		return
	}

	g.mu.Lock()
	g.final = s
	done := g.done
	g.mu.Unlock()

	if done != nil {
		done()
	}
}

func (g *Guest) finalState() State {
	g.mu.Lock()
	final := g.final
	session := g.session
	g.mu.Unlock()

	if final != "" {
		return final
	}
	if session != nil {
		return session.State()
	}
	return StateIdle
}

func (g *Guest) watermark() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.since
}

func (g *Guest) setWatermark(ts int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.since = ts
}
