package peer

import (
	"sync"

	"vidlink/internal/core/domain"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// PeerConnection is the slice of *webrtc.PeerConnection the session drives.
// Tests substitute a recording fake.
type PeerConnection interface {
	CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(options *webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	OnICECandidate(f func(*webrtc.ICECandidate))
	OnConnectionStateChange(f func(webrtc.PeerConnectionState))
	Close() error
}

// SendFunc publishes one signaling message through the relay.
type SendFunc func(t domain.SignalType, payload interface{}) error

// Session negotiates one WebRTC connection with a single remote peer.
//
// Candidates that arrive before the remote description is set are queued FIFO
// and flushed in arrival order the moment the description lands; anything
// arriving after that is applied directly.
type Session struct {
	mu       sync.Mutex
	remoteID string
	pc       PeerConnection
	state    State

	remoteSet bool
	pending   []webrtc.ICECandidateInit

	send    SendFunc
	onState func(remoteID string, s State)
	logger  *zap.SugaredLogger
}

func NewSession(remoteID string, pc PeerConnection, send SendFunc, onState func(string, State), logger *zap.SugaredLogger) *Session {
	s := &Session{
		remoteID: remoteID,
		pc:       pc,
		state:    StateJoined,
		send:     send,
		onState:  onState,
		logger:   logger,
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return // end of gathering
		}
		if err := s.send(domain.SignalCandidate, c.ToJSON()); err != nil {
			s.logger.Warnw("failed to send candidate", "remote_peer", s.remoteID, "error", err)
		}
	})

	pc.OnConnectionStateChange(s.handleConnectionState)

	return s
}

// RemoteID returns the remote peer this session negotiates with.
func (s *Session) RemoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteID
}

// State returns the current negotiation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartOffer builds the local description and sends it through the relay.
// The offering side then waits for the remote answer.
func (s *Session) StartOffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setStateLocked(StateOffering)

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return err
	}
	if err := s.send(domain.SignalOffer, offer); err != nil {
		return err
	}

	s.setStateLocked(StateAwaitingAnswer)
	return nil
}

// HandleOffer applies the remote offer, flushes any queued candidates, and
// replies with an answer.
func (s *Session) HandleOffer(desc webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setStateLocked(StateAnswering)

	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	s.remoteSet = true
	s.flushPendingLocked()

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return err
	}
	if err := s.send(domain.SignalAnswer, answer); err != nil {
		return err
	}

	s.setStateLocked(StateConnectedPending)
	return nil
}

// HandleAnswer applies the remote answer on the offering side.
func (s *Session) HandleAnswer(desc webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	s.remoteSet = true
	s.flushPendingLocked()

	s.setStateLocked(StateConnectedPending)
	return nil
}

// HandleCandidate applies the candidate, or queues it when the remote
// description has not landed yet. A single bad candidate is logged and
// skipped; it never aborts the session.
func (s *Session) HandleCandidate(candidate webrtc.ICECandidateInit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.remoteSet {
		s.pending = append(s.pending, candidate)
		return
	}

	if err := s.pc.AddICECandidate(candidate); err != nil {
		s.logger.Warnw("failed to add candidate", "remote_peer", s.remoteID, "error", err)
	}
}

// PendingCandidates reports how many candidates wait for the remote
// description.
func (s *Session) PendingCandidates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close tears the session down and releases the underlying connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return nil
	}

	s.pending = nil
	s.setStateLocked(StateClosed)
	return s.pc.Close()
}

func (s *Session) flushPendingLocked() {
	for _, candidate := range s.pending {
		if err := s.pc.AddICECandidate(candidate); err != nil {
			s.logger.Warnw("failed to apply queued candidate", "remote_peer", s.remoteID, "error", err)
		}
	}
	s.pending = nil
}

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	s.state = next
	if s.onState != nil {
		s.onState(s.remoteID, next)
	}
}

func (s *Session) handleConnectionState(cs webrtc.PeerConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cs {
	case webrtc.PeerConnectionStateConnected:
		s.setStateLocked(StateConnected)
	case webrtc.PeerConnectionStateDisconnected:
		s.teardownLocked(StateDisconnected)
	case webrtc.PeerConnectionStateFailed:
		s.teardownLocked(StateFailed)
	case webrtc.PeerConnectionStateClosed:
		s.teardownLocked(StateClosed)
	}
}

func (s *Session) teardownLocked(terminal State) {
	if s.state.Terminal() {
		return
	}
	s.pending = nil
	s.setStateLocked(terminal)
	if err := s.pc.Close(); err != nil {
		s.logger.Debugw("error closing peer connection", "remote_peer", s.remoteID, "error", err)
	}
}
