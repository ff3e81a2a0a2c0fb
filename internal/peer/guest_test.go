package peer

import (
	"context"
	"testing"
	"time"

	"vidlink/internal/core/domain"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestGuest(t *testing.T, serverURL string) (*Guest, *fakeConnFactory) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	client := NewRelayClient(serverURL, 5*time.Second)
	factory := &fakeConnFactory{}
	poller := NewPoller(5*time.Millisecond, 50*time.Millisecond, logger)
	guest := NewGuest(client, "guest_1", webrtc.Configuration{}, poller, logger)
	guest.newConn = factory.new
	return guest, factory
}

func TestGuest_ConnectsAfterAnswer(t *testing.T) {
	server := newRelayServer(t)
	guest, factory := newTestGuest(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- guest.Run(ctx)
	}()

	// The guest joins and offers immediately; the simulated host sees it.
	host := NewRelayClient(server.URL, 5*time.Second)
	var offer *RelayMessage
	require.Eventually(t, func() bool {
		resp, err := host.Poll(ctx, "host_1", 0)
		if err != nil {
			return false
		}
		for i := range resp.Messages {
			if resp.Messages[i].Type == domain.SignalOffer {
				offer = &resp.Messages[i]
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "guest never offered")
	assert.Equal(t, "guest_1", offer.FromPeerID)

	// Host answers, then trickles a candidate.
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 host"}
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalAnswer, answer))
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:host-1"}))

	pc := factory.latest()
	require.NotNil(t, pc)
	require.Eventually(t, func() bool {
		return pc.remote() != nil && len(pc.candidates()) == 1
	}, 2*time.Second, 10*time.Millisecond, "answer or candidate never applied")
	assert.Equal(t, "v=0 host", pc.remote().SDP)

	// ICE completing ends the run cleanly.
	pc.fireConnectionState(webrtc.PeerConnectionStateConnected)

	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("guest did not finish after connecting")
	}
	assert.Equal(t, StateConnected, guest.Session().State())
}

func TestGuest_FailureReportsError(t *testing.T) {
	server := newRelayServer(t)
	guest, factory := newTestGuest(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- guest.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		pc := factory.latest()
		return pc != nil && pc.hasStateCallback()
	}, 2*time.Second, 10*time.Millisecond, "peer connection never created")

	factory.latest().fireConnectionState(webrtc.PeerConnectionStateFailed)

	select {
	case err := <-runErr:
		require.Error(t, err)
		assert.Contains(t, err.Error(), string(StateFailed))
	case <-time.After(2 * time.Second):
		t.Fatal("guest did not finish after failure")
	}
}

func TestGuest_IgnoresCandidateFromUnrelatedPeer(t *testing.T) {
	server := newRelayServer(t)
	guest, factory := newTestGuest(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- guest.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		pc := factory.latest()
		return pc != nil && pc.hasStateCallback()
	}, 2*time.Second, 10*time.Millisecond)
	pc := factory.latest()

	// Another guest's candidates are visible on the shared relay but must
	// not reach our connection; only the answering host's signals do. The
	// first one lands before the answer identifies the host, the second
	// after, so both the held queue and the bound session drop them.
	stranger := NewRelayClient(server.URL, 5*time.Second)
	require.NoError(t, stranger.Signal(ctx, "guest_2", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:stranger"}))

	host := NewRelayClient(server.URL, 5*time.Second)
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalAnswer,
		webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 host"}))
	require.NoError(t, stranger.Signal(ctx, "guest_2", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:stranger-2"}))
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:host-1"}))

	require.Eventually(t, func() bool {
		return pc.remote() != nil && len(pc.candidates()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"candidate:host-1"}, pc.candidates())

	pc.fireConnectionState(webrtc.PeerConnectionStateConnected)
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("guest did not finish")
	}
}

// A host may trickle candidates that reach the relay ahead of its answer.
// They are held per sender and applied once the answer binds the host.
func TestGuest_QueuesCandidateArrivingBeforeAnswer(t *testing.T) {
	server := newRelayServer(t)
	guest, factory := newTestGuest(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- guest.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		pc := factory.latest()
		return pc != nil && pc.hasStateCallback()
	}, 2*time.Second, 10*time.Millisecond)
	pc := factory.latest()

	host := NewRelayClient(server.URL, 5*time.Second)
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:early-1"}))
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalCandidate,
		webrtc.ICECandidateInit{Candidate: "candidate:early-2"}))
	require.NoError(t, host.Signal(ctx, "host_1", domain.SignalAnswer,
		webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 host"}))

	require.Eventually(t, func() bool {
		return pc.remote() != nil && len(pc.candidates()) == 2
	}, 2*time.Second, 10*time.Millisecond, "early candidates never applied")
	assert.Equal(t, []string{"candidate:early-1", "candidate:early-2"}, pc.candidates())

	pc.fireConnectionState(webrtc.PeerConnectionStateConnected)
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("guest did not finish")
	}
}
