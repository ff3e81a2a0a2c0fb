package peer

// State is the lifecycle of one per-remote-peer negotiation.
type State string

const (
	StateIdle             State = "idle"
	StateJoined           State = "joined"
	StateOffering         State = "offering"
	StateAwaitingAnswer   State = "awaiting-answer"
	StateAnswering        State = "answering"
	StateConnectedPending State = "connected-pending"
	StateConnected        State = "connected"
	StateDisconnected     State = "disconnected"
	StateFailed           State = "failed"
	StateClosed           State = "closed"
)

// Terminal reports whether the state ends the negotiation. Recovery from a
// terminal state needs a fresh join under a new peer id; there is no
// reconnect-with-same-identity protocol.
func (s State) Terminal() bool {
	switch s {
	case StateDisconnected, StateFailed, StateClosed:
		return true
	}
	return false
}
