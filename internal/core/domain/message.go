package domain

import "encoding/json"

type SignalType string

const (
	SignalJoin      SignalType = "join"
	SignalOffer     SignalType = "offer"
	SignalAnswer    SignalType = "answer"
	SignalCandidate SignalType = "candidate"
)

// IsRelayable reports whether messages of this type are persisted for
// delivery to other peers. Join is a registry operation, not a message.
func (t SignalType) IsRelayable() bool {
	switch t {
	case SignalOffer, SignalAnswer, SignalCandidate:
		return true
	}
	return false
}

// Message is one stored signaling message. Data is opaque to the relay: the
// serialized SDP or ICE candidate is forwarded verbatim and only the client
// decodes it. Rows are immutable once appended.
type Message struct {
	ID        int64           `json:"id"`
	PeerID    PeerID          `json:"peerId"`
	Type      SignalType      `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// Inbox is one delivery window. Timestamp is server time at response
// construction, not the max message timestamp, so a quiet poll still
// advances the caller's watermark.
type Inbox struct {
	Messages  []*Message
	Timestamp int64
}
