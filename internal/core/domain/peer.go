package domain

import "time"

type PeerID string

// Peer is one registry row. Peer ids are minted per connection attempt, so a
// reconnecting client always shows up as a brand-new peer.
type Peer struct {
	ID       PeerID    `json:"id"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
}

// JoinResult is what a joining peer learns about the session it entered.
// Exactly one peer per session observes IsInitiator=true.
type JoinResult struct {
	IsInitiator bool
	PeerCount   int
}
