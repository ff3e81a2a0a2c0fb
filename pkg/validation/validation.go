package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// PeerIDRegex validates peer ID format
	PeerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidatePeerID validates a peer id from the wire
func ValidatePeerID(peerID string) error {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		return fmt.Errorf("peer ID is required")
	}
	if len(peerID) > 100 {
		return fmt.Errorf("peer ID is too long (max 100 characters)")
	}
	if !PeerIDRegex.MatchString(peerID) {
		return fmt.Errorf("peer ID contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateSince validates a delivery watermark
func ValidateSince(since int64) error {
	if since < 0 {
		return fmt.Errorf("since must be >= 0")
	}
	return nil
}
