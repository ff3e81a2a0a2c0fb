package validation

import (
	"strings"
	"testing"
)

func TestValidatePeerID(t *testing.T) {
	tests := []struct {
		name    string
		peerID  string
		wantErr bool
	}{
		{"valid id", "peer_abc123", false},
		{"valid with dash", "peer-abc-123", false},
		{"valid uuid style", "peer_550e8400-e29b-41d4-a716-446655440000", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"contains space", "peer a", true},
		{"contains slash", "peer/a", true},
		{"contains colon", "peer:a", true},
		{"too long", strings.Repeat("a", 101), true},
		{"max length", strings.Repeat("a", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeerID(tt.peerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeerID(%q) error = %v, wantErr %v", tt.peerID, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSince(t *testing.T) {
	tests := []struct {
		name    string
		since   int64
		wantErr bool
	}{
		{"zero", 0, false},
		{"positive", 1700000000000, false},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSince(tt.since)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSince(%d) error = %v, wantErr %v", tt.since, err, tt.wantErr)
			}
		})
	}
}
