package peer

import (
	"context"

	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

// FetchICEConfiguration builds the local WebRTC configuration from the
// relay's credential endpoint. A relay without TURN configured still returns
// its STUN list; a failed fetch falls back to the given static servers so a
// LAN-only session can proceed.
func FetchICEConfiguration(ctx context.Context, client *RelayClient, peerID string, fallback []webrtc.ICEServer, logger *zap.SugaredLogger) webrtc.Configuration {
	servers, err := client.ICEServers(ctx, peerID)
	if err != nil || len(servers) == 0 {
		if err != nil {
			logger.Warnw("failed to fetch ICE servers, using fallback", "error", err)
		}
		return webrtc.Configuration{ICEServers: fallback}
	}

	return webrtc.Configuration{ICEServers: servers}
}
