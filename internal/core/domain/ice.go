package domain

// ICEServer describes one STUN or TURN server handed to clients. Username and
// Credential are only set for TURN entries carrying time-limited credentials.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ICEServerGrant is the response of the credential endpoint: the full server
// list a client should load into its WebRTC configuration, and how long the
// TURN credentials inside it stay valid.
type ICEServerGrant struct {
	Servers []ICEServer `json:"iceServers"`
	TTL     int64       `json:"ttl"` // seconds
}
