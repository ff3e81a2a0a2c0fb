package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/pkg/circuitbreaker"
	"vidlink/pkg/retry"

	"github.com/pion/webrtc/v3"
)

// RelayClient is a typed HTTP client for the signaling relay. Transport
// failures feed a circuit breaker so a down relay trips fast instead of
// stalling every poll on the full timeout.
type RelayClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

// NewRelayClient creates a new relay client
func NewRelayClient(baseURL string, timeout time.Duration) *RelayClient {
	return &RelayClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

// JoinResponse mirrors the relay's join reply.
type JoinResponse struct {
	Success     bool `json:"success"`
	IsInitiator bool `json:"isInitiator"`
	PeerCount   int  `json:"peerCount"`
}

// RelayMessage is one delivered signaling message.
type RelayMessage struct {
	Type       domain.SignalType `json:"type"`
	Data       json.RawMessage   `json:"data"`
	FromPeerID string            `json:"fromPeerId"`
	Timestamp  int64             `json:"timestamp"`
}

// PollResponse is one delivery window plus the next watermark.
type PollResponse struct {
	Messages  []RelayMessage `json:"messages"`
	Timestamp int64          `json:"timestamp"`
}

type iceGrantResponse struct {
	ICEServers []struct {
		URLs       []string `json:"urls"`
		Username   string   `json:"username,omitempty"`
		Credential string   `json:"credential,omitempty"`
	} `json:"iceServers"`
	TTL int64 `json:"ttl"`
}

// Join registers the peer with the relay. Startup is the one place a relay
// call is retried: a client that cannot join has nothing else to do.
func (c *RelayClient) Join(ctx context.Context, peerID string, asHost bool) (*JoinResponse, error) {
	return retry.RetryWithResult(ctx, retry.DefaultConfig(), func() (*JoinResponse, error) {
		body := map[string]interface{}{
			"type":   string(domain.SignalJoin),
			"peerId": peerID,
		}
		if asHost {
			body["host"] = true
		}

		var resp JoinResponse
		if err := c.post(ctx, "/signaling", body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

// Signal publishes one offer/answer/candidate under this client's peer id.
func (c *RelayClient) Signal(ctx context.Context, peerID string, t domain.SignalType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal signal payload: %w", err)
	}

	body := map[string]interface{}{
		"type":   string(t),
		"peerId": peerID,
		"data":   json.RawMessage(data),
	}

	return c.post(ctx, "/signaling", body, nil)
}

// Poll fetches messages from other peers newer than since.
func (c *RelayClient) Poll(ctx context.Context, peerID string, since int64) (*PollResponse, error) {
	query := url.Values{}
	query.Set("peerId", peerID)
	query.Set("since", strconv.FormatInt(since, 10))

	var resp PollResponse
	if err := c.get(ctx, "/messages?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ICEServers fetches the relay's ICE server list, including time-limited
// TURN credentials bound to this peer id.
func (c *RelayClient) ICEServers(ctx context.Context, peerID string) ([]webrtc.ICEServer, error) {
	body := map[string]interface{}{"peerId": peerID}

	var resp iceGrantResponse
	if err := c.post(ctx, "/turn-credentials", body, &resp); err != nil {
		return nil, err
	}

	servers := make([]webrtc.ICEServer, 0, len(resp.ICEServers))
	for _, s := range resp.ICEServers {
		server := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
		}
		servers = append(servers, server)
	}
	return servers, nil
}

// Helper methods
func (c *RelayClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, out)
}

func (c *RelayClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, out)
}

// do runs the request through the breaker. Error replies from the relay are
// protocol-level and do not count against it; only transport failures do.
func (c *RelayClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := c.breaker.Execute(ctx, func() error {
		var doErr error
		resp, doErr = c.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *RelayClient) parseResponse(resp *http.Response, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errorResp map[string]interface{}
		if err := json.Unmarshal(body, &errorResp); err == nil {
			return fmt.Errorf("relay error (HTTP %d): %v", resp.StatusCode, errorResp)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}
