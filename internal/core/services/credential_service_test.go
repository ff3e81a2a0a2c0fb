package services

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialService_Grant_STUNOnly(t *testing.T) {
	svc := NewCredentialService("", 10*time.Minute, nil, []string{"stun:stun.example.org:3478"})

	grant := svc.Grant("peer_a")
	require.Len(t, grant.Servers, 1)
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, grant.Servers[0].URLs)
	assert.Empty(t, grant.Servers[0].Username)
	assert.Equal(t, int64(600), grant.TTL)
}

func TestCredentialService_Grant_TURNCredentials(t *testing.T) {
	svc := NewCredentialService(
		"shared-secret",
		10*time.Minute,
		[]string{"turn:turn.example.org:3478"},
		[]string{"stun:stun.example.org:3478"},
	)

	grant := svc.Grant("peer_a")
	require.Len(t, grant.Servers, 2)

	turn := grant.Servers[1]
	assert.Equal(t, []string{"turn:turn.example.org:3478"}, turn.URLs)

	parts := strings.SplitN(turn.Username, ":", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "peer_a", parts[1])

	expiry, err := strconv.ParseInt(parts[0], 10, 64)
	require.NoError(t, err)
	assert.Greater(t, expiry, time.Now().Unix())
	assert.LessOrEqual(t, expiry, time.Now().Add(10*time.Minute).Unix())

	mac := hmac.New(sha1.New, []byte("shared-secret"))
	mac.Write([]byte(turn.Username))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, turn.Credential)
}

func TestCredentialService_Grant_ReusesLiveGrant(t *testing.T) {
	svc := NewCredentialService(
		"shared-secret",
		10*time.Minute,
		[]string{"turn:turn.example.org:3478"},
		nil,
	)

	first := svc.Grant("peer_a")
	second := svc.Grant("peer_a")
	require.Len(t, first.Servers, 1)
	assert.Equal(t, first.Servers[0].Username, second.Servers[0].Username)
	assert.Equal(t, first.Servers[0].Credential, second.Servers[0].Credential)

	// Distinct peers never share credentials.
	other := svc.Grant("peer_b")
	assert.NotEqual(t, first.Servers[0].Username, other.Servers[0].Username)
}

func TestCredentialService_Grant_NoSecretSkipsTURN(t *testing.T) {
	svc := NewCredentialService("", time.Minute, []string{"turn:turn.example.org:3478"}, nil)

	grant := svc.Grant("peer_a")
	assert.Empty(t, grant.Servers)
}
