package services

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"
	"vidlink/pkg/cache"
)

type credentialService struct {
	secret   string
	ttl      time.Duration
	turnURLs []string
	stunURLs []string
	grants   *cache.Cache
}

// NewCredentialService issues time-limited TURN credentials using the coturn
// use-auth-secret convention: username is "<expiry>:<peerId>" and the
// password is the base64 HMAC-SHA1 of that username under the shared secret.
//
// Grants are cached per peer for half their lifetime, so a client refreshing
// its ICE configuration keeps getting the same still-valid credential pair
// instead of a new expiry on every request.
func NewCredentialService(secret string, ttl time.Duration, turnURLs, stunURLs []string) ports.CredentialService {
	return &credentialService{
		secret:   secret,
		ttl:      ttl,
		turnURLs: turnURLs,
		stunURLs: stunURLs,
		grants:   cache.New(ttl / 2),
	}
}

func (s *credentialService) Grant(peerID domain.PeerID) *domain.ICEServerGrant {
	if cached, ok := s.grants.Get(string(peerID)); ok {
		return cached.(*domain.ICEServerGrant)
	}

	grant := s.issue(peerID)
	s.grants.Set(string(peerID), grant)
	return grant
}

func (s *credentialService) issue(peerID domain.PeerID) *domain.ICEServerGrant {
	grant := &domain.ICEServerGrant{
		TTL: int64(s.ttl.Seconds()),
	}

	if len(s.stunURLs) > 0 {
		grant.Servers = append(grant.Servers, domain.ICEServer{URLs: s.stunURLs})
	}

	if len(s.turnURLs) > 0 && s.secret != "" {
		expiry := time.Now().Add(s.ttl).Unix()
		username := fmt.Sprintf("%d:%s", expiry, peerID)
		mac := hmac.New(sha1.New, []byte(s.secret))
		mac.Write([]byte(username))
		password := base64.StdEncoding.EncodeToString(mac.Sum(nil))

		grant.Servers = append(grant.Servers, domain.ICEServer{
			URLs:       s.turnURLs,
			Username:   username,
			Credential: password,
		})
	}

	return grant
}
