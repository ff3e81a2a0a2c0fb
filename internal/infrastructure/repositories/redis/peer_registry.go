package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	peerKeyPrefix   = "vidlink:peer:"
	peerLivenessKey = "vidlink:peers:by_last_seen"
)

// RedisPeerRegistry keeps one JSON blob per peer plus a sorted set scored by
// last_seen, which is what the retention sweep ranges over.
type RedisPeerRegistry struct {
	client *redis.Client
}

func NewRedisPeerRegistry(client *redis.Client) ports.PeerRegistry {
	return &RedisPeerRegistry{client: client}
}

func (r *RedisPeerRegistry) peerKey(id domain.PeerID) string {
	return peerKeyPrefix + string(id)
}

func (r *RedisPeerRegistry) Upsert(ctx context.Context, peer *domain.Peer) error {
	data, err := json.Marshal(peer)
	if err != nil {
		return fmt.Errorf("failed to marshal peer: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.peerKey(peer.ID), data, 0)
	pipe.ZAdd(ctx, peerLivenessKey, redis.Z{
		Score:  float64(peer.LastSeen.UnixMilli()),
		Member: string(peer.ID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert peer in Redis: %w", err)
	}

	return nil
}

func (r *RedisPeerRegistry) Touch(ctx context.Context, id domain.PeerID, seen time.Time) error {
	data, err := r.client.Get(ctx, r.peerKey(id)).Result()
	if err == redis.Nil {
		return domain.ErrPeerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get peer from Redis: %w", err)
	}

	var peer domain.Peer
	if err := json.Unmarshal([]byte(data), &peer); err != nil {
		return fmt.Errorf("failed to unmarshal peer: %w", err)
	}

	peer.LastSeen = seen
	return r.Upsert(ctx, &peer)
}

func (r *RedisPeerRegistry) Count(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, peerLivenessKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count peers in Redis: %w", err)
	}
	return int(n), nil
}

func (r *RedisPeerRegistry) DeleteInactiveSince(ctx context.Context, cutoff time.Time) (int, error) {
	max := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	ids, err := r.client.ZRangeByScore(ctx, peerLivenessKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to range inactive peers: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, r.peerKey(domain.PeerID(id)))
	}
	pipe.ZRemRangeByScore(ctx, peerLivenessKey, "-inf", max)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to delete inactive peers: %w", err)
	}

	return len(ids), nil
}

func (r *RedisPeerRegistry) DeleteAll(ctx context.Context) error {
	ids, err := r.client.ZRange(ctx, peerLivenessKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list peers for reset: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, r.peerKey(domain.PeerID(id)))
	}
	pipe.Del(ctx, peerLivenessKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset peer registry: %w", err)
	}

	return nil
}
