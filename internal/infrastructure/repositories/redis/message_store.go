package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"vidlink/internal/core/domain"
	"vidlink/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	messagesKey       = "vidlink:messages"
	messageCounterKey = "vidlink:messages:next_id"
)

// RedisMessageStore keeps messages in a sorted set scored by timestamp. The
// id assigned from the INCR counter keeps members unique even when two peers
// send identical payloads in the same millisecond.
type RedisMessageStore struct {
	client *redis.Client
}

func NewRedisMessageStore(client *redis.Client) ports.MessageStore {
	return &RedisMessageStore{client: client}
}

func (s *RedisMessageStore) Append(ctx context.Context, msg *domain.Message) error {
	id, err := s.client.Incr(ctx, messageCounterKey).Result()
	if err != nil {
		return fmt.Errorf("failed to assign message id: %w", err)
	}
	msg.ID = id

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := s.client.ZAdd(ctx, messagesKey, redis.Z{
		Score:  float64(msg.Timestamp),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append message to Redis: %w", err)
	}

	return nil
}

func (s *RedisMessageStore) ListSince(ctx context.Context, exclude domain.PeerID, since int64) ([]*domain.Message, error) {
	members, err := s.client.ZRangeByScore(ctx, messagesKey, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(since, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range messages from Redis: %w", err)
	}

	var result []*domain.Message
	for _, member := range members {
		var msg domain.Message
		if err := json.Unmarshal([]byte(member), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		if msg.PeerID == exclude {
			continue
		}
		result = append(result, &msg)
	}

	// ZRangeByScore orders equal scores lexically; fall back to insertion
	// order so a sender's same-millisecond messages stay sequenced.
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (s *RedisMessageStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	n, err := s.client.ZRemRangeByScore(ctx, messagesKey,
		"-inf", "("+strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired messages: %w", err)
	}
	return int(n), nil
}

func (s *RedisMessageStore) TrimToNewest(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	n, err := s.client.ZRemRangeByRank(ctx, messagesKey, 0, int64(-keep-1)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to trim messages: %w", err)
	}
	return int(n), nil
}

func (s *RedisMessageStore) DeleteAll(ctx context.Context) error {
	if err := s.client.Del(ctx, messagesKey, messageCounterKey).Err(); err != nil {
		return fmt.Errorf("failed to reset message store: %w", err)
	}
	return nil
}
