package repositories

import (
	"context"

	"vidlink/internal/core/ports"
	"vidlink/internal/infrastructure/repositories/memory"
	redisrepo "vidlink/internal/infrastructure/repositories/redis"
	"vidlink/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support. Redis is the
// durable production path; memory repositories are the single-node fallback.
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreatePeerRegistry creates a peer registry (Redis or memory with fallback)
func (f *RepositoryFactory) CreatePeerRegistry() ports.PeerRegistry {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisPeerRegistry(f.redisClient)
	}
	return memory.NewMemoryPeerRegistry()
}

// CreateMessageStore creates a message store (Redis or memory with fallback)
func (f *RepositoryFactory) CreateMessageStore() ports.MessageStore {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisMessageStore(f.redisClient)
	}
	return memory.NewMemoryMessageStore()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
