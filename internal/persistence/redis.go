package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/config"
)

const pendingMarker = "pending"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. It returns
// nil when no address is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; idempotency keys disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// IdempotencyStore records which complaint a client request key produced.
// A key holds "pending" while the first request runs, then the complaint ID.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore builds a store on r.
func NewIdempotencyStore(r *Redis, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: r.Client, ttl: ttl}
}

// Reserve claims key. When another request already holds it, the stored
// complaint ID is returned, or "" while that request is still pending.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, key, pendingMarker, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) || val == pendingMarker {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, false, nil
}

// Complete stores the complaint ID produced for key.
func (s *IdempotencyStore) Complete(ctx context.Context, key, complaintID string) error {
	return s.client.Set(ctx, key, complaintID, s.ttl).Err()
}

// Release drops key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
