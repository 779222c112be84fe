package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civic-india/backend/internal/cache"
	"github.com/civic-india/backend/internal/evidence"
	"github.com/civic-india/backend/pkg/logger"
	"github.com/civic-india/backend/pkg/utils"
)

const keyPrefix = "evidence:"

// Store is a cache.Store shared by every process pointing at the same Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr))

	return client, nil
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Close() error {
	return s.client.Close()
}

// redisKey hashes the query so that neither the intent/query boundary nor
// arbitrary user text can collide inside the Redis keyspace.
func redisKey(key cache.Key) string {
	return keyPrefix + string(key.Intent) + ":" + utils.HashString(key.Query)
}

func (s *Store) Get(ctx context.Context, key cache.Key) (evidence.Bundle, bool) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return evidence.Bundle{}, false
	}
	if err != nil {
		logger.Warn("Evidence cache read failed",
			zap.String("intent", string(key.Intent)),
			zap.Error(err),
		)
		return evidence.Bundle{}, false
	}

	var stored storedBundle
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn("Evidence cache entry unreadable", zap.String("key", redisKey(key)), zap.Error(err))
		return evidence.Bundle{}, false
	}
	if stored.Query != key.Query {
		// sha256 collision or a hand-edited key; never serve another query's evidence.
		return evidence.Bundle{}, false
	}

	logger.Debug("Evidence cache hit", zap.String("intent", string(key.Intent)))
	return stored.Bundle, true
}

func (s *Store) Set(ctx context.Context, key cache.Key, bundle evidence.Bundle) {
	data, err := json.Marshal(storedBundle{Query: key.Query, Bundle: bundle})
	if err != nil {
		logger.Warn("Failed to marshal evidence bundle", zap.Error(err))
		return
	}

	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		logger.Warn("Evidence cache write failed",
			zap.String("intent", string(key.Intent)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("Evidence cached", zap.String("intent", string(key.Intent)), zap.Duration("ttl", s.ttl))
}

// Clear removes every evidence entry, leaving other keys untouched.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Evidence cache cleared")
	return nil
}

type storedBundle struct {
	Query  string          `json:"query"`
	Bundle evidence.Bundle `json:"bundle"`
}
