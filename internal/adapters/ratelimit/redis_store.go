package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/contact-guard/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisMaxRetries = 5

// ErrContended is returned when a record keeps changing under the optimistic transaction
var ErrContended = errors.New("rate limit record contended")

// RedisStore is a Redis implementation of the RateLimitStore interface.
// Records expire through key TTLs rather than an explicit sweep.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	policy core.RatePolicy
	logger *zap.Logger
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(rdb *redis.Client, policy core.RatePolicy, logger *zap.Logger, opts ...RedisOption) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		rdb:    rdb,
		prefix: "contact:ratelimit",
		policy: policy,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type redisRecord struct {
	WindowCount       int         `json:"window_count"`
	WindowStart       time.Time   `json:"window_start"`
	RecentSubmissions []time.Time `json:"recent_submissions"`
}

// CheckAndRecord reads, decides and writes the record inside a WATCH transaction
func (s *RedisStore) CheckAndRecord(ctx context.Context, identity string, now time.Time) (core.RateDecision, error) {
	if s == nil || s.rdb == nil {
		return core.RateDecision{}, errors.New("redis client not configured")
	}

	key := s.key(identity)
	var decision core.RateDecision

	txf := func(tx *redis.Tx) error {
		rec, err := s.load(ctx, tx, key, now)
		if err != nil {
			return err
		}

		decision = s.policy.Apply(rec, now)
		if !decision.Allowed {
			return nil
		}

		payload, err := json.Marshal(redisRecord(*rec))
		if err != nil {
			return fmt.Errorf("failed to encode rate limit record: %w", err)
		}
		ttl := s.policy.StaleAfter - now.Sub(rec.WindowStart)
		if ttl <= 0 {
			ttl = s.policy.StaleAfter
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return decision, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("Rate limit transaction retried",
				zap.Int("attempt", attempt+1))
			continue
		}
		return core.RateDecision{}, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return core.RateDecision{}, ErrContended
}

func (s *RedisStore) load(ctx context.Context, tx *redis.Tx, key string, now time.Time) (*core.RateLimitRecord, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.policy.NewRecord(now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit record: %w", err)
	}

	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("Discarding unreadable rate limit record",
			zap.String("key", key),
			zap.Error(err))
		return s.policy.NewRecord(now), nil
	}
	rec := core.RateLimitRecord(stored)
	return &rec, nil
}

// Sweep is a no-op: Redis expires records on its own
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Len counts the keys under the store prefix
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	if s == nil || s.rdb == nil {
		return 0, errors.New("redis client not configured")
	}

	count := 0
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan rate limit keys: %w", err)
	}
	return count, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Stop closes the Redis client
func (s *RedisStore) Stop() {
	if err := s.rdb.Close(); err != nil {
		s.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}

func (s *RedisStore) key(identity string) string {
	if s.prefix == "" {
		return identity
	}
	return s.prefix + ":" + identity
}
