package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/contact-guard/internal/adapters/ratelimit"
	"github.com/mikey/contact-guard/internal/config"
	"github.com/mikey/contact-guard/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StoreFactory creates rate limit stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// RatePolicy returns the configured throttling policy
func (f *StoreFactory) RatePolicy() (core.RatePolicy, error) {
	rl, err := f.cfg.GetRateLimit()
	if err != nil {
		return core.RatePolicy{}, fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	return core.RatePolicy{
		HourlyLimit: rl.HourlyLimit,
		Window:      rl.Window,
		Cooldown:    rl.Cooldown,
		StaleAfter:  rl.StaleAfter,
	}, nil
}

// CreateRateLimitStore creates a rate limit store based on the configuration
func (f *StoreFactory) CreateRateLimitStore() (core.RateLimitStore, error) {
	rl, err := f.cfg.GetRateLimit()
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	policy, err := f.RatePolicy()
	if err != nil {
		return nil, err
	}

	logger := f.logger.Named("ratelimit")

	switch rl.Store {
	case "memory", "":
		return ratelimit.NewMemoryStore(policy, logger, rl.SweepInterval), nil
	case "redis":
		rc := f.cfg.GetRedis()
		rdb := redis.NewClient(&redis.Options{
			Addr:     rc.Address,
			Password: rc.Password,
			DB:       rc.DB,
		})
		store := ratelimit.NewRedisStore(rdb, policy, logger, ratelimit.WithKeyPrefix(rc.KeyPrefix))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Stop()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", rc.Address, err)
		}
		logger.Info("Using Redis rate limit store", zap.String("address", rc.Address))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit store: %s", rl.Store)
	}
}
