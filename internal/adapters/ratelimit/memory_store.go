package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/contact-guard/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-process implementation of the RateLimitStore interface
type MemoryStore struct {
	records    map[string]*core.RateLimitRecord
	mu         sync.Mutex
	policy     core.RatePolicy
	logger     *zap.Logger
	sweepEvery time.Duration
	nowFn      func() time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewMemoryStore creates a new in-memory store. A positive sweepEvery starts the background sweep.
func NewMemoryStore(policy core.RatePolicy, logger *zap.Logger, sweepEvery time.Duration) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &MemoryStore{
		records:    make(map[string]*core.RateLimitRecord),
		policy:     policy,
		logger:     logger,
		sweepEvery: sweepEvery,
		nowFn:      time.Now,
		stopCh:     make(chan struct{}),
	}

	if sweepEvery > 0 {
		go store.startSweepTask()
	}

	return store
}

// CheckAndRecord decides and records under a single lock so concurrent
// requests from one client cannot both pass on a stale count
func (s *MemoryStore) CheckAndRecord(ctx context.Context, identity string, now time.Time) (core.RateDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		rec = s.policy.NewRecord(now)
	}

	decision := s.policy.Apply(rec, now)
	if decision.Allowed && !ok {
		s.records[identity] = rec
	}

	return decision, nil
}

// Sweep removes records whose window started more than StaleAfter ago
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if s.policy.IsStale(rec, now) {
			delete(s.records, key)
			removed++
		}
	}

	s.logger.Debug("Rate limit store cleanup completed",
		zap.Int("removed_entries", removed),
		zap.Int("remaining_entries", len(s.records)))
	return removed, nil
}

// Len returns the number of tracked identities
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), nil
}

// Snapshot returns a copy of the record for identity
func (s *MemoryStore) Snapshot(identity string) (core.RateLimitRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		return core.RateLimitRecord{}, false
	}
	cp := *rec
	cp.RecentSubmissions = append([]time.Time(nil), rec.RecentSubmissions...)
	return cp, true
}

// startSweepTask starts a background task to drop stale records
func (s *MemoryStore) startSweepTask() {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(context.Background(), s.nowFn()); err != nil {
				s.logger.Error("Failed to sweep rate limit store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the background sweep task
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
