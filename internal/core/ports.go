package core

import (
	"context"
	"time"
)

// RateLimitStore owns the per-client rate limit state
type RateLimitStore interface {
	// CheckAndRecord decides whether identity may submit at now and records the attempt if so
	CheckAndRecord(ctx context.Context, identity string, now time.Time) (RateDecision, error)

	// Sweep drops records whose window started before the stale cutoff
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Len returns the number of tracked identities
	Len(ctx context.Context) (int, error)
}

// SubmissionSink persists accepted submissions
type SubmissionSink interface {
	// Save stores the submission together with its spam score
	Save(ctx context.Context, submission *Submission, spamScore int) (*SaveResult, error)

	// Ping verifies the sink is configured and reachable
	Ping(ctx context.Context) error

	// Name returns the sink name for logging and metrics
	Name() string
}

// Notifier tells the site owner about an accepted submission
type Notifier interface {
	Notify(ctx context.Context, submission *Submission, result *SaveResult) error
}
