package core

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikey/contact-guard/internal/utils"
	"go.uber.org/zap"
)

const (
	honeypotScore    = 10
	failOpenReason   = "Spam check error - allowing request"
	highConfidence   = 8
	mediumConfidence = 4
)

// SpamGuard is the core service deciding whether a submission may be persisted
type SpamGuard struct {
	store     RateLimitStore
	analyzer  *ContentAnalyzer
	logger    *zap.Logger
	threshold int
	nowFn     func() time.Time
	mask      func(string) string
	text      *utils.TextProcessor
}

// NewSpamGuard creates a new spam guard
func NewSpamGuard(
	store RateLimitStore,
	analyzer *ContentAnalyzer,
	logger *zap.Logger,
	threshold int,
) *SpamGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpamGuard{
		store:     store,
		analyzer:  analyzer,
		logger:    logger,
		threshold: threshold,
		nowFn:     time.Now,
		mask:      redactIdentity,
		text:      utils.NewTextProcessor(logger),
	}
}

// WithClock replaces the clock used by Check
func (s *SpamGuard) WithClock(nowFn func() time.Time) *SpamGuard {
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

// WithIdentityMask sets how client identities appear in log output.
// Without one, identities are logged as "redacted".
func (s *SpamGuard) WithIdentityMask(mask func(string) string) *SpamGuard {
	if mask != nil {
		s.mask = mask
	}
	return s
}

// Check evaluates a submission at the current time
func (s *SpamGuard) Check(ctx context.Context, submission *Submission) *Verdict {
	return s.Evaluate(ctx, submission, s.nowFn())
}

// Evaluate runs honeypot, rate limit and content checks in that order.
// It never fails: any internal fault yields an allowing verdict.
func (s *SpamGuard) Evaluate(ctx context.Context, submission *Submission, now time.Time) (verdict *Verdict) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Spam check panicked",
				zap.Any("panic", r),
				zap.String("fallback", "Allowing request due to error"))
			verdict = failOpen()
		}
	}()

	s.logger.Info("Starting spam check",
		zap.String("client", s.mask(submission.ClientIdentity)),
		zap.Bool("has_honeypot", submission.Honeypot != ""),
		zap.Int("message_length", utf8.RuneCountInString(submission.Message)))

	// Honeypot
	if CheckHoneypot(submission.Honeypot) {
		s.logger.Warn("Honeypot triggered",
			zap.String("honeypot_value", s.text.Preview(submission.Honeypot, 20)))
		return &Verdict{
			IsSpam:     true,
			Score:      honeypotScore,
			Reasons:    []string{honeypotReason},
			Confidence: ConfidenceHigh,
			Allow:      false,
		}
	}

	// Rate limit
	decision, err := s.store.CheckAndRecord(ctx, submission.ClientIdentity, now)
	if err != nil {
		return s.fail(fmt.Errorf("rate limit check failed: %w", err))
	}
	if !decision.Allowed {
		s.logger.Warn("Rate limit exceeded",
			zap.String("client", s.mask(submission.ClientIdentity)),
			zap.Int("remaining_minutes", decision.RemainingMinutes))
		return &Verdict{
			IsSpam:     false,
			Score:      0,
			Reasons:    []string{decision.Reason},
			Confidence: ConfidenceMedium,
			Allow:      false,
		}
	}

	// Content
	analysis, err := s.analyzer.Analyze(submission.Name, submission.Email, submission.Message)
	if err != nil {
		return s.fail(fmt.Errorf("content analysis failed: %w", err))
	}

	isSpam := analysis.Score >= s.threshold
	verdict = &Verdict{
		IsSpam:     isSpam,
		Score:      analysis.Score,
		Reasons:    analysis.Reasons,
		Confidence: calculateConfidence(analysis.Score, analysis.Reasons),
		Allow:      !isSpam,
		Details:    &analysis.Details,
	}
	if verdict.Reasons == nil {
		verdict.Reasons = []string{}
	}

	s.logger.Info("Spam check completed",
		zap.Bool("is_spam", verdict.IsSpam),
		zap.Int("score", verdict.Score),
		zap.String("confidence", string(verdict.Confidence)),
		zap.Int("reason_count", len(verdict.Reasons)),
		zap.Bool("allow", verdict.Allow),
		zap.Int("url_count", analysis.Details.URLCount),
		zap.Float64("uppercase_ratio", analysis.Details.UpperCaseRatio),
		zap.Strings("spam_keywords", analysis.Details.SpamKeywords))

	return verdict
}

// IsSpam determines if a score crosses the configured threshold
func (s *SpamGuard) IsSpam(score int) bool {
	return score >= s.threshold
}

func (s *SpamGuard) fail(err error) *Verdict {
	s.logger.Error("Spam check failed",
		zap.Error(err),
		zap.String("fallback", "Allowing request due to error"))
	return failOpen()
}

func failOpen() *Verdict {
	return &Verdict{
		IsSpam:     false,
		Score:      0,
		Reasons:    []string{failOpenReason},
		Confidence: ConfidenceLow,
		Allow:      true,
	}
}

// The honeypot branch short-circuits before scoring, but the rule stays order-independent.
func calculateConfidence(score int, reasons []string) Confidence {
	for _, reason := range reasons {
		if strings.Contains(reason, "Honeypot") {
			return ConfidenceHigh
		}
	}
	switch {
	case score >= highConfidence:
		return ConfidenceHigh
	case score >= mediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func redactIdentity(string) string {
	return "redacted"
}
