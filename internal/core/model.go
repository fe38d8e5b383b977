package core

import (
	"time"
)

// Confidence expresses how sure the guard is about a verdict
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Submission represents a contact form submission under evaluation
type Submission struct {
	Name     string
	Email    string
	Message  string
	Honeypot string

	// ClientIdentity is only used as a rate-limit key and is never persisted
	ClientIdentity string
}

// Verdict represents the result of evaluating a submission
type Verdict struct {
	IsSpam     bool
	Score      int
	Reasons    []string
	Confidence Confidence
	Allow      bool
	Details    *ContentDetails
}

// RateLimited reports whether the submission was denied for throttling rather than abuse
func (v *Verdict) RateLimited() bool {
	return !v.Allow && !v.IsSpam
}

// ContentDetails is a diagnostic bag kept for logging
type ContentDetails struct {
	URLCount       int
	MessageLength  int
	UpperCaseRatio float64
	SpamKeywords   []string
	NameLength     int
	ValidEmail     bool
}

// ContentAnalysis is the output of the content analyzer
type ContentAnalysis struct {
	Score   int
	Reasons []string
	Details ContentDetails
}

// RateLimitRecord is the per-client state kept by a rate limit store
type RateLimitRecord struct {
	WindowCount       int
	WindowStart       time.Time
	RecentSubmissions []time.Time
}

// RateDecision is the result of a rate limit check
type RateDecision struct {
	Allowed          bool
	Reason           string
	RemainingMinutes int
}

// SaveResult is returned by a submission sink after a successful write
type SaveResult struct {
	ID string
}
