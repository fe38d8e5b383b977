package core

import (
	"fmt"
	"math"
	"time"
)

// RatePolicy describes the two submission throttling policies
type RatePolicy struct {
	// HourlyLimit is the number of accepted submissions allowed per window
	HourlyLimit int
	// Window is the length of the counting window anchored at RateLimitRecord.WindowStart
	Window time.Duration
	// Cooldown is the minimum spacing between accepted submissions
	Cooldown time.Duration
	// StaleAfter is how old a window must be before the sweep drops the record
	StaleAfter time.Duration
}

// DefaultRatePolicy returns five submissions per hour, five minutes apart
func DefaultRatePolicy() RatePolicy {
	return RatePolicy{
		HourlyLimit: 5,
		Window:      time.Hour,
		Cooldown:    5 * time.Minute,
		StaleAfter:  2 * time.Hour,
	}
}

// NewRecord creates an empty record whose window starts at now
func (p RatePolicy) NewRecord(now time.Time) *RateLimitRecord {
	return &RateLimitRecord{WindowStart: now}
}

// Apply evaluates rec at now. The caller must hold whatever lock guards rec.
// Counters are only advanced when the decision is allowed.
func (p RatePolicy) Apply(rec *RateLimitRecord, now time.Time) RateDecision {
	if now.Sub(rec.WindowStart) > p.Window {
		rec.WindowCount = 0
		rec.WindowStart = now
		rec.RecentSubmissions = nil
	}

	recent := rec.RecentSubmissions[:0]
	for _, ts := range rec.RecentSubmissions {
		if now.Sub(ts) < p.Cooldown {
			recent = append(recent, ts)
		}
	}
	rec.RecentSubmissions = recent

	if rec.WindowCount >= p.HourlyLimit {
		remaining := ceilMinutes(p.Window - now.Sub(rec.WindowStart))
		return RateDecision{
			Allowed:          false,
			Reason:           hourlyLimitMessage(p.Window, p.HourlyLimit, remaining),
			RemainingMinutes: remaining,
		}
	}

	if len(rec.RecentSubmissions) > 0 {
		latest := rec.RecentSubmissions[0]
		for _, ts := range rec.RecentSubmissions[1:] {
			if ts.After(latest) {
				latest = ts
			}
		}
		if since := now.Sub(latest); since < p.Cooldown {
			remaining := ceilMinutes(p.Cooldown - since)
			return RateDecision{
				Allowed:          false,
				Reason:           cooldownMessage(p.Cooldown, remaining),
				RemainingMinutes: remaining,
			}
		}
	}

	rec.WindowCount++
	rec.RecentSubmissions = append(rec.RecentSubmissions, now)
	return RateDecision{Allowed: true}
}

// IsStale reports whether the sweep should drop rec
func (p RatePolicy) IsStale(rec *RateLimitRecord, now time.Time) bool {
	return now.Sub(rec.WindowStart) > p.StaleAfter
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

func hourlyLimitMessage(window time.Duration, limit, remaining int) string {
	return fmt.Sprintf("%sの送信上限（%d回）に達しました。%d分後に再試行してください。", japaneseDuration(window), limit, remaining)
}

func cooldownMessage(cooldown time.Duration, remaining int) string {
	return fmt.Sprintf("前回の送信から%s経過していません。%d分後に再試行してください。", japaneseDuration(cooldown), remaining)
}

func japaneseDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%d時間", int(d/time.Hour))
	}
	return fmt.Sprintf("%d分", ceilMinutes(d))
}
