package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketbrief/marketbrief/internal/store"
)

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	RetryAfter int // whole seconds until the next request would be admitted
}

// Record is the per-user state kept in the store. Fixed cooldown uses
// Last, sliding window uses Times; both are unix milliseconds.
type Record struct {
	Last  int64   `json:"last,omitempty"`
	Times []int64 `json:"times,omitempty"`
}

// Policy decides admission from a user's record and, when admitting,
// returns the updated record to persist.
type Policy interface {
	Check(rec Record, now time.Time) (Record, Decision)
	Window() time.Duration
}

// FixedCooldown admits one request per user per window.
type FixedCooldown struct {
	Cooldown time.Duration
}

func (p FixedCooldown) Window() time.Duration { return p.Cooldown }

func (p FixedCooldown) Check(rec Record, now time.Time) (Record, Decision) {
	if rec.Last > 0 {
		elapsed := now.Sub(time.UnixMilli(rec.Last))
		if elapsed < p.Cooldown {
			return rec, Decision{RetryAfter: ceilSeconds(p.Cooldown - elapsed)}
		}
	}
	return Record{Last: now.UnixMilli()}, Decision{Allowed: true}
}

// SlidingWindow admits up to Max requests per user per window.
type SlidingWindow struct {
	Span time.Duration
	Max  int
}

func (p SlidingWindow) Window() time.Duration { return p.Span }

func (p SlidingWindow) Check(rec Record, now time.Time) (Record, Decision) {
	cutoff := now.Add(-p.Span).UnixMilli()
	kept := rec.Times[:0:0]
	for _, t := range rec.Times {
		if t > cutoff {
			kept = append(kept, t)
		}
	}
	if len(kept) >= p.Max {
		// The oldest counted request is the one whose expiry frees a slot.
		oldest := time.UnixMilli(kept[0])
		return Record{Times: kept}, Decision{RetryAfter: ceilSeconds(p.Span - now.Sub(oldest))}
	}
	return Record{Times: append(kept, now.UnixMilli())}, Decision{Allowed: true}
}

func ceilSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter is the store-backed per-user admission gate. Check and record
// happen in a single call so an admitted request is always counted.
//
// The limiter fails open: a broken store or a corrupt record admits the
// request and logs the fault. Rate limiting is a courtesy, not a gate
// whose unavailability should block all traffic.
type Limiter struct {
	store  store.Store
	policy Policy
	logger zerolog.Logger
	now    func() time.Time
}

func New(s store.Store, policy Policy) *Limiter {
	return &Limiter{
		store:  s,
		policy: policy,
		logger: log.With().Str("component", "ratelimit").Logger(),
		now:    time.Now,
	}
}

// Allow runs the combined check-and-record operation for one user.
func (l *Limiter) Allow(ctx context.Context, userID string) Decision {
	key := "ratelimit:" + userID

	var rec Record
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn().Err(err).Str("user", userID).Msg("Rate-limit store read failed, admitting")
		return Decision{Allowed: true}
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			l.logger.Warn().Err(err).Str("user", userID).Msg("Corrupt rate-limit record, treating as absent")
			rec = Record{}
		}
	}

	updated, decision := l.policy.Check(rec, l.now())
	if !decision.Allowed {
		return decision
	}

	buf, err := json.Marshal(updated)
	if err != nil {
		l.logger.Error().Err(err).Str("user", userID).Msg("Rate-limit record did not marshal")
		return decision
	}
	if err := l.store.Set(ctx, key, string(buf), l.policy.Window()); err != nil {
		l.logger.Warn().Err(err).Str("user", userID).Msg("Rate-limit store write failed, admitting anyway")
	}
	return decision
}
