package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketbrief/marketbrief/internal/store"
)

// Kind is the closed set of cached data kinds. Each kind carries its own
// TTL and key prefix, so an unknown kind cannot silently pick up a default.
type Kind int

const (
	KindQuote Kind = iota
	KindHistory
	KindSummary
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindHistory:
		return "history"
	case KindSummary:
		return "summary"
	case KindProfile:
		return "profile"
	}
	return "invalid"
}

// TTLs carries one expiry per kind, injected from config.
type TTLs struct {
	Quote   time.Duration
	History time.Duration
	Summary time.Duration
	Profile time.Duration
}

func (t TTLs) forKind(k Kind) time.Duration {
	switch k {
	case KindQuote:
		return t.Quote
	case KindHistory:
		return t.History
	case KindSummary:
		return t.Summary
	case KindProfile:
		return t.Profile
	}
	return 0
}

// Key builds the deterministic store key for a (kind, symbol, params)
// triple: "history:AAPL:30". Identical logical requests always map to the
// same key regardless of call site.
func Key(kind Kind, symbol string, params ...int) string {
	parts := make([]string, 0, 2+len(params))
	parts = append(parts, kind.String(), strings.ToUpper(strings.TrimSpace(symbol)))
	for _, p := range params {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ":")
}

// Cache is the typed layer over the raw store. It is accelerative only:
// every store or serialization fault degrades to a miss or a skipped write,
// logged and never propagated.
type Cache struct {
	store  store.Store
	ttls   TTLs
	logger zerolog.Logger
}

func New(s store.Store, ttls TTLs) *Cache {
	return &Cache{
		store:  s,
		ttls:   ttls,
		logger: log.With().Str("component", "cache").Logger(),
	}
}

// GetJSON loads and unmarshals a cached payload into v. It returns false
// on absence, expiry, store failure or a payload that does not decode.
func (c *Cache) GetJSON(ctx context.Context, kind Kind, symbol string, v any, params ...int) bool {
	key := Key(kind, symbol, params...)

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cached payload did not decode, treating as miss")
		return false
	}
	return true
}

// PutJSON marshals and stores a payload under the kind's TTL. Failures are
// logged and swallowed.
func (c *Cache) PutJSON(ctx context.Context, kind Kind, symbol string, v any, params ...int) {
	key := Key(kind, symbol, params...)

	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Payload not serializable, skipping cache write")
		return
	}
	if err := c.store.Set(ctx, key, string(raw), c.ttls.forKind(kind)); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
