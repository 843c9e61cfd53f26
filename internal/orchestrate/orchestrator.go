// Package orchestrate coordinates the cache, the upstream fetchers and the
// failure policy for a single symbol lookup.
package orchestrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/marketbrief/marketbrief/internal/api"
	"github.com/marketbrief/marketbrief/internal/boterr"
	"github.com/marketbrief/marketbrief/internal/cache"
	"github.com/marketbrief/marketbrief/models"
)

// Options configures an Orchestrator.
type Options struct {
	// OverallTimeout bounds one whole Lookup so a hung dependency cannot
	// block the reply indefinitely.
	OverallTimeout time.Duration
	// SummaryTimeout bounds the news-summary fetch, which is slower than
	// the market-data calls.
	SummaryTimeout time.Duration
	// WriteTimeout bounds each detached cache write.
	WriteTimeout time.Duration
	// CloseGrace is how long Close waits for in-flight cache writes.
	CloseGrace time.Duration
}

func (o *Options) withDefaults() {
	if o.OverallTimeout == 0 {
		o.OverallTimeout = 45 * time.Second
	}
	if o.SummaryTimeout == 0 {
		o.SummaryTimeout = 30 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.CloseGrace == 0 {
		o.CloseGrace = 5 * time.Second
	}
}

// Orchestrator runs the lookup pipeline: cache fan-out, concurrent fetch of
// the misses, critical/non-critical classification, detached write-back.
type Orchestrator struct {
	cache     *cache.Cache
	quotes    models.QuoteClient
	history   models.HistoryClient
	summaries models.SummaryClient
	suggest   func(string) []string
	opts      Options

	writes sync.WaitGroup
	logger zerolog.Logger
}

func New(c *cache.Cache, quotes models.QuoteClient, history models.HistoryClient, summaries models.SummaryClient, suggest func(string) []string, opts Options) *Orchestrator {
	opts.withDefaults()
	return &Orchestrator{
		cache:     c,
		quotes:    quotes,
		history:   history,
		summaries: summaries,
		suggest:   suggest,
		opts:      opts,
		logger:    log.With().Str("component", "orchestrator").Logger(),
	}
}

// Lookup produces the unified view for one canonical symbol. Quote and
// history are critical: either failing fails the lookup with a
// *boterr.Error. The summary is best effort and absent on failure.
func (o *Orchestrator) Lookup(ctx context.Context, symbol string, days int) (*models.UnifiedResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.OverallTimeout)
	defer cancel()

	var (
		quote   models.Quote
		series  []models.PricePoint
		summary string
		profile models.Profile

		quoteHit, historyHit, summaryHit, profileHit bool
	)

	// Cache fan-out: one concurrent get per data kind. Lookups never fail,
	// a store fault is just a miss.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quoteHit = o.cache.GetJSON(gctx, cache.KindQuote, symbol, &quote)
		return nil
	})
	g.Go(func() error {
		historyHit = o.cache.GetJSON(gctx, cache.KindHistory, symbol, &series, days)
		return nil
	})
	g.Go(func() error {
		summaryHit = o.cache.GetJSON(gctx, cache.KindSummary, symbol, &summary)
		return nil
	})
	g.Go(func() error {
		profileHit = o.cache.GetJSON(gctx, cache.KindProfile, symbol, &profile)
		return nil
	})
	_ = g.Wait()

	// Fetch whatever missed, all in flight at once. The summary goroutine
	// records its failure instead of returning it, so only quote/history
	// can fail the group.
	var (
		quoteFetched, historyFetched, summaryFetched bool
		summaryErr                                   error
	)
	if !quoteHit || !historyHit || !summaryHit {
		fg, fctx := errgroup.WithContext(ctx)
		if !quoteHit {
			fg.Go(func() error {
				q, err := o.quotes.GetQuote(fctx, symbol)
				if err != nil {
					return err
				}
				quote = q
				quoteFetched = true
				return nil
			})
		}
		if !historyHit {
			fg.Go(func() error {
				s, err := o.history.GetTimeSeries(fctx, symbol, days)
				if err != nil {
					return err
				}
				series = s
				historyFetched = true
				return nil
			})
		}
		if !summaryHit {
			fg.Go(func() error {
				sctx, scancel := context.WithTimeout(fctx, o.opts.SummaryTimeout)
				defer scancel()
				s, err := o.summaries.Summarize(sctx, symbol, profile.Name)
				if err != nil {
					summaryErr = err
					return nil
				}
				summary = s
				summaryFetched = true
				return nil
			})
		}
		if err := fg.Wait(); err != nil {
			return nil, o.classify(symbol, err)
		}
	}

	if summaryErr != nil {
		o.logger.Warn().Err(summaryErr).Str("symbol", symbol).Msg("Summary unavailable, degrading")
	}

	// The profile is derived from the quote payload rather than fetched.
	profileFetched := false
	if !profileHit {
		profile = models.Profile{
			Symbol:   symbol,
			Name:     quote.Name,
			Exchange: quote.Exchange,
			Currency: quote.Currency,
		}
		profileFetched = true
	}

	// Fire-and-forget write-back for everything freshly obtained. The reply
	// never waits on these.
	if quoteFetched {
		o.writeBack(cache.KindQuote, symbol, quote)
	}
	if historyFetched {
		o.writeBack(cache.KindHistory, symbol, series, days)
	}
	if summaryFetched {
		o.writeBack(cache.KindSummary, symbol, summary)
	}
	if profileFetched && profile.Name != "" {
		o.writeBack(cache.KindProfile, symbol, profile)
	}

	return &models.UnifiedResult{
		Symbol:  symbol,
		Quote:   quote,
		Profile: profile,
		Series:  withLivePrice(series, quote),
		Summary: summary,
	}, nil
}

// withLivePrice appends the live price after the historical closes, so the
// chart ends on the current value without overwriting the last session.
func withLivePrice(series []models.PricePoint, quote models.Quote) []models.PricePoint {
	if quote.Price == 0 {
		return series
	}
	out := make([]models.PricePoint, 0, len(series)+1)
	out = append(out, series...)
	ts := time.Unix(quote.Timestamp, 0).UTC().Format("2006-01-02")
	return append(out, models.PricePoint{Datetime: ts, Close: quote.Price})
}

func (o *Orchestrator) writeBack(kind cache.Kind, symbol string, v any, params ...int) {
	o.writes.Add(1)
	go func() {
		defer o.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), o.opts.WriteTimeout)
		defer cancel()
		o.cache.PutJSON(ctx, kind, symbol, v, params...)
	}()
}

func (o *Orchestrator) classify(symbol string, err error) *boterr.Error {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return boterr.Newf(boterr.NotFound, "Could not find a symbol named %q.", symbol).
			WithSuggestions(o.suggest(symbol)).
			WithMeta("cause", err.Error())
	case errors.Is(err, api.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return boterr.New(boterr.UpstreamFailure, "The data provider took too long to answer. Try again in a moment.").
			WithMeta("cause", err.Error())
	case errors.Is(err, api.ErrRateLimited):
		return boterr.New(boterr.UpstreamFailure, "The data provider is throttling requests. Try again in a minute.").
			WithMeta("cause", err.Error())
	default:
		return boterr.New(boterr.UpstreamFailure, "The data provider failed to answer. Try again later.").
			WithMeta("cause", err.Error())
	}
}

// Close waits for in-flight cache writes, bounded by the close grace.
func (o *Orchestrator) Close() {
	done := make(chan struct{})
	go func() {
		o.writes.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(o.opts.CloseGrace):
		o.logger.Warn().Msg("Shutdown grace elapsed with cache writes still in flight")
	}
}
