package orchestrate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/marketbrief/internal/api"
	"github.com/marketbrief/marketbrief/internal/boterr"
	"github.com/marketbrief/marketbrief/internal/cache"
	"github.com/marketbrief/marketbrief/internal/store"
	"github.com/marketbrief/marketbrief/models"
)

type fakeQuotes struct {
	calls atomic.Int32
	quote models.Quote
	err   error
}

func (f *fakeQuotes) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	f.calls.Add(1)
	return f.quote, f.err
}

type fakeHistory struct {
	calls  atomic.Int32
	series []models.PricePoint
	err    error
}

func (f *fakeHistory) GetTimeSeries(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	f.calls.Add(1)
	return f.series, f.err
}

type fakeSummaries struct {
	calls   atomic.Int32
	summary string
	err     error
}

func (f *fakeSummaries) Summarize(ctx context.Context, symbol, name string) (string, error) {
	f.calls.Add(1)
	return f.summary, f.err
}

func noSuggestions(string) []string { return nil }

func appleQuote() models.Quote {
	return models.Quote{
		Symbol: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ", Currency: "USD",
		Price: 175.43, PreviousClose: 171.33, Change: 4.10, ChangePercent: 2.39,
		Timestamp: 1748870400,
	}
}

func appleSeries() []models.PricePoint {
	return []models.PricePoint{
		{Datetime: "2025-05-27", Close: 168.2},
		{Datetime: "2025-05-28", Close: 170.0},
		{Datetime: "2025-05-29", Close: 171.9},
		{Datetime: "2025-05-30", Close: 173.1},
		{Datetime: "2025-06-02", Close: 175.43},
	}
}

func testCache() *cache.Cache {
	return cache.New(store.NewMemory(), cache.TTLs{
		Quote: time.Minute, History: time.Hour, Summary: time.Hour, Profile: time.Hour,
	})
}

func TestLookupHappyPath(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: appleQuote()}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{summary: "Apple rallied on strong earnings."}

	o := New(testCache(), quotes, history, summaries, noSuggestions, Options{})
	defer o.Close()

	res, err := o.Lookup(context.Background(), "AAPL", 30)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", res.Symbol)
	assert.InDelta(t, 175.43, res.Quote.Price, 1e-9)
	assert.Equal(t, "Apple rallied on strong earnings.", res.Summary)
	assert.Equal(t, "Apple Inc", res.Profile.Name)

	// Live price is appended after the historical closes, not merged into
	// the last session.
	require.Len(t, res.Series, len(appleSeries())+1)
	assert.InDelta(t, 175.43, res.Series[len(res.Series)-1].Close, 1e-9)
	assert.Equal(t, "2025-05-30", res.Series[3].Datetime)
}

func TestLookupSummaryFailureDegrades(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: appleQuote()}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{err: errors.New("model overloaded")}

	o := New(testCache(), quotes, history, summaries, noSuggestions, Options{})
	defer o.Close()

	res, err := o.Lookup(context.Background(), "AAPL", 30)
	require.NoError(t, err, "a summary failure must not fail the request")
	assert.Empty(t, res.Summary)
	assert.InDelta(t, 175.43, res.Quote.Price, 1e-9)
}

func TestLookupQuoteFailureIsCritical(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{err: api.ErrNotFound}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{summary: "irrelevant"}

	suggest := func(s string) []string { return []string{"AAPL"} }
	o := New(testCache(), quotes, history, summaries, suggest, Options{})
	defer o.Close()

	res, err := o.Lookup(context.Background(), "ZZZZZZZZZZ", 30)
	require.Error(t, err)
	assert.Nil(t, res)

	var be *boterr.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, boterr.NotFound, be.Kind)
	assert.Contains(t, be.Suggestions, "AAPL")
}

func TestLookupHistoryFailureIsCritical(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{quote: appleQuote()}
	history := &fakeHistory{err: api.ErrTimeout}
	summaries := &fakeSummaries{summary: "irrelevant"}

	o := New(testCache(), quotes, history, summaries, noSuggestions, Options{})
	defer o.Close()

	_, err := o.Lookup(context.Background(), "AAPL", 30)
	require.Error(t, err)

	var be *boterr.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, boterr.UpstreamFailure, be.Kind)
}

func TestLookupFastPathSkipsUpstream(t *testing.T) {
	t.Parallel()

	c := testCache()
	ctx := context.Background()
	c.PutJSON(ctx, cache.KindQuote, "AAPL", appleQuote())
	c.PutJSON(ctx, cache.KindHistory, "AAPL", appleSeries(), 30)
	c.PutJSON(ctx, cache.KindSummary, "AAPL", "cached summary")
	c.PutJSON(ctx, cache.KindProfile, "AAPL", models.Profile{Symbol: "AAPL", Name: "Apple Inc"})

	quotes := &fakeQuotes{}
	history := &fakeHistory{}
	summaries := &fakeSummaries{}

	o := New(c, quotes, history, summaries, noSuggestions, Options{})
	defer o.Close()

	res, err := o.Lookup(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, "cached summary", res.Summary)

	assert.Zero(t, quotes.calls.Load(), "fast path must not call the quote provider")
	assert.Zero(t, history.calls.Load(), "fast path must not call the history provider")
	assert.Zero(t, summaries.calls.Load(), "fast path must not call the summary provider")
}

func TestLookupFetchesOnlyMisses(t *testing.T) {
	t.Parallel()

	c := testCache()
	ctx := context.Background()
	c.PutJSON(ctx, cache.KindQuote, "AAPL", appleQuote())
	c.PutJSON(ctx, cache.KindSummary, "AAPL", "cached summary")

	quotes := &fakeQuotes{}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{}

	o := New(c, quotes, history, summaries, noSuggestions, Options{})
	defer o.Close()

	_, err := o.Lookup(ctx, "AAPL", 30)
	require.NoError(t, err)

	assert.Zero(t, quotes.calls.Load())
	assert.Equal(t, int32(1), history.calls.Load())
	assert.Zero(t, summaries.calls.Load())
}

func TestLookupWritesFreshResultsBack(t *testing.T) {
	t.Parallel()

	mem := store.NewMemory()
	c := cache.New(mem, cache.TTLs{Quote: time.Minute, History: time.Hour, Summary: time.Hour, Profile: time.Hour})

	quotes := &fakeQuotes{quote: appleQuote()}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{summary: "fresh summary"}

	o := New(c, quotes, history, summaries, noSuggestions, Options{})

	ctx := context.Background()
	_, err := o.Lookup(ctx, "AAPL", 30)
	require.NoError(t, err)

	// Writes are detached from the request; Close flushes them.
	o.Close()

	var q models.Quote
	assert.True(t, c.GetJSON(ctx, cache.KindQuote, "AAPL", &q))
	var s []models.PricePoint
	assert.True(t, c.GetJSON(ctx, cache.KindHistory, "AAPL", &s, 30))
	var sum string
	assert.True(t, c.GetJSON(ctx, cache.KindSummary, "AAPL", &sum))
	assert.Equal(t, "fresh summary", sum)
	var p models.Profile
	assert.True(t, c.GetJSON(ctx, cache.KindProfile, "AAPL", &p))
	assert.Equal(t, "Apple Inc", p.Name)

	// A second lookup now takes the fast path.
	_, err = o.Lookup(ctx, "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, int32(1), quotes.calls.Load())
	assert.Equal(t, int32(1), history.calls.Load())
	assert.Equal(t, int32(1), summaries.calls.Load())
}

func TestLookupHonorsOverallTimeout(t *testing.T) {
	t.Parallel()

	slowQuotes := &hangingQuotes{}
	history := &fakeHistory{series: appleSeries()}
	summaries := &fakeSummaries{summary: "ok"}

	o := New(testCache(), slowQuotes, history, summaries, noSuggestions, Options{
		OverallTimeout: 50 * time.Millisecond,
	})
	defer o.Close()

	start := time.Now()
	_, err := o.Lookup(context.Background(), "AAPL", 30)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var be *boterr.Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, boterr.UpstreamFailure, be.Kind)
}

type hangingQuotes struct{}

func (hangingQuotes) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	<-ctx.Done()
	return models.Quote{}, ctx.Err()
}
