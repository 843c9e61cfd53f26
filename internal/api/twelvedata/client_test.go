package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketbrief/marketbrief/internal/api"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, RequestsPerSec: 100})
}

func TestGetQuote(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"symbol": "AAPL", "name": "Apple Inc", "exchange": "NASDAQ", "currency": "USD",
			"close": "175.43", "previous_close": "171.33",
			"change": "4.10", "percent_change": "2.39",
			"timestamp": 1748870400, "is_market_open": true
		}`))
	})

	q, err := c.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, "Apple Inc", q.Name)
	assert.InDelta(t, 175.43, q.Price, 1e-9)
	assert.InDelta(t, 4.10, q.Change, 1e-9)
	assert.InDelta(t, 2.39, q.ChangePercent, 1e-9)
	assert.True(t, q.IsMarketOpen)
}

func TestGetQuoteComputesChangeWhenMissing(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","close":"110","previous_close":"100","timestamp":1}`))
	})

	q, err := c.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, q.Change, 1e-9)
	assert.InDelta(t, 10.0, q.ChangePercent, 1e-9)
}

func TestGetQuoteUnknownSymbol(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// TwelveData reports unknown symbols inside a 200 body.
		w.Write([]byte(`{"code":404,"message":"symbol not found","status":"error"}`))
	})

	_, err := c.GetQuote(context.Background(), "ZZZZZZZZZZ")
	require.ErrorIs(t, err, api.ErrNotFound)
}

func TestGetQuoteAuthFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":401,"message":"invalid api key","status":"error"}`))
	})

	_, err := c.GetQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, api.ErrAuthFailed)
}

func TestGetQuoteMalformedBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	})

	_, err := c.GetQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, api.ErrMalformed)
}

func TestGetTimeSeriesSortsAscending(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "1day", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"values":[
			{"datetime":"2025-06-02","close":"175.43"},
			{"datetime":"2025-05-30","close":"171.33"},
			{"datetime":"2025-05-29","close":"170.10"}
		]}`))
	})

	points, err := c.GetTimeSeries(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2025-05-29", points[0].Datetime)
	assert.Equal(t, "2025-06-02", points[2].Datetime)
	assert.InDelta(t, 175.43, points[2].Close, 1e-9)
}

func TestGetTimeSeriesEmpty(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[]}`))
	})

	_, err := c.GetTimeSeries(context.Background(), "AAPL", 30)
	require.ErrorIs(t, err, api.ErrMalformed)
}
