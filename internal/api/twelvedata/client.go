package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marketbrief/marketbrief/internal/api"
	httpclient "github.com/marketbrief/marketbrief/internal/platform/http"
	"github.com/marketbrief/marketbrief/models"
)

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpclient.ClientOptions{
		Timeout:        options.RequestTimeout,
		RequestsPerSec: options.RequestsPerSec,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    baseURL,
		httpClient: httpclient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// errorEnvelope is TwelveData's error body shape.
type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type quoteResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Currency      string `json:"currency"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Timestamp     int64  `json:"timestamp"`
	IsMarketOpen  bool   `json:"is_market_open"`
}

type timeSeriesResponse struct {
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
}

// GetQuote fetches the live quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s", c.baseURL, url.QueryEscape(symbol), c.apiKey)

	body, err := c.fetch(ctx, u)
	if err != nil {
		return models.Quote{}, err
	}

	var data quoteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing quote JSON")
		return models.Quote{}, fmt.Errorf("parsing quote: %w", api.ErrMalformed)
	}
	if data.Close == "" {
		return models.Quote{}, fmt.Errorf("quote for %s: %w", symbol, api.ErrMalformed)
	}

	price, err := strconv.ParseFloat(data.Close, 64)
	if err != nil {
		return models.Quote{}, fmt.Errorf("quote close %q: %w", data.Close, api.ErrMalformed)
	}
	prev, err := strconv.ParseFloat(data.PreviousClose, 64)
	if err != nil {
		return models.Quote{}, fmt.Errorf("quote previous close %q: %w", data.PreviousClose, api.ErrMalformed)
	}

	q := models.Quote{
		Symbol:        symbol,
		Name:          data.Name,
		Exchange:      data.Exchange,
		Currency:      data.Currency,
		Price:         price,
		PreviousClose: prev,
		Timestamp:     data.Timestamp,
		IsMarketOpen:  data.IsMarketOpen,
	}

	// Prefer the provider's change figures, fall back to computing them
	// from close and previous close.
	q.Change, err = strconv.ParseFloat(data.Change, 64)
	if err != nil {
		q.Change = price - prev
	}
	q.ChangePercent, err = strconv.ParseFloat(data.PercentChange, 64)
	if err != nil {
		if prev != 0 {
			q.ChangePercent = q.Change / prev * 100
		}
	}

	c.logger.Debug().Str("symbol", symbol).Float64("price", q.Price).Msg("Fetched quote")
	return q, nil
}

// GetTimeSeries fetches up to days daily closes, oldest first.
func (c *Client) GetTimeSeries(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	u := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=1day&outputsize=%d&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), days, c.apiKey,
	)

	body, err := c.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing time series JSON")
		return nil, fmt.Errorf("parsing time series: %w", api.ErrMalformed)
	}
	if len(data.Values) == 0 {
		c.logger.Warn().Str("symbol", symbol).Msg("No data points in response")
		return nil, fmt.Errorf("time series for %s: %w", symbol, api.ErrMalformed)
	}

	// Sort by datetime (oldest first for proper charting)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	points := make([]models.PricePoint, 0, len(data.Values))
	for _, v := range data.Values {
		close, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("time series close %q: %w", v.Close, api.ErrMalformed)
		}
		points = append(points, models.PricePoint{Datetime: v.Datetime, Close: close})
	}

	c.logger.Debug().Str("symbol", symbol).Int("count", len(points)).Msg("Fetched time series")
	return points, nil
}

// fetch runs the request and normalizes transport and provider errors into
// the shared taxonomy.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// TwelveData reports provider-level failures inside a 200 body.
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Status == "error" {
		c.logger.Warn().Int("code", envelope.Code).Str("message", envelope.Message).Msg("TwelveData API error")
		return nil, classifyCode(envelope.Code)
	}

	return body, nil
}

func (c *Client) classifyTransportError(err error) error {
	var statusErr *httpclient.HTTPStatusError
	if errors.As(err, &statusErr) {
		return classifyCode(statusErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return api.ErrTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return api.ErrTimeout
	}
	return fmt.Errorf("HTTP request failed: %w", err)
}

func classifyCode(code int) error {
	switch code {
	case http.StatusNotFound:
		return api.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return api.ErrAuthFailed
	case http.StatusTooManyRequests:
		return api.ErrRateLimited
	default:
		return fmt.Errorf("provider error %d", code)
	}
}
