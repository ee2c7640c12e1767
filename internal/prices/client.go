// Package prices is the anti-corruption layer in front of the remote
// market-data service that publishes Spanish spot prices. It hands ready
// PriceSeries to the core; the core itself never fetches anything.
//
// All outbound calls go through a circuit breaker so a flapping upstream
// cannot stall the regeneration loop: while the breaker is open, calls
// fail fast and the caller skips the tick.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"tarifaluz/internal/types"
)

// Compile-time assertion that Client implements types.PriceSource.
var _ types.PriceSource = (*Client)(nil)

// Client fetches hourly spot prices over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  types.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL of the market-data API, without a trailing slash.
	BaseURL string
	// HTTPClient may be nil; a client with a 10s timeout is used then.
	HTTPClient *http.Client
	Logger     types.Logger
}

// NewClient creates a Client with a fresh circuit breaker: it opens after
// 5 consecutive failures and probes again after 30 seconds.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "market-data",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{
		baseURL: cfg.BaseURL,
		client:  httpClient,
		breaker: cb,
		logger:  logger,
	}
}

// pricePointDTO is the upstream wire shape of one hourly price.
type pricePointDTO struct {
	Hour      int       `json:"hour"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// seriesResponse is the upstream envelope for a price query.
type seriesResponse struct {
	Prices []pricePointDTO `json:"prices"`
}

// Today returns the hourly series for the current day.
func (c *Client) Today(ctx context.Context) (types.PriceSeries, error) {
	return c.fetch(ctx, "/v1/prices/today")
}

// MonthToDate returns the series backing the week/month aggregation views.
func (c *Client) MonthToDate(ctx context.Context) (types.PriceSeries, error) {
	return c.fetch(ctx, "/v1/prices/month")
}

func (c *Client) fetch(ctx context.Context, path string) (types.PriceSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPrices, "failed to build prices request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			// Count upstream 5xx as breaker failures.
			r.Body.Close()
			return nil, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		c.logger.Warn("price fetch failed", "path", path, "error", err)
		return nil, types.NewAppError(types.ErrCodeUpstreamPrices, "price data unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, types.NewAppError(types.ErrCodeUpstreamRateLimited, "price API rate limited", nil)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, types.NewAppError(types.ErrCodeUpstreamPrices,
			fmt.Sprintf("unexpected status %d from price API", resp.StatusCode), nil)
	}

	var body seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamPrices, "malformed price API response", err)
	}

	series := make(types.PriceSeries, 0, len(body.Prices))
	for _, p := range body.Prices {
		series = append(series, types.PricePoint{
			Hour:      p.Hour,
			Price:     p.Price,
			Timestamp: p.Timestamp,
		})
	}
	return series, nil
}
