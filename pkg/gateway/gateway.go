// Package gateway fetches token metadata and quotes from the Jupiter
// lite-api endpoints in fixed-size batches.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solfavs/pkg/models"
)

var (
	TokenInfoBaseURL  = "https://lite-api.jup.ag/tokens/v2/search"
	TokenPriceBaseURL = "https://lite-api.jup.ag/price/v3"
)

// The two endpoints have independently tuned batch limits.
const (
	infoBatchLimit  = 100
	priceBatchLimit = 50
)

// Client queries the two token endpoints. The zero value is not usable;
// construct with NewClient.
type Client struct {
	httpClient *http.Client
	infoURL    string
	priceURL   string
	batchDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides the endpoint URLs, mainly for tests.
func WithBaseURLs(infoURL, priceURL string) Option {
	return func(c *Client) {
		c.infoURL = infoURL
		c.priceURL = priceURL
	}
}

// WithBatchDelay sets a fixed pause between sequential batches to stay
// under informal rate limits. The delay is skipped after the final batch.
func WithBatchDelay(d time.Duration) Option {
	return func(c *Client) { c.batchDelay = d }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		infoURL:    TokenInfoBaseURL,
		priceURL:   TokenPriceBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTokenInfos returns metadata keyed by mint. A non-2xx response on
// any batch aborts the whole call; there is no partial-success contract.
func (c *Client) FetchTokenInfos(ctx context.Context, mints []string) (map[string]*models.TokenInfo, error) {
	infos := make(map[string]*models.TokenInfo)
	batches := chunk(mints, infoBatchLimit)
	for i, batch := range batches {
		var page []*models.TokenInfo
		if err := c.getJSON(ctx, c.infoURL, "query", batch, &page); err != nil {
			return nil, fmt.Errorf("token info fetch failed: %w", err)
		}
		for _, info := range page {
			infos[info.ID] = info
		}
		if c.batchDelay > 0 && i < len(batches)-1 {
			if err := sleep(ctx, c.batchDelay); err != nil {
				return nil, err
			}
		}
	}
	return infos, nil
}

// FetchTokenPrices returns quotes keyed by mint, same contract as
// FetchTokenInfos.
func (c *Client) FetchTokenPrices(ctx context.Context, mints []string) (map[string]*models.TokenPrice, error) {
	prices := make(map[string]*models.TokenPrice)
	batches := chunk(mints, priceBatchLimit)
	for i, batch := range batches {
		var page map[string]*models.TokenPrice
		if err := c.getJSON(ctx, c.priceURL, "ids", batch, &page); err != nil {
			return nil, fmt.Errorf("token price fetch failed: %w", err)
		}
		for m, price := range page {
			prices[m] = price
		}
		if c.batchDelay > 0 && i < len(batches)-1 {
			if err := sleep(ctx, c.batchDelay); err != nil {
				return nil, err
			}
		}
	}
	return prices, nil
}

func (c *Client) getJSON(ctx context.Context, baseURL, param string, mints []string, out interface{}) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set(param, strings.Join(mints, ","))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func chunk(mints []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(mints); i += size {
		end := i + size
		if end > len(mints) {
			end = len(mints)
		}
		batches = append(batches, mints[i:end])
	}
	return batches
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
