// Package screener is the REST client for the token screener oracle that
// supplies price, liquidity and volume statistics.
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// Client queries the screener API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a screener client for the given API root.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TokenStats fetches the latest stats for one token address.
func (c *Client) TokenStats(ctx context.Context, token string) (TokenStats, error) {
	url := fmt.Sprintf("%s/v1/tokens/%s", c.baseURL, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TokenStats{}, fmt.Errorf("screener: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenStats{}, fmt.Errorf("screener: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TokenStats{}, fmt.Errorf("screener: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return TokenStats{}, fmt.Errorf("screener: token %s: %w", token, domain.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return TokenStats{}, fmt.Errorf("screener: token %s: %w", token, domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return TokenStats{}, fmt.Errorf("screener: token %s: status %d: %s", token, resp.StatusCode, string(body))
	}

	var api apiTokenStats
	if err := json.Unmarshal(body, &api); err != nil {
		return TokenStats{}, fmt.Errorf("screener: decode token stats: %w", err)
	}
	if api.PriceUSD <= 0 {
		return TokenStats{}, fmt.Errorf("screener: token %s has no price: %w", token, domain.ErrInvalid)
	}

	return TokenStats{
		Token:          api.Address,
		PriceUSD:       api.PriceUSD,
		LiquidityUSD:   api.LiquidityUSD,
		Volume1hUSD:    api.Volume.H1,
		Volume6hUSD:    api.Volume.H6,
		PriceChange5m:  api.PriceChange.M5,
		PriceChange1h:  api.PriceChange.H1,
		PriceImpactPct: api.PriceImpact,
	}, nil
}
