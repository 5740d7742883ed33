// Package router is the REST client for the DEX aggregator that executes
// swaps. It is the only component that talks to the venue.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// Client executes swaps against the aggregator API on behalf of one wallet.
type Client struct {
	baseURL    string
	apiKey     string
	wallet     common.Address
	httpClient *http.Client
}

// NewClient creates a swap client for the given API root and wallet address.
func NewClient(baseURL, apiKey string, wallet common.Address) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		wallet:  wallet,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Swap executes a single swap leg. Timeouts are this client's responsibility;
// callers treat any error, and any incomplete result, as a failed execution.
func (c *Client) Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapResult, error) {
	if !common.IsHexAddress(req.InputToken) || !common.IsHexAddress(req.OutputToken) {
		return domain.SwapResult{}, fmt.Errorf("router: bad token address: %w", domain.ErrInvalid)
	}

	body := apiSwapRequest{
		Wallet:      c.wallet.Hex(),
		InputToken:  common.HexToAddress(req.InputToken).Hex(),
		OutputToken: common.HexToAddress(req.OutputToken).Hex(),
		Amount:      req.Amount,
		SlippageBps: req.SlippageBps,
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/v1/swap", body)
	if err != nil {
		return domain.SwapResult{}, fmt.Errorf("router: swap: %w", err)
	}

	var apiResp apiSwapResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return domain.SwapResult{}, fmt.Errorf("router: decode swap response: %w", err)
	}
	if !apiResp.Success {
		return domain.SwapResult{}, fmt.Errorf("router: swap rejected: %s: %w", apiResp.ErrorMsg, domain.ErrRejected)
	}

	return domain.SwapResult{
		FillPrice: apiResp.FillPrice,
		AmountOut: apiResp.AmountOut,
		VenueRef:  apiResp.TxHash,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkStatus maps HTTP failures onto the domain error sentinels so callers
// can distinguish rate limiting from rejection.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Error
	if msg == "" {
		msg = string(body)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %s: %w", status, msg, domain.ErrRateLimited)
	case status >= 400 && status < 500:
		return fmt.Errorf("status %d: %s: %w", status, msg, domain.ErrInvalid)
	default:
		return fmt.Errorf("status %d: %s: %w", status, msg, domain.ErrRejected)
	}
}
