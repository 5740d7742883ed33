package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

var testWallet = common.HexToAddress("0x00000000000000000000000000000000000000cc")

func swapRequest() domain.SwapRequest {
	return domain.SwapRequest{
		InputToken:  "0x00000000000000000000000000000000000000aa",
		OutputToken: "0x00000000000000000000000000000000000000bb",
		Amount:      100,
		SlippageBps: 50,
	}
}

func TestSwapSuccess(t *testing.T) {
	var got apiSwapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/swap", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-API-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(apiSwapResponse{
			Success:   true,
			FillPrice: 2.0,
			AmountOut: 50,
			TxHash:    "0xabc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", testWallet)
	res, err := c.Swap(context.Background(), swapRequest())
	require.NoError(t, err)

	assert.Equal(t, 2.0, res.FillPrice)
	assert.Equal(t, 50.0, res.AmountOut)
	assert.Equal(t, "0xabc", res.VenueRef)
	assert.True(t, res.Complete())
	assert.Equal(t, testWallet.Hex(), got.Wallet)
	assert.Equal(t, 50, got.SlippageBps)
}

func TestSwapRejectsBadAddressBeforeHTTP(t *testing.T) {
	c := NewClient("http://unused", "", testWallet)

	req := swapRequest()
	req.OutputToken = "not-an-address"
	_, err := c.Swap(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestSwapStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"client error", http.StatusBadRequest, domain.ErrInvalid},
		{"server error", http.StatusBadGateway, domain.ErrRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", testWallet)
			_, err := c.Swap(context.Background(), swapRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSwapVenueRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(apiSwapResponse{Success: false, ErrorMsg: "insufficient liquidity"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", testWallet)
	_, err := c.Swap(context.Background(), swapRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "insufficient liquidity")
}
