package screener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

const tokenAddr = "0x00000000000000000000000000000000000000bb"

func TestTokenStatsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tokens/"+tokenAddr, r.URL.Path)
		w.Write([]byte(`{
			"address": "` + tokenAddr + `",
			"priceUsd": 1.25,
			"liquidityUsd": 300000,
			"volume": {"h1": 12000, "h6": 48000},
			"priceChange": {"m5": 0.02, "h1": -0.01},
			"priceImpact": 0.004
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	stats, err := c.TokenStats(context.Background(), tokenAddr)
	require.NoError(t, err)

	assert.Equal(t, 1.25, stats.PriceUSD)
	assert.Equal(t, 300000.0, stats.LiquidityUSD)
	assert.Equal(t, 12000.0, stats.Volume1hUSD)
	assert.Equal(t, 0.02, stats.PriceChange5m)
	assert.Equal(t, -0.01, stats.PriceChange1h)
	assert.Equal(t, 0.004, stats.PriceImpactPct)
}

func TestTokenStatsErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unknown token", http.StatusNotFound, domain.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "")
			_, err := c.TokenStats(context.Background(), tokenAddr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenStatsRejectsZeroPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"address": "` + tokenAddr + `", "priceUsd": 0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.TokenStats(context.Background(), tokenAddr)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}
