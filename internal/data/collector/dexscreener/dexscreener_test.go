package dexscreener

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MustafAks/DexScreener/internal/data"
	"github.com/MustafAks/DexScreener/internal/models"
)

func setupTestServer(t *testing.T, path string, status int, body string) (*httptest.Server, *DexScreenerDataSource) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))

	ds := NewDexScreenerDataSource(server.URL, resty.NewWithClient(server.Client()))
	return server, ds
}

func TestDexScreenerDataSource_Name(t *testing.T) {
	ds := NewDexScreenerDataSource("", nil)
	assert.Equal(t, "dexscreener", ds.Name())
	assert.Equal(t, DefaultBaseURL, ds.baseURL)
}

func TestDexScreenerDataSource_FetchLatest(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectError bool
		expected    []models.TokenSummary
	}{
		{
			name:   "valid response",
			status: http.StatusOK,
			body: `[
				{"url": "https://dexscreener.com/solana/abc", "chainId": "solana", "tokenAddress": "abc", "amount": 10, "totalAmount": 30, "description": "moon"},
				{"chainId": "base"}
			]`,
			expected: []models.TokenSummary{
				{ChainID: "solana", TokenAddress: "abc", URL: "https://dexscreener.com/solana/abc", Amount: 10, TotalAmount: 30, Description: "moon"},
				{ChainID: "base", TokenAddress: "", URL: models.Unknown},
			},
		},
		{
			name:     "empty list",
			status:   http.StatusOK,
			body:     `[]`,
			expected: []models.TokenSummary{},
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        `{"error": "down"}`,
			expectError: true,
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        `{"not": "a list"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, ds := setupTestServer(t, latestBoostsPath, tt.status, tt.body)
			defer server.Close()

			result, err := ds.FetchLatest(context.Background())
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDexScreenerDataSource_FetchLatest_StatusError(t *testing.T) {
	server, ds := setupTestServer(t, latestBoostsPath, http.StatusTooManyRequests, `{}`)
	defer server.Close()

	_, err := ds.FetchLatest(context.Background())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestDexScreenerDataSource_FetchDetail(t *testing.T) {
	created := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		status      int
		body        string
		expectError error
		expected    *models.TokenSnapshot
	}{
		{
			name:   "full pair",
			status: http.StatusOK,
			body: `{"pairs": [
				{
					"chainId": "solana",
					"dexId": "raydium",
					"url": "https://dexscreener.com/solana/pair1",
					"priceUsd": "0.00001234",
					"baseToken": {"address": "tokenA", "name": "Token A", "symbol": "TKA"},
					"txns": {"h24": {"buys": 40, "sells": 20}},
					"volume": {"h24": 25000},
					"priceChange": {"h24": 2.5},
					"liquidity": {"usd": 10000},
					"marketCap": 20000.9,
					"pairCreatedAt": 1772280000000
				},
				{"dexId": "orca"}
			]}`,
			expected: &models.TokenSnapshot{
				TokenAddress:   "tokenA",
				ChainID:        "solana",
				DexID:          "raydium",
				Symbol:         "TKA",
				Name:           "Token A",
				PriceUSD:       "0.00001234",
				PriceChange24h: 2.5,
				LiquidityUSD:   10000,
				Volume24h:      25000,
				MarketCap:      20000,
				PairURL:        "https://dexscreener.com/solana/pair1",
				PairCreatedAt:  created,
				Txns24h:        60,
			},
		},
		{
			name:   "missing fields decode to defaults",
			status: http.StatusOK,
			body:   `{"pairs": [{"priceUsd": "not-a-number", "txns": {"h24": {"buys": 3}}}]}`,
			expected: &models.TokenSnapshot{
				TokenAddress: "tokenA",
				ChainID:      models.Unknown,
				DexID:        models.Unknown,
				Symbol:       models.Unknown,
				Name:         models.Unknown,
				PriceUSD:     "not-a-number",
				PairURL:      models.Unknown,
				Txns24h:      3,
			},
		},
		{
			name:   "absent price",
			status: http.StatusOK,
			body:   `{"pairs": [{"dexId": "raydium"}]}`,
			expected: &models.TokenSnapshot{
				TokenAddress: "tokenA",
				ChainID:      models.Unknown,
				DexID:        "raydium",
				Symbol:       models.Unknown,
				Name:         models.Unknown,
				PriceUSD:     "0.0",
				PairURL:      models.Unknown,
			},
		},
		{
			name:   "market cap past int64 saturates",
			status: http.StatusOK,
			body:   `{"pairs": [{"priceUsd": "", "marketCap": 1e20, "txns": {"h24": {"buys": 12.0, "sells": 3.7}}}]}`,
			expected: &models.TokenSnapshot{
				TokenAddress: "tokenA",
				ChainID:      models.Unknown,
				DexID:        models.Unknown,
				Symbol:       models.Unknown,
				Name:         models.Unknown,
				PriceUSD:     "",
				PairURL:      models.Unknown,
				MarketCap:    math.MaxInt64,
				Txns24h:      15,
			},
		},
		{
			name:   "negative market cap reads as zero",
			status: http.StatusOK,
			body:   `{"pairs": [{"priceUsd": "1", "marketCap": -5000}]}`,
			expected: &models.TokenSnapshot{
				TokenAddress: "tokenA",
				ChainID:      models.Unknown,
				DexID:        models.Unknown,
				Symbol:       models.Unknown,
				Name:         models.Unknown,
				PriceUSD:     "1",
				PairURL:      models.Unknown,
			},
		},
		{
			name:        "no pairs",
			status:      http.StatusOK,
			body:        `{"schemaVersion": "1.0.0", "pairs": null}`,
			expectError: data.ErrDetailNotFound,
		},
		{
			name:        "not found status",
			status:      http.StatusNotFound,
			body:        `{}`,
			expectError: &StatusError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, ds := setupTestServer(t, tokenPairsPath+"tokenA", tt.status, tt.body)
			defer server.Close()

			result, err := ds.FetchDetail(context.Background(), "tokenA")
			if tt.expectError != nil {
				assert.Error(t, err)
				if tt.expectError == data.ErrDetailNotFound {
					assert.ErrorIs(t, err, data.ErrDetailNotFound)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPrice(t *testing.T) {
	valid := "0.000000012345678901234567"
	empty := ""

	assert.Equal(t, valid, price(&valid))
	assert.Equal(t, "", price(&empty))
	assert.Equal(t, "0.0", price(nil))
}

func TestTruncate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   *float64
		want int64
	}{
		{"absent", nil, 0},
		{"fraction dropped", f(20000.9), 20000},
		{"negative", f(-1), 0},
		{"max int64 exactly", f(math.MaxInt64), math.MaxInt64},
		{"huge", f(1e20), math.MaxInt64},
		{"positive infinity", f(math.Inf(1)), math.MaxInt64},
		{"nan", f(math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in))
		})
	}

	assert.Equal(t, math.MaxInt, txnCount(f(1e19), f(1e19)))
	assert.Equal(t, 7, txnCount(f(4.0), f(3.9)))
}
