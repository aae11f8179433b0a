package dexscreener

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePairs = `{
  "schemaVersion": "1.0.0",
  "pairs": [
    {
      "chainId": "solana",
      "dexId": "raydium",
      "pairAddress": "9f36ee8r4cfmmjrfaok93esf2c6chbgehnhe2t7gun6w",
      "priceUsd": "0.00012345",
      "volume": {"h24": 123456.78, "h6": 1000},
      "priceChange": {"h24": -3.25},
      "liquidity": {"usd": 45678.9},
      "marketCap": 987654
    }
  ]
}`

// go test -v --run TestGetTokenPairs
func TestGetTokenPairs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePairs))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL+"/", 5*time.Second)
	pairs, err := client.GetTokenPairs(context.Background(), "TOKEN")
	require.NoError(t, err)

	assert.Equal(t, "/latest/dex/tokens/TOKEN", gotPath)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, "0.00012345", p.PriceUsd.String())
	assert.Equal(t, "123456.78", p.Volume.H24.String())
	assert.Equal(t, "-3.25", p.PriceChange.H24.String())
	assert.Equal(t, "45678.9", p.Liquidity.Usd.String())
	assert.True(t, p.MarketCap.Valid)
	assert.Equal(t, "987654", p.MarketCap.Decimal.String())
}

func TestGetTokenPairsNullPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	}))
	defer srv.Close()

	pairs, err := NewRESTClient(srv.URL, time.Second).GetTokenPairs(context.Background(), "TOKEN")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestGetTokenPairsMissingMarketCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs":[{"priceUsd":"1","volume":{"h24":"2"},"priceChange":{"h24":"0.5"},"liquidity":{"usd":"3"}}]}`))
	}))
	defer srv.Close()

	pairs, err := NewRESTClient(srv.URL, time.Second).GetTokenPairs(context.Background(), "TOKEN")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.False(t, pairs[0].MarketCap.Valid)
	assert.Equal(t, "2", pairs[0].Volume.H24.String())
}

func TestGetTokenPairsErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewRESTClient(srv.URL, time.Second).GetTokenPairs(context.Background(), "TOKEN")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"pairs": [`))
		}))
		defer srv.Close()

		_, err := NewRESTClient(srv.URL, time.Second).GetTokenPairs(context.Background(), "TOKEN")
		require.Error(t, err)
	})
}
