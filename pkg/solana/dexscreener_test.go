package solana

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDexScreenerBestPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/tok1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pairs":[
			{"chainId":"solana","dexId":"raydium","pairAddress":"p1","priceUsd":"0.01","liquidity":{"usd":50000}},
			{"chainId":"solana","dexId":"orca","pairAddress":"p2","priceUsd":"0.0102","liquidity":{"usd":200000}},
			{"chainId":"solana","dexId":"meteora","pairAddress":"p3","priceUsd":"0.0099"}
		]}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL)
	best, err := client.BestPair(context.Background(), "tok1")
	require.NoError(t, err)
	require.NotNil(t, best)

	// Deepest pool wins; pairs without a liquidity block are skipped.
	assert.Equal(t, "p2", best.PairAddress)
	assert.InDelta(t, 200000, best.Liquidity.USD, 1e-9)
}

func TestDexScreenerBestPairNoPools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pairs":null}`))
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL)
	best, err := client.BestPair(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestDexScreenerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewDexScreenerClient(server.URL)
	_, err := client.GetTokenPairs(context.Background(), "tok1")
	assert.Error(t, err)
}
