package solana

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func TestJupiterGetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, usdcMint, r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"` + usdcMint + `":{"id":"` + usdcMint + `","type":"derivedPrice","price":"0.999845"}}}`))
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)
	price, err := client.GetPrice(context.Background(), usdcMint)
	require.NoError(t, err)
	assert.InDelta(t, 0.999845, price, 1e-9)
}

func TestJupiterGetPriceMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"unknown":null}}`))
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)
	_, err := client.GetPrice(context.Background(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price available")
}

func TestJupiterGetPriceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)
	_, err := client.GetPrice(context.Background(), usdcMint)
	assert.Error(t, err)
}
