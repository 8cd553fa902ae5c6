package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultDexScreenerURL = "https://api.dexscreener.com/latest/dex"

// DexScreenerClient fetches pool liquidity data from the DexScreener API
type DexScreenerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDexScreenerClient creates a DexScreener client. An empty baseURL uses
// the public endpoint.
func NewDexScreenerClient(baseURL string) *DexScreenerClient {
	if baseURL == "" {
		baseURL = defaultDexScreenerURL
	}
	return &DexScreenerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PairLiquidity represents the liquidity block of a trading pair
type PairLiquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// Pair represents a single trading pair from DexScreener
type Pair struct {
	ChainID     string         `json:"chainId"`
	DexID       string         `json:"dexId"`
	PairAddress string         `json:"pairAddress"`
	PriceUSD    string         `json:"priceUsd"`
	Liquidity   *PairLiquidity `json:"liquidity"`
}

type tokenPairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// GetTokenPairs returns all known trading pairs for a token address
func (c *DexScreenerClient) GetTokenPairs(ctx context.Context, tokenAddress string) ([]Pair, error) {
	u := fmt.Sprintf("%s/tokens/%s", c.baseURL, tokenAddress)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pairs request failed with status code: %d", resp.StatusCode)
	}

	var pairsResp tokenPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pairsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return pairsResp.Pairs, nil
}

// BestPair returns the pair with the deepest USD liquidity, or nil when the
// token has no pools
func (c *DexScreenerClient) BestPair(ctx context.Context, tokenAddress string) (*Pair, error) {
	pairs, err := c.GetTokenPairs(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}

	var best *Pair
	for i := range pairs {
		p := &pairs[i]
		if p.Liquidity == nil {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	return best, nil
}
