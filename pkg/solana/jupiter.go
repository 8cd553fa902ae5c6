package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultJupiterPriceURL = "https://lite-api.jup.ag/price/v2"

// JupiterClient fetches token prices from the Jupiter price API
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJupiterClient creates a Jupiter price client. An empty baseURL uses the
// public endpoint.
func NewJupiterClient(baseURL string) *JupiterClient {
	if baseURL == "" {
		baseURL = defaultJupiterPriceURL
	}
	return &JupiterClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type jupiterPriceEntry struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

type jupiterPriceResponse struct {
	Data map[string]*jupiterPriceEntry `json:"data"`
}

// GetPrice returns the USD price for a token mint
func (c *JupiterClient) GetPrice(ctx context.Context, mint string) (float64, error) {
	u := fmt.Sprintf("%s?ids=%s", c.baseURL, url.QueryEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price request failed with status code: %d", resp.StatusCode)
	}

	var priceResp jupiterPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	entry := priceResp.Data[mint]
	if entry == nil || entry.Price == "" {
		return 0, fmt.Errorf("no price available for %s", mint)
	}

	price, err := strconv.ParseFloat(entry.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse price %q: %w", entry.Price, err)
	}
	return price, nil
}
