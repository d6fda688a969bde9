package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// MainnetURL is the base URL for Binance Spot production
	MainnetURL = "https://api.binance.com"
	// TestnetURL is the base URL for the Binance Spot testnet
	TestnetURL = "https://testnet.binance.vision"
)

// Client is a minimal Binance Spot REST client covering the public
// market-data endpoints the backtester needs: klines and exchangeInfo.
// All endpoints used here are unauthenticated.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Binance client pointed at mainnet or the testnet.
func NewClient(testnet bool) *Client {
	baseURL := MainnetURL
	if testnet {
		baseURL = TestnetURL
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get performs a GET against path with params and decodes the JSON body
// into out. Numbers are decoded as json.Number so millisecond timestamps
// survive without float truncation.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
