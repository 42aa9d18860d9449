package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Rates maps lowercase currency codes to the multiplier from USD.
type Rates map[string]decimal.Decimal

// FallbackRates is used when the rates API is unreachable, matching the
// fixed rates the game has always fallen back to.
func FallbackRates() Rates {
	return Rates{
		"usd": decimal.NewFromInt(1),
		"eur": decimal.NewFromFloat(0.85),
		"gbp": decimal.NewFromFloat(0.73),
	}
}

type Client struct {
	host       string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://api.exchangerate-api.com"
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

// LatestUSD fetches the current USD conversion table.
func (c *Client) LatestUSD(ctx context.Context) (Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/v4/latest/USD", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchangerate API error (%d): %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rates response: %w", err)
	}
	out := Rates{"usd": decimal.NewFromInt(1)}
	for code, raw := range parsed.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil || rate.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out[strings.ToLower(code)] = rate
	}
	return out, nil
}
