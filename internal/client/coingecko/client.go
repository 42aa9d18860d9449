package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	host       string
	httpClient *http.Client
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://api.coingecko.com"
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

// PricePoint is one historical observation from the market chart range.
type PricePoint struct {
	Timestamp time.Time
	Price     decimal.Decimal
}

// BitcoinRange fetches historical BTC prices in vsCurrency between from
// and to. Used to backfill the chart window when the local series is
// missing points.
func (c *Client) BitcoinRange(ctx context.Context, vsCurrency string, from, to time.Time) ([]PricePoint, error) {
	vsCurrency = strings.ToLower(strings.TrimSpace(vsCurrency))
	if vsCurrency == "" {
		return nil, fmt.Errorf("vs_currency is required")
	}
	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("from", strconv.FormatInt(from.Unix(), 10))
	query.Set("to", strconv.FormatInt(to.Unix(), 10))

	fullURL := c.host + "/api/v3/coins/bitcoin/market_chart/range?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
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
		return nil, fmt.Errorf("coingecko API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Prices [][]json.Number `json:"prices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse range response: %w", err)
	}
	out := make([]PricePoint, 0, len(parsed.Prices))
	for _, pair := range parsed.Prices {
		if len(pair) != 2 {
			continue
		}
		ms, err := pair[0].Int64()
		if err != nil {
			// Timestamps occasionally arrive as floats.
			f, ferr := pair[0].Float64()
			if ferr != nil {
				continue
			}
			ms = int64(f)
		}
		price, err := decimal.NewFromString(pair[1].String())
		if err != nil || price.LessThanOrEqual(decimal.Zero) {
			continue
		}
		out = append(out, PricePoint{
			Timestamp: time.UnixMilli(ms).UTC(),
			Price:     price,
		})
	}
	return out, nil
}
