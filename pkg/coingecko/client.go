// Package coingecko is a thin client for the CoinGecko public API, used to
// enrich the asset page with coin descriptions, links and market figures.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SearchCoin is one candidate from the keyword search endpoint.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

type searchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// CoinDetail is the detail-by-id payload, trimmed to the fields the asset
// page renders.
type CoinDetail struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  struct {
		Large string `json:"large"`
		Small string `json:"small"`
	} `json:"image"`
	Description struct {
		EN string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage          []string `json:"homepage"`
		TwitterScreenName string   `json:"twitter_screen_name"`
	} `json:"links"`
	MarketData struct {
		CurrentPrice map[string]float64 `json:"current_price"`
		MarketCap    map[string]float64 `json:"market_cap"`
		ATH          map[string]float64 `json:"ath"`
		ATHDate      map[string]string  `json:"ath_date"`
		ATL          map[string]float64 `json:"atl"`
		ATLDate      map[string]string  `json:"atl_date"`
	} `json:"market_data"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{path: path, code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Search runs a keyword search and returns candidate coins ordered by
// CoinGecko's own relevance.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	q := url.Values{"query": {query}}
	var out searchResponse
	if err := c.get(ctx, "/search", q, &out); err != nil {
		return nil, err
	}
	return out.Coins, nil
}

// GetCoin looks up coin detail by id. Returns nil without error when the
// coin does not exist, matching the degrade-to-null behavior of the asset
// page.
func (c *Client) GetCoin(ctx context.Context, id string) (*CoinDetail, error) {
	q := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	}
	var out CoinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), q, &out); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

type statusError struct {
	path string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("coingecko %s: status %d", e.path, e.code)
}
