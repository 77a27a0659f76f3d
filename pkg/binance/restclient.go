package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RESTClient talks to the Binance spot REST API.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// doGet performs a GET against path with the given query and decodes the
// JSON body into out.
func (c *RESTClient) doGet(ctx context.Context, path string, query url.Values, out any) error {
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
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("binance %s: status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetExchangeInfo fetches metadata for all trading pairs.
func (c *RESTClient) GetExchangeInfo(ctx context.Context) (*ExchangeInfoResponse, error) {
	var out ExchangeInfoResponse
	if err := c.doGet(ctx, "/exchangeInfo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSymbolInfo fetches metadata and filters for a single trading pair.
// A nil ExchangeSymbol with nil error means the symbol is unknown.
func (c *RESTClient) GetSymbolInfo(ctx context.Context, symbol string) (*ExchangeSymbol, error) {
	q := url.Values{"symbol": {symbol}}
	var out ExchangeInfoResponse
	if err := c.doGet(ctx, "/exchangeInfo", q, &out); err != nil {
		// Binance answers 400 for unknown symbols; treat any error from
		// this endpoint as "not found" and let the caller decide.
		return nil, err
	}
	if len(out.Symbols) == 0 {
		return nil, nil
	}
	return &out.Symbols[0], nil
}

// GetTicker24h fetches 24h rolling statistics for one symbol.
func (c *RESTClient) GetTicker24h(ctx context.Context, symbol string) (*Ticker24h, error) {
	q := url.Values{"symbol": {symbol}}
	var out Ticker24h
	if err := c.doGet(ctx, "/ticker/24hr", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAllTickers24h fetches 24h statistics for every trading pair.
func (c *RESTClient) GetAllTickers24h(ctx context.Context) ([]Ticker24h, error) {
	var out []Ticker24h
	if err := c.doGet(ctx, "/ticker/24hr", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUIKlines fetches candle history optimized for chart display.
func (c *RESTClient) GetUIKlines(ctx context.Context, symbol string, interval Interval, limit int) ([]Kline, error) {
	q := url.Values{
		"symbol":   {symbol},
		"interval": {string(interval)},
		"limit":    {strconv.Itoa(clamp(limit, 1, 1000))},
	}
	var raw [][]any
	if err := c.doGet(ctx, "/uiKlines", q, &raw); err != nil {
		return nil, err
	}
	return ParseKlineRows(raw), nil
}

// GetKlines fetches candle history with optional time bounds (unix ms;
// zero means unset). Used by the ATH scanner to page backwards.
func (c *RESTClient) GetKlines(ctx context.Context, symbol string, interval Interval, limit int, startTime, endTime int64) ([]Kline, error) {
	q := url.Values{
		"symbol":   {symbol},
		"interval": {string(interval)},
		"limit":    {strconv.Itoa(clamp(limit, 1, 1000))},
	}
	if startTime > 0 {
		q.Set("startTime", strconv.FormatInt(startTime, 10))
	}
	if endTime > 0 {
		q.Set("endTime", strconv.FormatInt(endTime, 10))
	}
	var raw [][]any
	if err := c.doGet(ctx, "/klines", q, &raw); err != nil {
		return nil, err
	}
	return ParseKlineRows(raw), nil
}

// GetDepth fetches an order-book depth snapshot.
func (c *RESTClient) GetDepth(ctx context.Context, symbol string, limit int) (*DepthResponse, error) {
	q := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(clamp(limit, 1, 5000))},
	}
	var out DepthResponse
	if err := c.doGet(ctx, "/depth", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAggTrades fetches recent aggregated trades, oldest first.
func (c *RESTClient) GetAggTrades(ctx context.Context, symbol string, limit int) ([]AggTrade, error) {
	q := url.Values{
		"symbol": {symbol},
		"limit":  {strconv.Itoa(clamp(limit, 1, 1000))},
	}
	var raw []rawAggTrade
	if err := c.doGet(ctx, "/aggTrades", q, &raw); err != nil {
		return nil, err
	}

	out := make([]AggTrade, 0, len(raw))
	for _, t := range raw {
		price, err := strconv.ParseFloat(t.Price, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(t.Qty, 64)
		if err != nil {
			continue
		}
		out = append(out, AggTrade{
			ID:         t.ID,
			Price:      price,
			Qty:        qty,
			Time:       t.TradeTime,
			BuyerMaker: t.BuyerMaker,
		})
	}
	return out, nil
}

// GetAvgPrice fetches the current average price.
func (c *RESTClient) GetAvgPrice(ctx context.Context, symbol string) (*AvgPriceResponse, error) {
	q := url.Values{"symbol": {symbol}}
	var out AvgPriceResponse
	if err := c.doGet(ctx, "/avgPrice", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBookTicker fetches the current best bid/ask.
func (c *RESTClient) GetBookTicker(ctx context.Context, symbol string) (*BookTickerResponse, error) {
	q := url.Values{"symbol": {symbol}}
	var out BookTickerResponse
	if err := c.doGet(ctx, "/ticker/bookTicker", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
