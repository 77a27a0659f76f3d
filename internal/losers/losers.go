// Package losers computes the worst 24h performers on the spot market for
// the dashboard's losers board and the email digest.
package losers

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"marketdesk/pkg/binance"
)

// Leveraged-token suffixes excluded from the board by default.
var leveragedSuffixes = []string{"UP", "DOWN", "BULL", "BEAR"}

// Params filters and bounds a losers query.
type Params struct {
	Quote            string  // quote asset, e.g. "USDT"
	Limit            int     // max rows returned
	MinQuoteVolume   float64 // 24h quote-volume floor
	ExcludeLeveraged bool
}

// DefaultParams mirrors the dashboard defaults.
func DefaultParams() Params {
	return Params{
		Quote:            "USDT",
		Limit:            50,
		MinQuoteVolume:   1_000_000,
		ExcludeLeveraged: true,
	}
}

// Loser is one row of the losers board.
type Loser struct {
	Symbol         string  `json:"symbol"`
	LastPrice      float64 `json:"lastPrice"`
	ChangePct24h   float64 `json:"changePct24h"`
	QuoteVolume24h float64 `json:"quoteVolume24h"`
	HighPrice24h   float64 `json:"highPrice24h"`
	LowPrice24h    float64 `json:"lowPrice24h"`
}

// TickerSource is the slice of the market data provider this package needs.
type TickerSource interface {
	GetAllTickers24h(ctx context.Context) ([]binance.Ticker24h, error)
}

// Compute filters the full ticker list by quote asset, volume floor and
// leveraged-token suffixes, sorted worst change first, capped at
// p.Limit (unlimited when zero).
func Compute(ctx context.Context, src TickerSource, p Params) ([]Loser, error) {
	tickers, err := src.GetAllTickers24h(ctx)
	if err != nil {
		return nil, err
	}

	quote := strings.ToUpper(p.Quote)
	var out []Loser
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, quote) {
			continue
		}
		qv, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || qv < p.MinQuoteVolume {
			continue
		}
		if p.ExcludeLeveraged && isLeveraged(t.Symbol, quote) {
			continue
		}
		change, err := strconv.ParseFloat(t.PriceChangePercent, 64)
		if err != nil {
			continue
		}
		out = append(out, Loser{
			Symbol:         t.Symbol,
			LastPrice:      parseOrZero(t.LastPrice),
			ChangePct24h:   change,
			QuoteVolume24h: qv,
			HighPrice24h:   parseOrZero(t.HighPrice),
			LowPrice24h:    parseOrZero(t.LowPrice),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ChangePct24h < out[j].ChangePct24h })

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func isLeveraged(symbol, quote string) bool {
	base := strings.TrimSuffix(symbol, quote)
	for _, sfx := range leveragedSuffixes {
		if strings.HasSuffix(base, sfx) {
			return true
		}
	}
	return false
}

func parseOrZero(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
