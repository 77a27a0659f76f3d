package memorystore

import (
	"context"
	"sort"
	"time"

	"marketdesk/pkg/binance"
)

// DirectoryTTL matches the volatility of exchange metadata: pairs are
// listed or delisted rarely, so a multi-hour window is plenty.
const DirectoryTTL = 6 * time.Hour

type directoryData struct {
	list     []binance.ExchangeSymbol
	bySymbol map[string]binance.ExchangeSymbol
}

// Directory is the cached exchange symbol directory: every actively
// trading pair with its precision filters, refreshed on a TTL.
type Directory struct {
	cache *TTLCache[directoryData]
}

func NewDirectory(rest *binance.RESTClient, ttl time.Duration) *Directory {
	fetch := func(ctx context.Context) (directoryData, error) {
		info, err := rest.GetExchangeInfo(ctx)
		if err != nil {
			return directoryData{}, err
		}
		data := directoryData{
			bySymbol: make(map[string]binance.ExchangeSymbol, len(info.Symbols)),
		}
		for _, s := range info.Symbols {
			if s.Status != "TRADING" {
				continue
			}
			data.list = append(data.list, s)
			data.bySymbol[s.Symbol] = s
		}
		return data, nil
	}
	return &Directory{cache: NewTTLCache(ttl, fetch)}
}

// Lookup returns the metadata for one actively trading symbol. The second
// return value is false when the symbol is unknown or not trading.
func (d *Directory) Lookup(ctx context.Context, symbol string) (binance.ExchangeSymbol, bool, error) {
	data, err := d.cache.Get(ctx)
	if err != nil {
		return binance.ExchangeSymbol{}, false, err
	}
	s, ok := data.bySymbol[symbol]
	return s, ok, nil
}

// SameBase returns all trading pairs sharing the given base asset, sorted
// by quote asset then symbol.
func (d *Directory) SameBase(ctx context.Context, baseAsset string) ([]binance.ExchangeSymbol, error) {
	data, err := d.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	var out []binance.ExchangeSymbol
	for _, s := range data.list {
		if s.BaseAsset == baseAsset {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuoteAsset != out[j].QuoteAsset {
			return out[i].QuoteAsset < out[j].QuoteAsset
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}
