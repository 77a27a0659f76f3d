package terminal

import (
	"context"
	"fmt"
	"sync"

	"marketdesk/config"
	"marketdesk/internal/memorystore"
	"marketdesk/pkg/binance"

	"go.uber.org/zap"
)

// Snapshot is the aggregate initial state for one (symbol, interval):
// pair metadata, mandatory 24h stats, and the optional fields that degrade
// to empty on failure.
type Snapshot struct {
	Pair     TradingPair
	Stats    Stats24h
	AvgPrice *AvgPrice
	Quote    *Quote
	Candles  []Candle
	Book     OrderBook
	Tape     []Trade // newest first
	Siblings []PairRef
}

// SnapshotFetcher produces the initial session state.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, symbol string, interval binance.Interval) (*Snapshot, error)
}

// BinanceFetcher assembles a Snapshot from concurrent Binance REST calls.
// Every sub-fetch fails independently; only the 24h statistics are
// mandatory.
type BinanceFetcher struct {
	rest *binance.RESTClient
	dir  *memorystore.Directory
	cfg  config.TerminalConfig
	log  *zap.Logger
}

func NewBinanceFetcher(rest *binance.RESTClient, dir *memorystore.Directory, cfg config.TerminalConfig, log *zap.Logger) *BinanceFetcher {
	return &BinanceFetcher{rest: rest, dir: dir, cfg: cfg, log: log}
}

func (f *BinanceFetcher) Fetch(ctx context.Context, symbol string, interval binance.Interval) (*Snapshot, error) {
	sym, ok, err := f.dir.Lookup(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	snap := &Snapshot{Pair: pairFromSymbol(sym)}

	var (
		wg        sync.WaitGroup
		ticker    *binance.Ticker24h
		tickerErr error
		klines    []binance.Kline
		depth     *binance.DepthResponse
		trades    []binance.AggTrade
		avgPrice  *binance.AvgPriceResponse
		book      *binance.BookTickerResponse
		siblings  []binance.ExchangeSymbol
	)

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				f.log.Warn("snapshot sub-fetch failed",
					zap.String("symbol", symbol), zap.String("fetch", name), zap.Error(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker, tickerErr = f.rest.GetTicker24h(ctx, symbol)
	}()

	run("klines", func() (err error) {
		klines, err = f.rest.GetUIKlines(ctx, symbol, interval, f.cfg.CandleLimit)
		return
	})
	run("depth", func() (err error) {
		depth, err = f.rest.GetDepth(ctx, symbol, f.cfg.DepthLimit)
		return
	})
	run("aggTrades", func() (err error) {
		trades, err = f.rest.GetAggTrades(ctx, symbol, f.cfg.TradesLimit)
		return
	})
	run("avgPrice", func() (err error) {
		avgPrice, err = f.rest.GetAvgPrice(ctx, symbol)
		return
	})
	run("bookTicker", func() (err error) {
		book, err = f.rest.GetBookTicker(ctx, symbol)
		return
	})
	run("siblings", func() (err error) {
		siblings, err = f.dir.SameBase(ctx, sym.BaseAsset)
		return
	})

	wg.Wait()

	// The 24h stats are the one fetch a session cannot start without.
	if tickerErr != nil {
		return nil, fmt.Errorf("%w: 24h stats: %v", ErrSnapshotUnavailable, tickerErr)
	}
	snap.Stats = statsFromTicker(ticker)

	if avgPrice != nil {
		if p, ok := parseFloat(avgPrice.Price); ok {
			snap.AvgPrice = &AvgPrice{Mins: avgPrice.Mins, Price: p}
		}
	}
	if book != nil {
		snap.Quote = quoteFromBookTicker(book)
	}

	snap.Candles = make([]Candle, 0, len(klines))
	for _, k := range klines {
		snap.Candles = append(snap.Candles, candleFromKline(k))
	}

	if depth != nil {
		snap.Book = bookFromLevels(depth.Bids, depth.Asks)
	}

	// REST delivers trades oldest first; the tape wants newest first.
	for i := len(trades) - 1; i >= 0 && len(snap.Tape) < f.cfg.TapeCapacity; i-- {
		t := trades[i]
		snap.Tape = append(snap.Tape, Trade{
			ID: t.ID, Price: t.Price, Qty: t.Qty, Time: t.Time, BuyerMaker: t.BuyerMaker,
		})
	}

	for _, s := range siblings {
		snap.Siblings = append(snap.Siblings, PairRef{Symbol: s.Symbol, QuoteAsset: s.QuoteAsset})
	}

	return snap, nil
}

func pairFromSymbol(s binance.ExchangeSymbol) TradingPair {
	p := TradingPair{
		Symbol:              s.Symbol,
		BaseAsset:           s.BaseAsset,
		QuoteAsset:          s.QuoteAsset,
		BaseAssetPrecision:  s.BaseAssetPrecision,
		QuoteAssetPrecision: s.QuoteAssetPrecision,
	}
	for _, flt := range s.Filters {
		switch flt.FilterType {
		case "PRICE_FILTER":
			p.TickSize = flt.TickSize
		case "LOT_SIZE":
			p.StepSize = flt.StepSize
		case "MIN_NOTIONAL", "NOTIONAL":
			p.MinNotional = flt.MinNotional
		}
	}
	return p
}

func statsFromTicker(t *binance.Ticker24h) Stats24h {
	return Stats24h{
		LastPrice:          parseFloatOrZero(t.LastPrice),
		OpenPrice:          parseFloatOrZero(t.OpenPrice),
		HighPrice:          parseFloatOrZero(t.HighPrice),
		LowPrice:           parseFloatOrZero(t.LowPrice),
		Volume:             parseFloatOrZero(t.Volume),
		QuoteVolume:        parseFloatOrZero(t.QuoteVolume),
		PriceChange:        parseFloatOrZero(t.PriceChange),
		PriceChangePercent: parseFloatOrZero(t.PriceChangePercent),
		WeightedAvgPrice:   parseFloatOrZero(t.WeightedAvgPrice),
		PrevClosePrice:     parseFloatOrZero(t.PrevClosePrice),
		Count:              t.Count,
	}
}

func quoteFromBookTicker(b *binance.BookTickerResponse) *Quote {
	return &Quote{
		BidPrice: parseFloatOrZero(b.BidPrice),
		BidQty:   parseFloatOrZero(b.BidQty),
		AskPrice: parseFloatOrZero(b.AskPrice),
		AskQty:   parseFloatOrZero(b.AskQty),
	}
}

func candleFromKline(k binance.Kline) Candle {
	return Candle{
		OpenTime:      k.OpenTime,
		Open:          k.Open,
		High:          k.High,
		Low:           k.Low,
		Close:         k.Close,
		Volume:        k.Volume,
		QuoteVolume:   k.QuoteVolume,
		Trades:        k.Trades,
		TakerBuyBase:  k.TakerBuyBase,
		TakerBuyQuote: k.TakerBuyQuote,
		Closed:        true,
	}
}

func bookFromLevels(bids, asks [][]string) OrderBook {
	var book OrderBook
	for _, lv := range binance.ParseLevels(bids) {
		book.Bids = append(book.Bids, BookLevel{Price: lv[0], Qty: lv[1]})
	}
	for _, lv := range binance.ParseLevels(asks) {
		book.Asks = append(book.Asks, BookLevel{Price: lv[0], Qty: lv[1]})
	}
	return book
}
