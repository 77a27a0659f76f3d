package terminal

import "sort"

// The fold functions below are the whole reconciliation engine: pure,
// synchronous, and applied to events in arrival order. Re-applying a
// candle or depth event is a harmless overwrite; trade events are not
// idempotent (a duplicate trade id shows twice on the display-only tape).

// ApplyCandle folds a candle update into the series. The last bucket is
// replaced in place when the open time matches, a newer bucket is
// appended, and anything older than the last bucket is dropped as stale.
// No gap buckets are synthesized.
func ApplyCandle(series []Candle, c Candle) []Candle {
	n := len(series)
	if n == 0 {
		return append(series, c)
	}
	last := series[n-1].OpenTime
	switch {
	case c.OpenTime == last:
		series[n-1] = c
		return series
	case c.OpenTime > last:
		return append(series, c)
	default:
		return series
	}
}

// ApplyDepth replaces the displayed book window with the event's levels:
// bids sorted descending by price, asks ascending, each truncated to
// depth. The upstream feed delivers full top-N windows, so no merging is
// needed or safe.
func ApplyDepth(ev OrderBook, depth int) OrderBook {
	bids := append([]BookLevel(nil), ev.Bids...)
	asks := append([]BookLevel(nil), ev.Asks...)

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	if len(bids) > depth {
		bids = bids[:depth]
	}
	if len(asks) > depth {
		asks = asks[:depth]
	}
	return OrderBook{Bids: bids, Asks: asks}
}

// ApplyQuote replaces the best bid/ask unconditionally: the bookTicker
// stream is the most current source and takes priority over anything a
// depth snapshot implies.
func ApplyQuote(_ Quote, ev Quote) Quote {
	return ev
}

// ApplyTrade prepends the trade to the tape and evicts the oldest entries
// beyond capacity.
func ApplyTrade(tape []Trade, t Trade, capacity int) []Trade {
	tape = append([]Trade{t}, tape...)
	if len(tape) > capacity {
		tape = tape[:capacity]
	}
	return tape
}
