package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCandleReplacesMatchingLastBucket(t *testing.T) {
	series := []Candle{
		{OpenTime: 40, Close: 10},
		{OpenTime: 100, Close: 11},
	}

	series = ApplyCandle(series, Candle{OpenTime: 100, Close: 12, High: 13})

	require.Len(t, series, 2)
	assert.Equal(t, float64(12), series[1].Close)
	assert.Equal(t, float64(13), series[1].High)
	assert.Equal(t, int64(40), series[0].OpenTime)
}

func TestApplyCandleAppendsNewerBucket(t *testing.T) {
	series := []Candle{{OpenTime: 100, Close: 11}}

	series = ApplyCandle(series, Candle{OpenTime: 160, Close: 12})

	require.Len(t, series, 2)
	assert.Equal(t, int64(100), series[0].OpenTime)
	assert.Equal(t, int64(160), series[1].OpenTime)
}

func TestApplyCandleUpdateThenRoll(t *testing.T) {
	// A live update into the current bucket followed by the first event of
	// the next bucket.
	series := []Candle{{OpenTime: 100, Close: 11}}

	series = ApplyCandle(series, Candle{OpenTime: 100, Close: 11.5})
	series = ApplyCandle(series, Candle{OpenTime: 160, Close: 11.6})

	require.Len(t, series, 2)
	assert.Equal(t, 11.5, series[0].Close)
	assert.Equal(t, 11.6, series[1].Close)
}

func TestApplyCandleDropsStaleBucket(t *testing.T) {
	series := []Candle{{OpenTime: 100, Close: 11}, {OpenTime: 160, Close: 12}}

	series = ApplyCandle(series, Candle{OpenTime: 100, Close: 99})

	require.Len(t, series, 2)
	assert.Equal(t, float64(11), series[0].Close)
	assert.Equal(t, float64(12), series[1].Close)
}

func TestApplyCandleEmptySeries(t *testing.T) {
	series := ApplyCandle(nil, Candle{OpenTime: 100})
	require.Len(t, series, 1)
}

func TestApplyDepthSortsAndTruncates(t *testing.T) {
	var ev OrderBook
	for i := 0; i < 25; i++ {
		ev.Bids = append(ev.Bids, BookLevel{Price: float64(1000 + i), Qty: 1})
		ev.Asks = append(ev.Asks, BookLevel{Price: float64(2000 - i), Qty: 1})
	}

	book := ApplyDepth(ev, 20)

	require.Len(t, book.Bids, 20)
	require.Len(t, book.Asks, 20)

	// Bids descending: best bid first.
	assert.Equal(t, float64(1024), book.Bids[0].Price)
	for i := 1; i < len(book.Bids); i++ {
		assert.Greater(t, book.Bids[i-1].Price, book.Bids[i].Price)
	}

	// Asks ascending: best ask first.
	assert.Equal(t, float64(1976), book.Asks[0].Price)
	for i := 1; i < len(book.Asks); i++ {
		assert.Less(t, book.Asks[i-1].Price, book.Asks[i].Price)
	}
}

func TestApplyDepthReplacesWholeWindow(t *testing.T) {
	book := ApplyDepth(OrderBook{
		Bids: []BookLevel{{Price: 100, Qty: 1}},
		Asks: []BookLevel{{Price: 101, Qty: 1}},
	}, 20)

	book = ApplyDepth(OrderBook{
		Bids: []BookLevel{{Price: 90, Qty: 2}},
		Asks: []BookLevel{{Price: 91, Qty: 2}},
	}, 20)

	require.Len(t, book.Bids, 1)
	assert.Equal(t, float64(90), book.Bids[0].Price)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, float64(91), book.Asks[0].Price)
}

func TestApplyDepthDoesNotMutateEvent(t *testing.T) {
	ev := OrderBook{
		Bids: []BookLevel{{Price: 1, Qty: 1}, {Price: 3, Qty: 1}, {Price: 2, Qty: 1}},
	}
	_ = ApplyDepth(ev, 20)

	assert.Equal(t, float64(1), ev.Bids[0].Price)
	assert.Equal(t, float64(3), ev.Bids[1].Price)
}

func TestApplyQuoteReplacesUnconditionally(t *testing.T) {
	q := ApplyQuote(Quote{BidPrice: 100, AskPrice: 101}, Quote{BidPrice: 99, AskPrice: 100})
	assert.Equal(t, Quote{BidPrice: 99, AskPrice: 100}, q)
}

func TestApplyTradePrependsAndEvicts(t *testing.T) {
	var tape []Trade
	for i := int64(1); i <= 5; i++ {
		tape = ApplyTrade(tape, Trade{ID: i}, 3)
	}

	require.Len(t, tape, 3)
	assert.Equal(t, int64(5), tape[0].ID)
	assert.Equal(t, int64(4), tape[1].ID)
	assert.Equal(t, int64(3), tape[2].ID)
}
