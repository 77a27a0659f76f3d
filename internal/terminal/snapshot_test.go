package terminal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketdesk/config"
	"marketdesk/internal/memorystore"
	"marketdesk/pkg/binance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const exchangeInfoBody = `{"symbols":[
	{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","quoteAsset":"USDT",
	 "baseAssetPrecision":8,"quoteAssetPrecision":8,
	 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.01"},
	            {"filterType":"LOT_SIZE","stepSize":"0.00001"},
	            {"filterType":"NOTIONAL","minNotional":"5.0"}]},
	{"symbol":"BTCEUR","status":"TRADING","baseAsset":"BTC","quoteAsset":"EUR",
	 "baseAssetPrecision":8,"quoteAssetPrecision":8,"filters":[]},
	{"symbol":"OLDUSDT","status":"BREAK","baseAsset":"OLD","quoteAsset":"USDT",
	 "baseAssetPrecision":8,"quoteAssetPrecision":8,"filters":[]}
]}`

// snapshotFixture serves canned Binance REST responses; paths listed in
// fail answer 500.
func snapshotFixture(fail map[string]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fail[r.URL.Path] {
			http.Error(w, `{"code":-1000,"msg":"down"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/exchangeInfo":
			w.Write([]byte(exchangeInfoBody))
		case "/ticker/24hr":
			w.Write([]byte(`{"symbol":"BTCUSDT","priceChange":"-1000","priceChangePercent":"-1.96",
				"weightedAvgPrice":"50500","prevClosePrice":"51000","lastPrice":"50000",
				"openPrice":"51000","highPrice":"51500","lowPrice":"49500",
				"volume":"1200","quoteVolume":"60600000","openTime":1,"closeTime":2,"count":987654}`))
		case "/uiKlines":
			w.Write([]byte(`[
				[1700000040000,"50000","50100","49900","50050","12.5",1700000099999,"625000",42,"6.1","305000","0"],
				[1700000100000,"50050","50200","50000","50150","8.2",1700000159999,"411000",31,"4.0","200000","0"]
			]`))
		case "/depth":
			w.Write([]byte(`{"lastUpdateId":9,
				"bids":[["50049","0.4"],["50048","1.2"]],
				"asks":[["50051","0.6"],["50052","2.0"]]}`))
		case "/aggTrades":
			w.Write([]byte(`[
				{"a":1,"p":"50000","q":"0.01","T":1700000040100,"m":true},
				{"a":2,"p":"50010","q":"0.02","T":1700000040200,"m":false},
				{"a":3,"p":"50020","q":"0.03","T":1700000040300,"m":true}
			]`))
		case "/avgPrice":
			w.Write([]byte(`{"mins":5,"price":"50040.5","closeTime":3}`))
		case "/ticker/bookTicker":
			w.Write([]byte(`{"symbol":"BTCUSDT","bidPrice":"50049","bidQty":"0.4","askPrice":"50051","askQty":"0.6"}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func newFixtureFetcher(t *testing.T, fail map[string]bool) (*BinanceFetcher, func()) {
	t.Helper()
	srv := httptest.NewServer(snapshotFixture(fail))
	rest := binance.NewRESTClient(srv.URL, 2*time.Second)
	dir := memorystore.NewDirectory(rest, time.Hour)
	cfg := config.TerminalConfig{
		CandleLimit:  500,
		DepthLimit:   50,
		BookDepth:    20,
		TapeCapacity: 2,
		TradesLimit:  80,
	}
	return NewBinanceFetcher(rest, dir, cfg, zap.NewNop()), srv.Close
}

func TestFetchAssemblesFullSnapshot(t *testing.T) {
	f, done := newFixtureFetcher(t, nil)
	defer done()

	snap, err := f.Fetch(context.Background(), "BTCUSDT", binance.Interval1m)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", snap.Pair.Symbol)
	assert.Equal(t, "0.01", snap.Pair.TickSize)
	assert.Equal(t, "0.00001", snap.Pair.StepSize)
	assert.Equal(t, "5.0", snap.Pair.MinNotional)

	assert.Equal(t, float64(50000), snap.Stats.LastPrice)
	assert.Equal(t, -1.96, snap.Stats.PriceChangePercent)
	assert.Equal(t, int64(987654), snap.Stats.Count)

	require.NotNil(t, snap.AvgPrice)
	assert.Equal(t, 50040.5, snap.AvgPrice.Price)
	require.NotNil(t, snap.Quote)
	assert.Equal(t, float64(50049), snap.Quote.BidPrice)

	require.Len(t, snap.Candles, 2)
	assert.Equal(t, int64(1700000040), snap.Candles[0].OpenTime)
	assert.True(t, snap.Candles[0].Closed)

	require.Len(t, snap.Book.Bids, 2)
	assert.Equal(t, float64(50049), snap.Book.Bids[0].Price)

	// Tape is newest first and capped at TapeCapacity.
	require.Len(t, snap.Tape, 2)
	assert.Equal(t, int64(3), snap.Tape[0].ID)
	assert.Equal(t, int64(2), snap.Tape[1].ID)

	// Siblings cover the same base asset, quote-sorted, trading only.
	require.Len(t, snap.Siblings, 2)
	assert.Equal(t, "BTCEUR", snap.Siblings[0].Symbol)
	assert.Equal(t, "BTCUSDT", snap.Siblings[1].Symbol)
}

func TestFetchUnknownSymbol(t *testing.T) {
	f, done := newFixtureFetcher(t, nil)
	defer done()

	_, err := f.Fetch(context.Background(), "NOPEUSDT", binance.Interval1m)
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestFetchNonTradingSymbolIsNotFound(t *testing.T) {
	f, done := newFixtureFetcher(t, nil)
	defer done()

	_, err := f.Fetch(context.Background(), "OLDUSDT", binance.Interval1m)
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestFetchStatsFailureIsFatal(t *testing.T) {
	f, done := newFixtureFetcher(t, map[string]bool{"/ticker/24hr": true})
	defer done()

	_, err := f.Fetch(context.Background(), "BTCUSDT", binance.Interval1m)
	require.ErrorIs(t, err, ErrSnapshotUnavailable)
}

func TestFetchOptionalFailuresDegrade(t *testing.T) {
	f, done := newFixtureFetcher(t, map[string]bool{
		"/uiKlines":          true,
		"/depth":             true,
		"/aggTrades":         true,
		"/avgPrice":          true,
		"/ticker/bookTicker": true,
	})
	defer done()

	snap, err := f.Fetch(context.Background(), "BTCUSDT", binance.Interval1m)
	require.NoError(t, err)

	assert.Equal(t, float64(50000), snap.Stats.LastPrice)
	assert.Empty(t, snap.Candles)
	assert.Empty(t, snap.Book.Bids)
	assert.Empty(t, snap.Tape)
	assert.Nil(t, snap.AvgPrice)
	assert.Nil(t, snap.Quote)
}
