package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTicker24h(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"50000","priceChangePercent":"-1.5","count":100}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	ticker, err := client.GetTicker24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "50000", ticker.LastPrice)
	assert.Equal(t, int64(100), ticker.Count)
}

func TestGetUIKlinesClampsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uiKlines", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		w.Write([]byte(`[[1700000040000,"1","2","0.5","1.5","10",1700000099999,"15",3,"5","7.5","0"]]`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	klines, err := client.GetUIKlines(context.Background(), "BTCUSDT", Interval1m, 5000)
	require.NoError(t, err)
	require.Len(t, klines, 1)
	assert.Equal(t, int64(1700000040), klines[0].OpenTime)
}

func TestGetKlinesTimeBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/klines", r.URL.Path)
		assert.Equal(t, "1700000000000", r.URL.Query().Get("endTime"))
		assert.Empty(t, r.URL.Query().Get("startTime"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	_, err := client.GetKlines(context.Background(), "BTCUSDT", Interval1d, 1000, 0, 1700000000000)
	require.NoError(t, err)
}

func TestGetAggTradesSkipsBadRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"a":1,"p":"50000","q":"0.01","T":1,"m":true},
			{"a":2,"p":"not a price","q":"0.02","T":2,"m":false},
			{"a":3,"p":"50020","q":"0.03","T":3,"m":true}
		]`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	trades, err := client.GetAggTrades(context.Background(), "BTCUSDT", 80)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, int64(1), trades[0].ID)
	assert.Equal(t, int64(3), trades[1].ID)
	assert.Equal(t, 50020.0, trades[1].Price)
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	_, err := client.GetTicker24h(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Invalid symbol")
}

func TestGetDepth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/depth", r.URL.Path)
		w.Write([]byte(`{"lastUpdateId":42,"bids":[["1","2"]],"asks":[["3","4"]]}`))
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL, time.Second)
	depth, err := client.GetDepth(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(42), depth.LastUpdateID)
	require.Len(t, depth.Bids, 1)
}
