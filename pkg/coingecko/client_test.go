package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("query"))
		w.Write([]byte(`{"coins":[
			{"id":"bitcoin","name":"Bitcoin","symbol":"btc","market_cap_rank":1},
			{"id":"wrapped-bitcoin","name":"Wrapped Bitcoin","symbol":"wbtc","market_cap_rank":12}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	coins, err := client.Search(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, 1, coins[0].MarketCapRank)
}

func TestGetCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("localization"))
		w.Write([]byte(`{
			"id":"bitcoin","name":"Bitcoin","symbol":"btc",
			"image":{"large":"https://img/large.png","small":"https://img/small.png"},
			"description":{"en":"Digital gold."},
			"links":{"homepage":["https://bitcoin.org"],"twitter_screen_name":"bitcoin"},
			"market_data":{
				"current_price":{"usd":50000},
				"market_cap":{"usd":1000000000},
				"ath":{"usd":69000},
				"ath_date":{"usd":"2021-11-10T14:24:11.849Z"}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	coin, err := client.GetCoin(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.NotNil(t, coin)
	assert.Equal(t, "Bitcoin", coin.Name)
	assert.Equal(t, "Digital gold.", coin.Description.EN)
	assert.Equal(t, float64(69000), coin.MarketData.ATH["usd"])
}

func TestGetCoinNotFoundIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"coin not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	coin, err := client.GetCoin(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, coin)
}

func TestGetCoinTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetCoin(context.Background(), "bitcoin")
	require.Error(t, err)
}
