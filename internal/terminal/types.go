// Package terminal implements the live market-terminal core: a REST
// snapshot merged with a multiplexed WebSocket stream into three
// continuously reconciled projections (candle series, order book, trade
// tape), driven by an explicit session lifecycle state machine.
package terminal

import (
	"marketdesk/pkg/binance"
)

// TradingPair identifies a base/quote pair with its precision constraints.
// Resolved once per session from the cached exchange directory.
type TradingPair struct {
	Symbol              string `json:"symbol"`
	BaseAsset           string `json:"baseAsset"`
	QuoteAsset          string `json:"quoteAsset"`
	BaseAssetPrecision  int    `json:"baseAssetPrecision"`
	QuoteAssetPrecision int    `json:"quoteAssetPrecision"`
	TickSize            string `json:"tickSize,omitempty"`
	StepSize            string `json:"stepSize,omitempty"`
	MinNotional         string `json:"minNotional,omitempty"`
}

// Candle is one OHLCV bucket keyed by its open time (unix seconds, aligned
// to the active interval).
type Candle struct {
	OpenTime      int64   `json:"time"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	QuoteVolume   float64 `json:"quoteVolume"`
	Trades        int64   `json:"trades"`
	TakerBuyBase  float64 `json:"takerBuyBase"`
	TakerBuyQuote float64 `json:"takerBuyQuote"`
	Closed        bool    `json:"closed"`
}

// BookLevel is one (price, quantity) order-book entry.
type BookLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// OrderBook holds the displayed depth window: bids descending by price,
// asks ascending, each capped to the configured depth.
type OrderBook struct {
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// Quote is the best bid/ask pair, fed by the high-frequency bookTicker
// stream and never overwritten by depth snapshots.
type Quote struct {
	BidPrice float64 `json:"bidPrice"`
	BidQty   float64 `json:"bidQty"`
	AskPrice float64 `json:"askPrice"`
	AskQty   float64 `json:"askQty"`
}

// Trade is one entry on the trade tape.
type Trade struct {
	ID         int64   `json:"id"`
	Price      float64 `json:"price"`
	Qty        float64 `json:"qty"`
	Time       int64   `json:"time"` // ms
	BuyerMaker bool    `json:"isBuyerMaker"`
}

// Stats24h is the 24h rolling statistics block; its fetch is mandatory for
// a session to start.
type Stats24h struct {
	LastPrice          float64 `json:"lastPrice"`
	OpenPrice          float64 `json:"openPrice"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quoteVolume"`
	PriceChange        float64 `json:"priceChange"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	WeightedAvgPrice   float64 `json:"weightedAvgPrice"`
	PrevClosePrice     float64 `json:"prevClosePrice"`
	Count              int64   `json:"count"`
}

// AvgPrice is the rolling average price (optional snapshot field).
type AvgPrice struct {
	Mins  int     `json:"mins"`
	Price float64 `json:"price"`
}

// PairRef points at a sibling trading pair sharing the base asset.
type PairRef struct {
	Symbol     string `json:"symbol"`
	QuoteAsset string `json:"quoteAsset"`
}

// State is the lifecycle controller state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLive    State = "live"
	StateError   State = "error"
)

// ConnStatus is the stream connection status. While the controller is live,
// "connecting" doubles as the reconnecting sub-state.
type ConnStatus string

const (
	ConnConnecting ConnStatus = "connecting"
	ConnOpen       ConnStatus = "open"
	ConnClosed     ConnStatus = "closed"
)

// ViewModel is the immutable render snapshot exposed to the serving layer.
// Slices are deep copies; mutating a ViewModel never affects the session.
type ViewModel struct {
	Symbol     string           `json:"symbol"`
	Interval   binance.Interval `json:"interval"`
	State      State            `json:"state"`
	ConnStatus ConnStatus       `json:"connStatus"`
	Error      string           `json:"error,omitempty"`

	Pair      TradingPair `json:"pair"`
	Stats     *Stats24h   `json:"stats24h,omitempty"`
	AvgPrice  *AvgPrice   `json:"avgPrice,omitempty"`
	Quote     *Quote      `json:"quote,omitempty"`
	LastPrice float64     `json:"lastPrice"`
	Candles   []Candle    `json:"candles"`
	Book      OrderBook   `json:"book"`
	Tape      []Trade     `json:"tape"`
	Siblings  []PairRef   `json:"siblings,omitempty"`
}
