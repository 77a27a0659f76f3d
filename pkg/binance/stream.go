package binance

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Topic suffixes used to route combined-stream messages.
const (
	TopicKlinePrefix = "@kline_"
	TopicBookTicker  = "@bookTicker"
	TopicAggTrade    = "@aggTrade"
	TopicDepth       = "@depth20@100ms"
)

// StreamURL builds the combined-stream URL multiplexing the four terminal
// sub-streams for one symbol and interval onto a single connection, e.g.
// wss://.../stream?streams=btcusdt@kline_1h/btcusdt@bookTicker/...
func StreamURL(base, symbol string, interval Interval) string {
	s := strings.ToLower(symbol)
	streams := strings.Join([]string{
		s + TopicKlinePrefix + string(interval),
		s + TopicBookTicker,
		s + TopicAggTrade,
		s + TopicDepth,
	}, "/")
	return fmt.Sprintf("%s/stream?streams=%s", base, streams)
}

// CombinedStreamMessage is the envelope of every combined-stream message:
// the originating topic plus the raw payload, decoded per topic.
type CombinedStreamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// WSKlineEvent is the payload of a kline sub-stream message.
type WSKlineEvent struct {
	EventTime int64 `json:"E"`
	Kline     struct {
		StartTime     int64  `json:"t"` // bucket open time (ms)
		Open          string `json:"o"`
		High          string `json:"h"`
		Low           string `json:"l"`
		Close         string `json:"c"`
		Volume        string `json:"v"`
		Closed        bool   `json:"x"` // bucket finalized
		QuoteVolume   string `json:"q"`
		Trades        int64  `json:"n"`
		TakerBuyBase  string `json:"V"`
		TakerBuyQuote string `json:"Q"`
	} `json:"k"`
}

// WSBookTickerEvent is the payload of a bookTicker message.
type WSBookTickerEvent struct {
	UpdateID int64  `json:"u"`
	Symbol   string `json:"s"`
	BidPrice string `json:"b"`
	BidQty   string `json:"B"`
	AskPrice string `json:"a"`
	AskQty   string `json:"A"`
}

// WSAggTradeEvent is the payload of an aggTrade message.
type WSAggTradeEvent struct {
	ID         int64  `json:"a"`
	Price      string `json:"p"`
	Qty        string `json:"q"`
	TradeTime  int64  `json:"T"` // ms
	BuyerMaker bool   `json:"m"`
}

// WSDepthEvent is the payload of a partial-depth message: a full top-N
// window, not an incremental diff.
type WSDepthEvent struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}
