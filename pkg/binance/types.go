package binance

// ExchangeInfoResponse is the envelope returned by /exchangeInfo.
type ExchangeInfoResponse struct {
	Symbols []ExchangeSymbol `json:"symbols"`
}

// ExchangeSymbol describes one trading pair from /exchangeInfo.
type ExchangeSymbol struct {
	Symbol              string         `json:"symbol"`     // e.g., "BTCUSDT"
	Status              string         `json:"status"`     // "TRADING" when actively traded
	BaseAsset           string         `json:"baseAsset"`  // e.g., "BTC"
	QuoteAsset          string         `json:"quoteAsset"` // e.g., "USDT"
	BaseAssetPrecision  int            `json:"baseAssetPrecision"`
	QuoteAssetPrecision int            `json:"quoteAssetPrecision"`
	Filters             []SymbolFilter `json:"filters"`
}

// SymbolFilter carries the subset of exchange filter fields the terminal
// needs for price/quantity formatting.
type SymbolFilter struct {
	FilterType  string `json:"filterType"` // "PRICE_FILTER", "LOT_SIZE", "NOTIONAL", ...
	TickSize    string `json:"tickSize,omitempty"`
	StepSize    string `json:"stepSize,omitempty"`
	MinNotional string `json:"minNotional,omitempty"`
	MinQty      string `json:"minQty,omitempty"`
	MaxQty      string `json:"maxQty,omitempty"`
}

// Ticker24h is the full 24h rolling statistics payload from /ticker/24hr.
type Ticker24h struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	WeightedAvgPrice   string `json:"weightedAvgPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenTime           int64  `json:"openTime"`
	CloseTime          int64  `json:"closeTime"`
	Count              int64  `json:"count"`
}

// DepthResponse is an order-book depth snapshot from /depth.
// Levels are [price, qty] decimal-string pairs.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// rawAggTrade is the wire shape of one /aggTrades entry.
type rawAggTrade struct {
	ID         int64  `json:"a"` // aggregate trade id
	Price      string `json:"p"`
	Qty        string `json:"q"`
	TradeTime  int64  `json:"T"` // ms
	BuyerMaker bool   `json:"m"`
}

// AggTrade is a normalized aggregated trade.
type AggTrade struct {
	ID         int64   `json:"id"`
	Price      float64 `json:"price"`
	Qty        float64 `json:"qty"`
	Time       int64   `json:"time"` // ms
	BuyerMaker bool    `json:"isBuyerMaker"`
}

// AvgPriceResponse is the current average price from /avgPrice.
type AvgPriceResponse struct {
	Mins      int    `json:"mins"`
	Price     string `json:"price"`
	CloseTime int64  `json:"closeTime"`
}

// BookTickerResponse is the best bid/ask from /ticker/bookTicker.
type BookTickerResponse struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}
