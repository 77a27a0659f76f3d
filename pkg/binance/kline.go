package binance

import "strconv"

// Kline is a parsed candlestick row from /klines or /uiKlines.
// Times are unix seconds; the wire format delivers milliseconds.
type Kline struct {
	OpenTime      int64   `json:"time"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	CloseTime     int64   `json:"closeTime"`
	QuoteVolume   float64 `json:"quoteVolume"`
	Trades        int64   `json:"trades"`
	TakerBuyBase  float64 `json:"takerBuyBase"`
	TakerBuyQuote float64 `json:"takerBuyQuote"`
}

// ParseKlineRows converts raw kline rows (heterogeneous JSON arrays) into
// []Kline. Incomplete or unparseable rows are skipped rather than failing
// the whole batch.
func ParseKlineRows(raw [][]any) []Kline {
	out := make([]Kline, 0, len(raw))

	for _, row := range raw {
		if len(row) < 11 {
			continue // skip incomplete row
		}

		openTime, ok := asInt64(row[0])
		if !ok {
			continue
		}
		closeTime, ok := asInt64(row[6])
		if !ok {
			continue
		}
		trades, ok := asInt64(row[8])
		if !ok {
			continue
		}

		var vals [8]float64
		bad := false
		for i, idx := range []int{1, 2, 3, 4, 5, 7, 9, 10} {
			v, ok := asFloat64(row[idx])
			if !ok {
				bad = true
				break
			}
			vals[i] = v
		}
		if bad {
			continue
		}

		out = append(out, Kline{
			OpenTime:      openTime / 1000,
			Open:          vals[0],
			High:          vals[1],
			Low:           vals[2],
			Close:         vals[3],
			Volume:        vals[4],
			CloseTime:     closeTime / 1000,
			QuoteVolume:   vals[5],
			Trades:        trades,
			TakerBuyBase:  vals[6],
			TakerBuyQuote: vals[7],
		})
	}
	return out
}

// asFloat64 accepts the two encodings Binance uses for numeric fields:
// JSON numbers and decimal strings.
func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ParseLevels converts [price, qty] decimal-string pairs into float pairs,
// dropping malformed entries.
func ParseLevels(raw [][]string) [][2]float64 {
	out := make([][2]float64, 0, len(raw))
	for _, lv := range raw {
		if len(lv) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(lv[0], 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(lv[1], 64)
		if err != nil {
			continue
		}
		out = append(out, [2]float64{price, qty})
	}
	return out
}
