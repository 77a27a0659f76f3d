package binance

import "fmt"

// Interval is a spot kline interval as accepted by the Binance API.
type Interval string

const (
	Interval1s  Interval = "1s"
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

// validIntervals maps each interval to its bucket width in seconds.
// The monthly bucket uses a 30-day approximation; it is only used for
// display alignment, never for exact bucket math.
var validIntervals = map[Interval]int64{
	Interval1s:  1,
	Interval1m:  60,
	Interval3m:  3 * 60,
	Interval5m:  5 * 60,
	Interval15m: 15 * 60,
	Interval30m: 30 * 60,
	Interval1h:  3600,
	Interval2h:  2 * 3600,
	Interval4h:  4 * 3600,
	Interval6h:  6 * 3600,
	Interval8h:  8 * 3600,
	Interval12h: 12 * 3600,
	Interval1d:  86400,
	Interval3d:  3 * 86400,
	Interval1w:  7 * 86400,
	Interval1M:  30 * 86400,
}

// IsValid checks if the Interval is a valid predefined interval.
func (i Interval) IsValid() bool {
	_, ok := validIntervals[i]
	return ok
}

// Seconds returns the bucket width of the interval in seconds.
func (i Interval) Seconds() int64 {
	return validIntervals[i]
}

// ParseInterval parses a string into a valid Interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if !iv.IsValid() {
		return "", fmt.Errorf("invalid kline interval: %s", s)
	}
	return iv, nil
}
