package memorystore

import (
	"context"
	"sync"
	"time"

	"marketdesk/pkg/binance"
)

const (
	athTTL       = 24 * time.Hour
	athMaxPages  = 6
	athPageLimit = 1000
)

// ATHResult is the outcome of scanning daily candles for the all-time
// high. ATH is zero when no candles were found.
type ATHResult struct {
	ATH         float64 `json:"ath"`
	ATHTime     int64   `json:"athTime"` // unix seconds
	ScannedDays int     `json:"scannedDays"`
}

type athEntry struct {
	value     ATHResult
	expiresAt time.Time
}

// ATHStore computes and caches the all-time high per symbol by paging
// daily klines backwards. One day of TTL keeps the scan off the hot path.
type ATHStore struct {
	rest *binance.RESTClient

	mu      sync.Mutex
	entries map[string]athEntry
}

func NewATHStore(rest *binance.RESTClient) *ATHStore {
	return &ATHStore{
		rest:    rest,
		entries: make(map[string]athEntry),
	}
}

// Get returns the cached ATH for symbol, computing it on a miss.
func (s *ATHStore) Get(ctx context.Context, symbol string) (ATHResult, error) {
	s.mu.Lock()
	if e, ok := s.entries[symbol]; ok && time.Now().Before(e.expiresAt) {
		s.mu.Unlock()
		return e.value, nil
	}
	s.mu.Unlock()

	result, err := s.compute(ctx, symbol)
	if err != nil {
		return ATHResult{}, err
	}

	s.mu.Lock()
	s.entries[symbol] = athEntry{value: result, expiresAt: time.Now().Add(athTTL)}
	s.mu.Unlock()

	return result, nil
}

// compute pages daily klines backwards from now, tracking the highest
// high seen. Bounded at athMaxPages pages of athPageLimit candles.
func (s *ATHStore) compute(ctx context.Context, symbol string) (ATHResult, error) {
	var (
		endTime int64 // ms; zero means "latest"
		best    float64
		bestAt  int64
		scanned int
	)

	for page := 0; page < athMaxPages; page++ {
		klines, err := s.rest.GetKlines(ctx, symbol, binance.Interval1d, athPageLimit, 0, endTime)
		if err != nil {
			return ATHResult{}, err
		}
		if len(klines) == 0 {
			break
		}
		scanned += len(klines)

		for _, k := range klines {
			if k.High > best {
				best = k.High
				bestAt = k.OpenTime
			}
		}

		// Page backwards: next window ends just before the earliest open.
		endTime = klines[0].OpenTime*1000 - 1
		if endTime <= 0 {
			break
		}
	}

	if scanned == 0 {
		return ATHResult{}, nil
	}
	return ATHResult{ATH: best, ATHTime: bestAt, ScannedDays: scanned}, nil
}
