package terminal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"marketdesk/config"
	"marketdesk/pkg/binance"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fetcherFunc func(ctx context.Context, symbol string, interval binance.Interval) (*Snapshot, error)

func (f fetcherFunc) Fetch(ctx context.Context, symbol string, interval binance.Interval) (*Snapshot, error) {
	return f(ctx, symbol, interval)
}

// fakeOpener records every Open call and hands the test the event channel
// so it can inject tagged events directly.
type fakeOpener struct {
	mu       sync.Mutex
	sessions []uuid.UUID
	events   chan<- Event
	handles  []*fakeHandle
}

func (o *fakeOpener) Open(session uuid.UUID, desired DesiredFunc, events chan<- Event) StreamHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions = append(o.sessions, session)
	o.events = events
	h := &fakeHandle{}
	o.handles = append(o.handles, h)
	return h
}

func (o *fakeOpener) lastSession() uuid.UUID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessions[len(o.sessions)-1]
}

func (o *fakeOpener) opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

func (o *fakeOpener) emit(ev Event) {
	o.mu.Lock()
	ch := o.events
	o.mu.Unlock()
	ch <- ev
}

type fakeHandle struct {
	mu     sync.Mutex
	closed bool
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *fakeHandle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func testTerminalConfig() config.TerminalConfig {
	return config.TerminalConfig{
		CandleLimit:  500,
		DepthLimit:   50,
		BookDepth:    20,
		TapeCapacity: 3,
		TradesLimit:  80,
	}
}

func snapshotFor(symbol string) *Snapshot {
	return &Snapshot{
		Pair:  TradingPair{Symbol: symbol, BaseAsset: "BTC", QuoteAsset: "USDT"},
		Stats: Stats24h{LastPrice: 50000},
		Candles: []Candle{
			{OpenTime: 100, Close: 49000, Closed: true},
			{OpenTime: 160, Close: 50000, Closed: true},
		},
		Book: OrderBook{
			Bids: []BookLevel{{Price: 49999, Qty: 1}},
			Asks: []BookLevel{{Price: 50001, Qty: 1}},
		},
		Tape: []Trade{{ID: 7, Price: 50000}},
	}
}

func waitLive(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.View().State == StateLive
	}, 2*time.Second, 5*time.Millisecond)
}

func TestControllerSelectGoesLive(t *testing.T) {
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("BTCUSDT", binance.Interval1m)
	waitLive(t, c)

	vm := c.View()
	assert.Equal(t, "BTCUSDT", vm.Symbol)
	assert.Equal(t, binance.Interval1m, vm.Interval)
	require.NotNil(t, vm.Stats)
	assert.Equal(t, float64(50000), vm.Stats.LastPrice)
	assert.Equal(t, float64(50000), vm.LastPrice)
	assert.Len(t, vm.Candles, 2)
	assert.Len(t, vm.Tape, 1)
	assert.Equal(t, 1, opener.opens())
}

func TestControllerSupersededSelectDiscarded(t *testing.T) {
	release := make(chan struct{})
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		if symbol == "SLOWUSDT" {
			<-release
		}
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("SLOWUSDT", binance.Interval1m)
	c.Select("FASTUSDT", binance.Interval5m)
	waitLive(t, c)

	// Let the superseded fetch resolve; it must not touch the projections
	// or open a second stream.
	close(release)
	time.Sleep(50 * time.Millisecond)

	vm := c.View()
	assert.Equal(t, "FASTUSDT", vm.Symbol)
	assert.Equal(t, "FASTUSDT", vm.Pair.Symbol)
	assert.Equal(t, 1, opener.opens())
}

func TestControllerDropsStaleSessionEvents(t *testing.T) {
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("BTCUSDT", binance.Interval1m)
	waitLive(t, c)
	oldSession := opener.lastSession()

	c.Select("ETHUSDT", binance.Interval1m)
	waitLive(t, c)
	newSession := opener.lastSession()
	require.NotEqual(t, oldSession, newSession)

	// A late event from the torn-down session must be ignored.
	opener.emit(Event{Session: oldSession, Kind: EventTrade, Trade: &Trade{ID: 99, Price: 1}})
	// An event from the live session applies.
	opener.emit(Event{Session: newSession, Kind: EventTrade, Trade: &Trade{ID: 100, Price: 2}})

	require.Eventually(t, func() bool {
		vm := c.View()
		return len(vm.Tape) > 1 && vm.Tape[0].ID == 100
	}, 2*time.Second, 5*time.Millisecond)

	vm := c.View()
	for _, tr := range vm.Tape {
		assert.NotEqual(t, int64(99), tr.ID)
	}
	assert.Equal(t, float64(2), vm.LastPrice)
}

func TestControllerEventFolding(t *testing.T) {
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("BTCUSDT", binance.Interval1m)
	waitLive(t, c)
	session := opener.lastSession()

	opener.emit(Event{Session: session, Kind: EventCandle, Candle: &Candle{OpenTime: 160, Close: 50100}})
	opener.emit(Event{Session: session, Kind: EventQuote, Quote: &Quote{BidPrice: 50099, AskPrice: 50101}})
	opener.emit(Event{Session: session, Kind: EventStatus, Status: ConnOpen})

	require.Eventually(t, func() bool {
		return c.View().ConnStatus == ConnOpen
	}, 2*time.Second, 5*time.Millisecond)

	vm := c.View()
	require.Len(t, vm.Candles, 2)
	assert.Equal(t, float64(50100), vm.Candles[1].Close)
	assert.Equal(t, float64(50100), vm.LastPrice)
	require.NotNil(t, vm.Quote)
	assert.Equal(t, float64(50099), vm.Quote.BidPrice)
}

func TestControllerLoadErrorStates(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "unknown symbol",
			err:     fmt.Errorf("%w: NOPEUSDT", ErrSymbolNotFound),
			wantMsg: "symbol not found or not actively trading",
		},
		{
			name:    "snapshot unavailable",
			err:     fmt.Errorf("%w: 24h stats: boom", ErrSnapshotUnavailable),
			wantMsg: "failed to load market data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := &fakeOpener{}
			fetch := fetcherFunc(func(_ context.Context, _ string, _ binance.Interval) (*Snapshot, error) {
				return nil, tt.err
			})

			c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
			defer c.Close()

			c.Select("NOPEUSDT", binance.Interval1m)
			require.Eventually(t, func() bool {
				return c.View().State == StateError
			}, 2*time.Second, 5*time.Millisecond)

			vm := c.View()
			assert.Equal(t, tt.wantMsg, vm.Error)
			assert.Equal(t, 0, opener.opens())
		})
	}
}

func TestControllerSelectCancelsInFlightFetch(t *testing.T) {
	canceled := make(chan struct{})
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(ctx context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		if symbol == "SLOWUSDT" {
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("SLOWUSDT", binance.Interval1m)
	c.Select("FASTUSDT", binance.Interval1m)

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded fetch was not canceled")
	}
	waitLive(t, c)
	assert.Equal(t, "FASTUSDT", c.View().Symbol)
}

func TestControllerCloseTearsDownStream(t *testing.T) {
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	c.Select("BTCUSDT", binance.Interval1m)
	waitLive(t, c)

	c.Close()

	opener.mu.Lock()
	handle := opener.handles[len(opener.handles)-1]
	opener.mu.Unlock()
	assert.True(t, handle.isClosed())
	assert.Equal(t, StateIdle, c.View().State)
}

func TestControllerReconnectReadsLatestDesired(t *testing.T) {
	opener := &fakeOpener{}
	fetch := fetcherFunc(func(_ context.Context, symbol string, _ binance.Interval) (*Snapshot, error) {
		return snapshotFor(symbol), nil
	})

	c := NewController(fetch, opener, testTerminalConfig(), zap.NewNop())
	defer c.Close()

	c.Select("BTCUSDT", binance.Interval5m)
	waitLive(t, c)

	sym, iv := c.desired()
	assert.Equal(t, "BTCUSDT", sym)
	assert.Equal(t, binance.Interval5m, iv)
}
