package terminal

import (
	"context"
	"errors"
	"sync"

	"marketdesk/config"
	"marketdesk/pkg/binance"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller is the session lifecycle state machine:
//
//	idle → loading → live → error
//
// with reconnecting visible as ConnConnecting while live. At most one
// session is ever active: Select synchronously invalidates the previous
// session (new id, fetch cancel, stream close) before starting the next
// snapshot fetch, so a superseded fetch or a stale stream event can never
// touch the current projections.
type Controller struct {
	fetcher SnapshotFetcher
	streams StreamOpener
	cfg     config.TerminalConfig
	log     *zap.Logger

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	state    State
	errMsg   string
	conn     ConnStatus
	session  uuid.UUID
	cancel   context.CancelFunc
	handle   StreamHandle
	symbol   string
	interval binance.Interval

	// Projections, owned exclusively by the active session.
	pair      TradingPair
	stats     *Stats24h
	avgPrice  *AvgPrice
	quote     *Quote
	lastPrice float64
	series    []Candle
	book      OrderBook
	tape      []Trade
	siblings  []PairRef
}

func NewController(fetcher SnapshotFetcher, streams StreamOpener, cfg config.TerminalConfig, log *zap.Logger) *Controller {
	c := &Controller{
		fetcher: fetcher,
		streams: streams,
		cfg:     cfg,
		log:     log,
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
		state:   StateIdle,
		conn:    ConnClosed,
	}
	go c.loop()
	return c
}

// Select switches the terminal to a new (symbol, interval). The previous
// session is torn down before the new snapshot fetch begins; rapid
// repeated calls are safe and only the last selection survives.
func (c *Controller) Select(symbol string, interval binance.Interval) {
	c.mu.Lock()

	c.teardownLocked()

	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	c.session = id
	c.cancel = cancel
	c.symbol = symbol
	c.interval = interval
	c.state = StateLoading
	c.errMsg = ""
	c.conn = ConnClosed
	c.resetProjectionsLocked()

	c.mu.Unlock()

	go c.load(ctx, id, symbol, interval)
}

// load runs the snapshot fetch for session id and, if the session is still
// current when it resolves, seeds the projections and opens the stream.
func (c *Controller) load(ctx context.Context, id uuid.UUID, symbol string, interval binance.Interval) {
	snap, err := c.fetcher.Fetch(ctx, symbol, interval)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != id {
		// Superseded by a newer Select; discard the result.
		return
	}

	if err != nil {
		c.state = StateError
		switch {
		case errors.Is(err, ErrSymbolNotFound):
			c.errMsg = "symbol not found or not actively trading"
		default:
			c.errMsg = "failed to load market data"
		}
		c.log.Warn("session load failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	c.pair = snap.Pair
	stats := snap.Stats
	c.stats = &stats
	c.avgPrice = snap.AvgPrice
	c.quote = snap.Quote
	c.lastPrice = stats.LastPrice
	c.series = snap.Candles
	c.book = ApplyDepth(snap.Book, c.cfg.BookDepth)
	c.tape = snap.Tape
	c.siblings = snap.Siblings

	c.state = StateLive
	c.handle = c.streams.Open(id, c.desired, c.events)
}

// desired reports the latest selection; used by the stream session at
// every (re)subscribe.
func (c *Controller) desired() (string, binance.Interval) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.symbol, c.interval
}

// loop folds stream events into the projections in arrival order.
func (c *Controller) loop() {
	for {
		select {
		case ev := <-c.events:
			c.apply(ev)
		case <-c.done:
			return
		}
	}
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.Session != c.session {
		return // stale session, already torn down
	}

	switch ev.Kind {
	case EventCandle:
		c.series = ApplyCandle(c.series, *ev.Candle)
		c.lastPrice = ev.Candle.Close
	case EventQuote:
		q := ApplyQuote(quoteOrZero(c.quote), *ev.Quote)
		c.quote = &q
	case EventTrade:
		c.tape = ApplyTrade(c.tape, *ev.Trade, c.cfg.TapeCapacity)
		c.lastPrice = ev.Trade.Price
	case EventDepth:
		c.book = ApplyDepth(*ev.Depth, c.cfg.BookDepth)
	case EventStatus:
		c.conn = ev.Status
	}
}

// View returns an immutable snapshot of the current state for rendering.
func (c *Controller) View() ViewModel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vm := ViewModel{
		Symbol:     c.symbol,
		Interval:   c.interval,
		State:      c.state,
		ConnStatus: c.conn,
		Error:      c.errMsg,
		Pair:       c.pair,
		LastPrice:  c.lastPrice,
		Candles:    append([]Candle(nil), c.series...),
		Book: OrderBook{
			Bids: append([]BookLevel(nil), c.book.Bids...),
			Asks: append([]BookLevel(nil), c.book.Asks...),
		},
		Tape:     append([]Trade(nil), c.tape...),
		Siblings: append([]PairRef(nil), c.siblings...),
	}
	if c.stats != nil {
		s := *c.stats
		vm.Stats = &s
	}
	if c.avgPrice != nil {
		a := *c.avgPrice
		vm.AvgPrice = &a
	}
	if c.quote != nil {
		q := *c.quote
		vm.Quote = &q
	}
	return vm
}

// Close tears down the active session and stops the event loop.
func (c *Controller) Close() {
	c.mu.Lock()
	c.teardownLocked()
	c.session = uuid.Nil
	c.state = StateIdle
	c.mu.Unlock()

	c.stopOnce.Do(func() { close(c.done) })
}

// teardownLocked cancels the in-flight fetch and closes the stream of the
// current session. Callers hold c.mu.
func (c *Controller) teardownLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.handle != nil {
		c.handle.Close()
		c.handle = nil
	}
}

func (c *Controller) resetProjectionsLocked() {
	c.pair = TradingPair{}
	c.stats = nil
	c.avgPrice = nil
	c.quote = nil
	c.lastPrice = 0
	c.series = nil
	c.book = OrderBook{}
	c.tape = nil
	c.siblings = nil
}

func quoteOrZero(q *Quote) Quote {
	if q == nil {
		return Quote{}
	}
	return *q
}
