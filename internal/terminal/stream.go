package terminal

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"marketdesk/pkg/binance"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DesiredFunc reports the currently desired (symbol, interval). The stream
// session calls it at every (re)subscribe so a reconnect after an offline
// interval change picks up the latest selection instead of a stale capture.
type DesiredFunc func() (string, binance.Interval)

// StreamOpener opens one live stream session tagged with a session id.
type StreamOpener interface {
	Open(session uuid.UUID, desired DesiredFunc, events chan<- Event) StreamHandle
}

// StreamHandle controls an open stream session. Close is idempotent and
// suppresses all further event emission from the handle.
type StreamHandle interface {
	Close()
}

// WSOpener dials the Binance combined stream with gorilla/websocket and
// reconnects with exponential backoff on abnormal disconnects.
type WSOpener struct {
	URL              string
	HandshakeTimeout time.Duration
	ReconnectBase    time.Duration
	ReconnectMax     time.Duration
	Log              *zap.Logger
}

func (o *WSOpener) Open(session uuid.UUID, desired DesiredFunc, events chan<- Event) StreamHandle {
	s := &wsSession{
		id:      session,
		opener:  o,
		desired: desired,
		events:  events,
		done:    make(chan struct{}),
		log:     o.Log.With(zap.String("session", session.String())),
	}
	go s.run()
	return s
}

type wsSession struct {
	id      uuid.UUID
	opener  *WSOpener
	desired DesiredFunc
	events  chan<- Event
	log     *zap.Logger

	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// run owns the connect/read/reconnect loop for the session's lifetime.
// Backoff starts at ReconnectBase, doubles per consecutive failure, caps
// at ReconnectMax and resets after a successful open.
func (s *wsSession) run() {
	fails := 0

	for {
		if s.isClosed() {
			return
		}

		symbol, interval := s.desired()
		url := binance.StreamURL(s.opener.URL, symbol, interval)

		s.emit(Event{Session: s.id, Kind: EventStatus, Status: ConnConnecting})

		dialer := websocket.Dialer{HandshakeTimeout: s.opener.HandshakeTimeout}
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			s.log.Warn("stream dial failed", zap.String("url", url), zap.Error(err))
			fails++
			s.emit(Event{Session: s.id, Kind: EventStatus, Status: ConnClosed})
			if !s.wait(s.backoff(fails)) {
				return
			}
			continue
		}

		s.setConn(conn)
		if s.isClosed() {
			// Close raced the dial; drop the fresh connection.
			conn.Close()
			return
		}

		fails = 0
		s.log.Info("stream connected", zap.String("symbol", symbol), zap.String("interval", string(interval)))
		s.emit(Event{Session: s.id, Kind: EventStatus, Status: ConnOpen})

		s.readLoop(conn)

		if s.isClosed() {
			return
		}
		s.emit(Event{Session: s.id, Kind: EventStatus, Status: ConnClosed})
		fails++
		if !s.wait(s.backoff(fails)) {
			return
		}
	}
}

func (s *wsSession) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !s.isClosed() {
				s.log.Warn("stream read error", zap.Error(err))
			}
			return
		}
		s.handleMessage(msg)
	}
}

// handleMessage decodes one combined-stream message and emits the matching
// typed event. Unparseable messages are dropped, never fatal.
func (s *wsSession) handleMessage(msg []byte) {
	var env binance.CombinedStreamMessage
	if err := json.Unmarshal(msg, &env); err != nil {
		s.log.Debug("malformed stream message", zap.Error(err))
		return
	}

	switch {
	case strings.Contains(env.Stream, binance.TopicKlinePrefix):
		var ev binance.WSKlineEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Debug("malformed kline payload", zap.Error(err))
			return
		}
		k := ev.Kline
		s.emit(Event{Session: s.id, Kind: EventCandle, Candle: &Candle{
			OpenTime:      k.StartTime / 1000,
			Open:          parseFloatOrZero(k.Open),
			High:          parseFloatOrZero(k.High),
			Low:           parseFloatOrZero(k.Low),
			Close:         parseFloatOrZero(k.Close),
			Volume:        parseFloatOrZero(k.Volume),
			QuoteVolume:   parseFloatOrZero(k.QuoteVolume),
			Trades:        k.Trades,
			TakerBuyBase:  parseFloatOrZero(k.TakerBuyBase),
			TakerBuyQuote: parseFloatOrZero(k.TakerBuyQuote),
			Closed:        k.Closed,
		}})

	case strings.HasSuffix(env.Stream, binance.TopicBookTicker):
		var ev binance.WSBookTickerEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Debug("malformed bookTicker payload", zap.Error(err))
			return
		}
		s.emit(Event{Session: s.id, Kind: EventQuote, Quote: &Quote{
			BidPrice: parseFloatOrZero(ev.BidPrice),
			BidQty:   parseFloatOrZero(ev.BidQty),
			AskPrice: parseFloatOrZero(ev.AskPrice),
			AskQty:   parseFloatOrZero(ev.AskQty),
		}})

	case strings.HasSuffix(env.Stream, binance.TopicAggTrade):
		var ev binance.WSAggTradeEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Debug("malformed aggTrade payload", zap.Error(err))
			return
		}
		s.emit(Event{Session: s.id, Kind: EventTrade, Trade: &Trade{
			ID:         ev.ID,
			Price:      parseFloatOrZero(ev.Price),
			Qty:        parseFloatOrZero(ev.Qty),
			Time:       ev.TradeTime,
			BuyerMaker: ev.BuyerMaker,
		}})

	case strings.HasSuffix(env.Stream, binance.TopicDepth):
		var ev binance.WSDepthEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			s.log.Debug("malformed depth payload", zap.Error(err))
			return
		}
		book := OrderBook{}
		for _, lv := range binance.ParseLevels(ev.Bids) {
			book.Bids = append(book.Bids, BookLevel{Price: lv[0], Qty: lv[1]})
		}
		for _, lv := range binance.ParseLevels(ev.Asks) {
			book.Asks = append(book.Asks, BookLevel{Price: lv[0], Qty: lv[1]})
		}
		s.emit(Event{Session: s.id, Kind: EventDepth, Depth: &book})
	}
}

// Close terminates the session. Safe to call multiple times; the
// controller additionally discards any events already in flight by their
// session tag.
func (s *wsSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
}

func (s *wsSession) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *wsSession) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// wait sleeps for d unless the session closes first.
func (s *wsSession) wait(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.done:
		return false
	}
}

func (s *wsSession) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// backoff returns the delay before reconnect attempt number fails (1-based):
// base, 2x, 4x, ... capped at ReconnectMax. A cap below the base (including
// an unset zero) degrades to a flat base delay rather than a busy loop.
func (s *wsSession) backoff(fails int) time.Duration {
	d := s.opener.ReconnectBase
	limit := s.opener.ReconnectMax
	if limit < d {
		limit = d
	}
	for i := 1; i < fails; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return d
}
