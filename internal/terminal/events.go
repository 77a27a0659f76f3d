package terminal

import "github.com/google/uuid"

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	EventCandle EventKind = iota
	EventQuote
	EventTrade
	EventDepth
	EventStatus
)

// Event is one normalized stream occurrence. Every event is tagged with
// the id of the session that produced it; the controller discards events
// whose tag no longer matches the active session, which is what makes
// closing a session observable synchronously even though the transport
// shuts down asynchronously.
type Event struct {
	Session uuid.UUID
	Kind    EventKind

	Candle *Candle
	Quote  *Quote
	Trade  *Trade
	Depth  *OrderBook // full top-N window, untruncated and unsorted
	Status ConnStatus
}
