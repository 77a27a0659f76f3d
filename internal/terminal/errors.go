package terminal

import "errors"

var (
	// ErrSymbolNotFound means the requested pair does not exist or is not
	// actively trading. Fatal to the session.
	ErrSymbolNotFound = errors.New("symbol not found or not actively trading")

	// ErrSnapshotUnavailable means the mandatory 24h-statistics fetch
	// failed, so no meaningful session can start. Not auto-retried; the
	// next explicit Select starts over.
	ErrSnapshotUnavailable = errors.New("market snapshot unavailable")
)
