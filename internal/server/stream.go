package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"marketdesk/pkg/binance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleTerminalStream serves a live terminal over SSE. Each subscriber
// gets its own session controller; the current view model is pushed on a
// fixed cadence until the client disconnects.
func (s *Server) handleTerminalStream(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	interval := binance.Interval1m
	if raw := c.Query("interval"); raw != "" {
		iv, err := binance.ParseInterval(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		interval = iv
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	term := s.newTerminal()
	defer term.Close()
	term.Select(symbol, interval)

	s.log.Info("terminal stream opened",
		zap.String("symbol", symbol), zap.String("interval", string(interval)))

	ticker := time.NewTicker(s.cfg.Terminal.ViewPushPeriod)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		if !s.pushView(c, flusher, term.View()) {
			return
		}
		select {
		case <-ctx.Done():
			s.log.Info("terminal stream closed", zap.String("symbol", symbol))
			return
		case <-ticker.C:
		}
	}
}

// pushView writes one view-model frame; false means the client is gone.
func (s *Server) pushView(c *gin.Context, flusher http.Flusher, vm any) bool {
	payload, err := json.Marshal(vm)
	if err != nil {
		s.log.Error("view marshal failed", zap.Error(err))
		return false
	}
	if _, err := c.Writer.WriteString("event: view\ndata: " + string(payload) + "\n\n"); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
