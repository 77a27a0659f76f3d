package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketdesk/internal/losers"
	"marketdesk/internal/news"
	"marketdesk/internal/terminal"
	"marketdesk/pkg/binance"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleTrade serves the aggregate snapshot for one (symbol, interval):
// pair metadata, 24h stats, candles, depth, tape and siblings in a single
// response, the same state a fresh terminal session starts from.
func (s *Server) handleTrade(c *gin.Context) {
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

	snap, err := s.fetcher.Fetch(c.Request.Context(), symbol, interval)
	if err != nil {
		switch {
		case errors.Is(err, terminal.ErrSymbolNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "symbol not found or not actively trading"})
		default:
			s.log.Warn("trade snapshot failed", zap.String("symbol", symbol), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load market data"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pair":     snap.Pair,
		"stats24h": snap.Stats,
		"avgPrice": snap.AvgPrice,
		"quote":    snap.Quote,
		"candles":  snap.Candles,
		"book":     snap.Book,
		"tape":     snap.Tape,
		"siblings": snap.Siblings,
		"interval": interval,
	})
}

// handleLosers serves the worst 24h performers board.
func (s *Server) handleLosers(c *gin.Context) {
	p := losers.DefaultParams()
	if q := c.Query("quote"); q != "" {
		p.Quote = q
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 250 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-250"})
			return
		}
		p.Limit = n
	}
	if raw := c.Query("minQuoteVolume"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minQuoteVolume"})
			return
		}
		p.MinQuoteVolume = v
	}
	if raw := c.Query("includeLeveraged"); raw == "true" {
		p.ExcludeLeveraged = false
	}

	rows, err := losers.Compute(c.Request.Context(), s.rest, p)
	if err != nil {
		s.log.Warn("losers fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load ticker data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"losers":    rows,
		"count":     len(rows),
		"updatedAt": time.Now().UTC(),
	})
}

// handleNews serves the aggregated news feed, optionally filtered by
// comma-separated keywords and restricted to one source.
func (s *Server) handleNews(c *gin.Context) {
	q := news.Query{
		Limit:    40,
		SourceID: c.Query("source"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-200"})
			return
		}
		q.Limit = n
	}
	for _, kw := range strings.Split(c.Query("keywords"), ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			q.Keywords = append(q.Keywords, kw)
		}
	}

	items := s.newsAgg.Fetch(c.Request.Context(), q)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// handleAsset enriches an asset with CoinGecko coin detail and the
// exchange all-time high computed from daily candles. Both halves degrade
// independently; a response with neither is a 404.
func (s *Server) handleAsset(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if query == "" && symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query or symbol is required"})
		return
	}
	if query == "" {
		query = symbol
	}
	ctx := c.Request.Context()

	resp := gin.H{}

	coins, err := s.gecko.Search(ctx, query)
	if err != nil {
		s.log.Warn("coingecko search failed", zap.String("query", query), zap.Error(err))
	} else if len(coins) > 0 {
		detail, err := s.gecko.GetCoin(ctx, coins[0].ID)
		if err != nil {
			s.log.Warn("coingecko detail failed", zap.String("id", coins[0].ID), zap.Error(err))
		} else if detail != nil {
			resp["coin"] = detail
		}
	}

	if symbol != "" {
		if ath, err := s.ath.Get(ctx, symbol); err != nil {
			s.log.Warn("ath scan failed", zap.String("symbol", symbol), zap.Error(err))
		} else if ath.ScannedDays > 0 {
			resp["exchangeATH"] = ath
		}
	}

	if len(resp) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type emailLosersRequest struct {
	Email string `json:"email" binding:"required,email"`
	Quote string `json:"quote"`
	Limit int    `json:"limit"`
}

// handleEmailLosers sends the losers digest to one recipient. The route is
// rate limited per client IP by middleware.
func (s *Server) handleEmailLosers(c *gin.Context) {
	var req emailLosersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}
	if !s.mail.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery is not configured"})
		return
	}

	p := losers.DefaultParams()
	if req.Quote != "" {
		p.Quote = req.Quote
	}
	if req.Limit > 0 && req.Limit <= 100 {
		p.Limit = req.Limit
	}

	rows, err := losers.Compute(c.Request.Context(), s.rest, p)
	if err != nil {
		s.log.Warn("losers fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load ticker data"})
		return
	}

	if err := s.mail.SendDigest(req.Email, rows); err != nil {
		s.log.Error("digest send failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send digest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true, "rows": len(rows)})
}
