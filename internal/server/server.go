// Package server exposes the dashboard HTTP API: aggregate snapshot proxy,
// losers board, news feed, asset detail, email digest and the SSE terminal
// stream.
//
// File layout:
//   - server.go: Server struct, dependencies and routing
//   - handlers.go: request handlers
//   - middleware.go: request id, logging, rate limiting
//   - stream.go: the SSE live-terminal endpoint
package server

import (
	"context"
	"net/http"
	"time"

	"marketdesk/config"
	"marketdesk/internal/mailer"
	"marketdesk/internal/memorystore"
	"marketdesk/internal/news"
	"marketdesk/internal/ratelimit"
	"marketdesk/internal/terminal"
	"marketdesk/pkg/binance"
	"marketdesk/pkg/coingecko"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	rest    *binance.RESTClient
	gecko   *coingecko.Client
	ath     *memorystore.ATHStore
	fetcher terminal.SnapshotFetcher
	opener  terminal.StreamOpener
	newsAgg *news.Aggregator
	limiter ratelimit.Limiter
	mail    *mailer.Mailer

	http *http.Server
}

func New(cfg *config.Config, log *zap.Logger, rest *binance.RESTClient, gecko *coingecko.Client,
	ath *memorystore.ATHStore,
	fetcher terminal.SnapshotFetcher, opener terminal.StreamOpener,
	newsAgg *news.Aggregator, limiter ratelimit.Limiter, mail *mailer.Mailer) *Server {

	s := &Server{
		cfg:     cfg,
		log:     log,
		rest:    rest,
		gecko:   gecko,
		ath:     ath,
		fetcher: fetcher,
		opener:  opener,
		newsAgg: newsAgg,
		limiter: limiter,
		mail:    mail,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.requestLogger())

	api := router.Group("/api")
	api.GET("/trade", s.handleTrade)
	api.GET("/losers", s.handleLosers)
	api.GET("/news", s.handleNews)
	api.GET("/asset", s.handleAsset)
	api.POST("/email-losers", s.rateLimited("email"), s.handleEmailLosers)
	api.GET("/terminal/stream", s.handleTerminalStream)

	router.GET("/healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("http server listening", zap.String("addr", s.cfg.Server.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// newTerminal builds a live terminal controller for one SSE subscriber.
func (s *Server) newTerminal() *terminal.Controller {
	return terminal.NewController(s.fetcher, s.opener, s.cfg.Terminal, s.log)
}
