package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketdesk/config"
	"marketdesk/internal/mailer"
	"marketdesk/internal/memorystore"
	"marketdesk/internal/news"
	"marketdesk/internal/ratelimit"
	"marketdesk/internal/server"
	"marketdesk/internal/terminal"
	"marketdesk/logger"
	"marketdesk/pkg/binance"
	"marketdesk/pkg/coingecko"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("starting marketdesk",
		zap.String("addr", cfg.Server.Addr),
		zap.String("binance_rest", cfg.Binance.REST.BaseURL),
		zap.String("binance_ws", cfg.Binance.WS.URL),
	)

	rest := binance.NewRESTClient(cfg.Binance.REST.BaseURL, cfg.Binance.REST.Timeout)
	gecko := coingecko.NewClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout)

	dir := memorystore.NewDirectory(rest, memorystore.DirectoryTTL)
	ath := memorystore.NewATHStore(rest)

	fetcher := terminal.NewBinanceFetcher(rest, dir, cfg.Terminal, zlog)
	opener := &terminal.WSOpener{
		URL:              cfg.Binance.WS.URL,
		HandshakeTimeout: cfg.Binance.WS.Timeout,
		ReconnectBase:    cfg.Terminal.ReconnectBase,
		ReconnectMax:     cfg.Terminal.ReconnectMax,
		Log:              zlog,
	}

	var rdb *redis.Client
	if cfg.RateLimit.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.RateLimit.RedisAddr,
			DB:   cfg.RateLimit.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zlog.Warn("redis unreachable, using in-memory rate limiter", zap.Error(err))
			rdb = nil
		}
		cancel()
	}
	limiter := ratelimit.New(rdb, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	newsAgg := news.NewAggregator(cfg.News)
	mail := mailer.New(cfg.SMTP)
	if !mail.Enabled() {
		zlog.Info("smtp not configured, email digest disabled")
	}

	srv := server.New(cfg, zlog, rest, gecko, ath, fetcher, opener, newsAgg, limiter, mail)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zlog.Fatal("http server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("marketdesk stopped")
}
