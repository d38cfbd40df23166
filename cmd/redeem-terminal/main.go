// Command redeem-terminal is the point-of-sale console for gift card
// redemption. It reads configuration from REDEEM_* environment variables,
// keeps the operator session in Redis and serves health, status and
// Prometheus metrics on REDEEM_OPS_ADDR.
//
// Run:
//
//	REDEEM_AUTH_URL=... REDEEM_API_BASE_URL=... \
//	REDEEM_MERCHANT_ID=... REDEEM_LOCATION_ID=... REDEEM_POS_ID=... \
//	go run ./cmd/redeem-terminal
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goRedeem "github.com/MrEthical07/goRedeem"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := newLogger(os.Getenv("LOG_LEVEL"))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("redeem-terminal: exiting", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := goRedeem.LoadConfig()
	if err != nil {
		return err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Credentials.RedisAddr},
		Password: cfg.Credentials.RedisPassword,
		DB:       cfg.Credentials.RedisDB,
	})
	defer func() { _ = rdb.Close() }()

	engine, err := goRedeem.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		WithAuditSink(goRedeem.NewSlogSink(logger.With("component", "audit"))).
		WithHTTPClient(&http.Client{Timeout: 30 * time.Second}).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	if err := engine.Ping(pingCtx); err != nil {
		logger.Warn("redeem-terminal: credential storage unreachable", "error", err)
	}
	cancel()

	opsAddr := os.Getenv("REDEEM_OPS_ADDR")
	if opsAddr == "" {
		opsAddr = "127.0.0.1:9090"
	}
	srv := &http.Server{
		Addr:              opsAddr,
		Handler:           newOpsRouter(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("redeem-terminal: ops server listening", "addr", opsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("redeem-terminal: ops server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("redeem-terminal: ready",
		"environment", cfg.Environment,
		"merchant_id", cfg.Merchant.MerchantID,
		"location", cfg.Merchant.LocationName,
	)

	err = newConsole(engine, os.Stdout).Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
