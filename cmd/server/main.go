package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cointrack/internal/alerts"
	"cointrack/internal/config"
	"cointrack/internal/database"
	"cointrack/internal/handlers"
	"cointrack/internal/market"
	"cointrack/internal/notify"
	"cointrack/internal/portfolio"
	"cointrack/internal/realtime"
	"cointrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(logrus.StandardLogger())
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	repo := database.New(db, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := realtime.NewHub(logger)

	// A nil notifier turns alert evaluation off entirely.
	var notifier alerts.Notifier
	if cfg.NotificationsEnabled {
		fanout := notify.NewFanout(logger, notify.NewLogNotifier(logger), hub)
		if cfg.NotifyWebhookURL != "" {
			fanout.Add(notify.NewWebhookNotifier(cfg.NotifyWebhookURL))
		}
		notifier = fanout
	}

	holdings := portfolio.NewEngine(repo, logger)
	if err := holdings.Load(ctx); err != nil {
		logger.Fatalf("load portfolio: %v", err)
	}
	priceAlerts := alerts.NewEngine(repo, notifier, cfg.AlertMode, logger)
	if err := priceAlerts.Load(ctx); err != nil {
		logger.Fatalf("load alerts: %v", err)
	}

	client := market.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey, cfg.CoinGeckoRPS, logger)
	prices := service.NewCachedPriceService(client, repo, cfg.PriceCacheTTL, logger)
	monitor := service.NewMonitor(prices, holdings, priceAlerts, hub, logger)
	monitor.Start(ctx, cfg.PriceUpdateInterval)

	h := handlers.NewHandler(holdings, priceAlerts, prices, prices, monitor, repo, hub, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("server starting on :%s (db=%s, alert mode=%s)", cfg.Port, cfg.DatabaseDriver, cfg.AlertMode)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server failed: %v", err)
	}
}
