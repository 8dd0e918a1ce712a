package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"cointrack/internal/config"
	"cointrack/internal/database"
	"cointrack/internal/market"
	"cointrack/internal/portfolio"

	"github.com/sirupsen/logrus"
)

// backfill seeds price_history from CoinGecko market charts so history and
// fallback prices are available before the monitor has run.
func main() {
	coins := flag.String("coins", "", "comma separated coin ids (default: coins in the portfolio)")
	days := flag.Int("days", 30, "days of history to fetch")
	flag.Parse()

	cfg, err := config.Load(logrus.StandardLogger())
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	repo := database.New(db, logger)

	ctx := context.Background()
	var ids []string
	for _, id := range strings.Split(*coins, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		holdings := portfolio.NewEngine(repo, logger)
		if err := holdings.Load(ctx); err != nil {
			logger.Fatalf("load portfolio: %v", err)
		}
		ids = holdings.CoinIDs()
	}
	if len(ids) == 0 {
		logger.Info("nothing to backfill")
		return
	}

	client := market.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey, cfg.CoinGeckoRPS, logger)
	for _, id := range ids {
		points, err := client.MarketChart(ctx, id, *days)
		if err != nil {
			logger.Warnf("could not fetch history for %s: %v", id, err)
			continue
		}
		stored := 0
		for _, p := range points {
			if err := repo.UpsertPrice(ctx, id, p.PriceUSD, p.Timestamp); err != nil {
				logger.Warnf("could not insert price for %s at %s: %v", id, p.Timestamp.Format(time.RFC3339), err)
				continue
			}
			stored++
		}
		logger.Infof("backfilled %d points for %s", stored, id)
	}
}
