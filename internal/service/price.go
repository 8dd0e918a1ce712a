package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cointrack/internal/market"
	"cointrack/internal/models"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PriceProvider returns current USD prices for a set of coins. Coins without
// data are missing from the result.
type PriceProvider interface {
	Prices(ctx context.Context, coinIDs []string) (models.Prices, error)
}

// MarketLister returns the market-cap ranked coin listing.
type MarketLister interface {
	Markets(ctx context.Context, perPage int) ([]market.MarketCoin, error)
}

type PriceSource interface {
	MarketLister
	SimplePrices(ctx context.Context, ids []string) (models.Prices, error)
}

type PriceStore interface {
	UpsertPrice(ctx context.Context, coinID string, price decimal.Decimal, ts time.Time) error
	GetLatestPrices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error)
}

// CachedPriceService serves prices from a short-lived cache, then the market
// source, then the last stored price when the source is unavailable.
type CachedPriceService struct {
	source   PriceSource
	store    PriceStore
	cache    *cache.Cache
	listings *cache.Cache
	log      *logrus.Logger
	now      func() time.Time
}

func NewCachedPriceService(source PriceSource, store PriceStore, ttl time.Duration, log *logrus.Logger) *CachedPriceService {
	return &CachedPriceService{
		source:   source,
		store:    store,
		cache:    cache.New(ttl, 2*ttl),
		listings: cache.New(ttl, 2*ttl),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *CachedPriceService) Prices(ctx context.Context, coinIDs []string) (models.Prices, error) {
	out := models.Prices{}
	var missing []string
	for _, id := range dedupe(coinIDs) {
		if v, ok := p.cache.Get(id); ok {
			out[id] = v.(decimal.Decimal)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := p.source.SimplePrices(ctx, missing)
	if err != nil {
		p.log.Warnf("price fetch failed, using stored prices: %v", err)
		stored, serr := p.store.GetLatestPrices(ctx, missing)
		if serr != nil {
			return nil, fmt.Errorf("prices unavailable: %v; stored: %w", err, serr)
		}
		for id, price := range stored {
			out[id] = price
		}
		return out, nil
	}

	ts := p.now()
	for id, price := range fetched {
		p.cache.SetDefault(id, price)
		if err := p.store.UpsertPrice(ctx, id, price, ts); err != nil {
			p.log.Warnf("storing price for %s failed: %v", id, err)
		}
		out[id] = price
	}
	return out, nil
}

// Markets serves the coin listing from cache when fresh. Prices in a fetched
// listing also warm the per-coin price cache.
func (p *CachedPriceService) Markets(ctx context.Context, perPage int) ([]market.MarketCoin, error) {
	key := strconv.Itoa(perPage)
	if v, ok := p.listings.Get(key); ok {
		return v.([]market.MarketCoin), nil
	}
	coins, err := p.source.Markets(ctx, perPage)
	if err != nil {
		return nil, fmt.Errorf("coin markets: %w", err)
	}
	for _, c := range coins {
		if c.CurrentPrice.IsPositive() {
			p.cache.SetDefault(c.ID, c.CurrentPrice)
		}
	}
	p.listings.SetDefault(key, coins)
	return coins, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
