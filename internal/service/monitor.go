package service

import (
	"context"
	"time"

	"cointrack/internal/alerts"
	"cointrack/internal/portfolio"

	"github.com/sirupsen/logrus"
)

// Broadcaster pushes a JSON-encodable event to connected clients.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type PricesEvent struct {
	Type    string            `json:"type"`
	Summary portfolio.Summary `json:"summary"`
}

// Monitor periodically refreshes prices for every held or watched coin and
// runs alert evaluation against them.
type Monitor struct {
	prices    PriceProvider
	portfolio *portfolio.Engine
	alerts    *alerts.Engine
	events    Broadcaster
	log       *logrus.Logger
}

func NewMonitor(prices PriceProvider, p *portfolio.Engine, a *alerts.Engine, events Broadcaster, log *logrus.Logger) *Monitor {
	return &Monitor{prices: prices, portfolio: p, alerts: a, events: events, log: log}
}

// RunOnce performs a single refresh and evaluation pass and returns the
// crossings that were delivered.
func (m *Monitor) RunOnce(ctx context.Context) ([]alerts.Crossing, error) {
	ids := union(m.portfolio.CoinIDs(), m.alerts.ActiveCoinIDs())
	if len(ids) == 0 {
		return nil, nil
	}
	prices, err := m.prices.Prices(ctx, ids)
	if err != nil {
		return nil, err
	}

	if m.events != nil {
		m.events.BroadcastJSON(PricesEvent{
			Type:    "prices",
			Summary: portfolio.Summarize(m.portfolio.Holdings(), prices),
		})
	}

	fired, err := m.alerts.Evaluate(ctx, prices)
	if err != nil {
		return fired, err
	}
	if len(fired) > 0 {
		m.log.Infof("delivered %d price alert(s)", len(fired))
	}
	return fired, nil
}

// Start runs a pass immediately and then once per interval until ctx ends.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		m.pass(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.log.Info("price monitor stopping")
				return
			case <-ticker.C:
				m.pass(ctx)
			}
		}
	}()
}

func (m *Monitor) pass(ctx context.Context) {
	if _, err := m.RunOnce(ctx); err != nil {
		m.log.Warnf("price monitor pass failed: %v", err)
	}
}

func union(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return dedupe(all)
}
