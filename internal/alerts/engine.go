package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cointrack/internal/database"
	"cointrack/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const StoreKey = "priceAlerts"

type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
}

// Notifier delivers a notification to the user.
type Notifier interface {
	Deliver(ctx context.Context, n models.Notification) error
}

type NewAlert struct {
	Coin        models.Coin
	TargetPrice decimal.Decimal
	AlertType   models.AlertType
	IsActive    bool
}

// Update holds the fields to change; nil fields are left as they are.
type Update struct {
	TargetPrice *decimal.Decimal
	AlertType   *models.AlertType
	IsActive    *bool
	CoinName    *string
	CoinSymbol  *string
}

type Engine struct {
	store    Store
	notifier Notifier
	mode     Mode
	log      *logrus.Logger
	mu       sync.RWMutex
	evalMu   sync.Mutex
	alerts   []models.PriceAlert
	now      func() time.Time
	newID    func() string
}

// NewEngine builds the alert engine. A nil notifier means delivery is not
// available, and Evaluate becomes a no-op.
func NewEngine(store Store, notifier Notifier, mode Mode, log *logrus.Logger) *Engine {
	if mode == "" {
		mode = ModeEveryPass
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		mode:     mode,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (e *Engine) Load(ctx context.Context) error {
	raw, err := e.store.Load(ctx, StoreKey)
	if errors.Is(err, database.ErrNotFound) {
		raw = nil
	} else if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}
	alerts := DecodeAlerts(raw, e.log)

	e.mu.Lock()
	e.alerts = alerts
	e.mu.Unlock()
	e.log.Infof("loaded %d price alerts", len(alerts))
	return nil
}

func (e *Engine) Alerts() []models.PriceAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]models.PriceAlert(nil), e.alerts...)
}

// ActiveCoinIDs lists the distinct coins watched by active alerts.
func (e *Engine) ActiveCoinIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	seen := map[string]bool{}
	ids := []string{}
	for _, a := range e.alerts {
		if a.IsActive && !seen[a.CoinID] {
			seen[a.CoinID] = true
			ids = append(ids, a.CoinID)
		}
	}
	return ids
}

func (e *Engine) Add(ctx context.Context, in NewAlert) (models.PriceAlert, error) {
	if strings.TrimSpace(in.Coin.ID) == "" {
		return models.PriceAlert{}, fmt.Errorf("%w: coin id is required", ErrInvalidAlert)
	}
	if err := validateTarget(in.TargetPrice, in.AlertType); err != nil {
		return models.PriceAlert{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a := models.PriceAlert{
		ID:          e.newID(),
		CoinID:      in.Coin.ID,
		CoinName:    in.Coin.Name,
		CoinSymbol:  in.Coin.Symbol,
		TargetPrice: in.TargetPrice,
		AlertType:   in.AlertType,
		IsActive:    in.IsActive,
		CreatedAt:   e.now(),
	}
	next := append(e.cloneLocked(), a)
	if err := e.commit(ctx, next); err != nil {
		return models.PriceAlert{}, err
	}
	return a, nil
}

func (e *Engine) Remove(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]models.PriceAlert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if len(next) == len(e.alerts) {
		return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}
	return e.commit(ctx, next)
}

// Toggle flips IsActive. LastNotified is kept.
func (e *Engine) Toggle(ctx context.Context, id string) (models.PriceAlert, error) {
	return e.mutate(ctx, id, func(a *models.PriceAlert) error {
		a.IsActive = !a.IsActive
		a.Crossed = false
		return nil
	})
}

func (e *Engine) Update(ctx context.Context, id string, u Update) (models.PriceAlert, error) {
	return e.mutate(ctx, id, func(a *models.PriceAlert) error {
		target, kind := a.TargetPrice, a.AlertType
		if u.TargetPrice != nil {
			target = *u.TargetPrice
		}
		if u.AlertType != nil {
			kind = *u.AlertType
		}
		if err := validateTarget(target, kind); err != nil {
			return err
		}
		if !target.Equal(a.TargetPrice) || kind != a.AlertType {
			a.Crossed = false
		}
		a.TargetPrice, a.AlertType = target, kind
		if u.IsActive != nil {
			if *u.IsActive != a.IsActive {
				a.Crossed = false
			}
			a.IsActive = *u.IsActive
		}
		if u.CoinName != nil {
			a.CoinName = *u.CoinName
		}
		if u.CoinSymbol != nil {
			a.CoinSymbol = *u.CoinSymbol
		}
		return nil
	})
}

// Evaluate checks every active alert against prices, notifies the crossed
// ones and records when each was notified. It returns the crossings that were
// delivered. Delivery failures are logged and skipped.
//
// Notifications are sent without holding the engine lock, so alert edits are
// not blocked by slow sinks. Results are applied only to alerts whose
// condition was not edited while delivery was in flight.
func (e *Engine) Evaluate(ctx context.Context, prices models.Prices) ([]Crossing, error) {
	if e.notifier == nil {
		e.log.Debug("notification delivery unavailable; skipping alert evaluation")
		return nil, nil
	}

	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	e.mu.RLock()
	snapshot := e.cloneLocked()
	e.mu.RUnlock()

	crossed := make(map[string]bool, len(snapshot))
	for _, a := range snapshot {
		if price, ok := priceFor(a, prices); ok {
			crossed[a.ID] = Crossed(a, price)
		}
	}

	var delivered []Crossing
	notifiedAt := map[string]time.Time{}
	for _, c := range DetectCrossings(snapshot, prices, e.mode) {
		if err := e.notifier.Deliver(ctx, NotificationFor(c)); err != nil {
			e.log.Warnf("delivering alert %s for %s failed: %v", c.Alert.ID, c.Alert.CoinID, err)
			// retry on the next pass in fire-once mode
			crossed[c.Alert.ID] = c.Alert.Crossed
			continue
		}
		notifiedAt[c.Alert.ID] = e.now()
		delivered = append(delivered, c)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := make(map[string]models.PriceAlert, len(snapshot))
	for _, a := range snapshot {
		before[a.ID] = a
	}
	next := e.cloneLocked()
	changed := false
	for i := range next {
		a := &next[i]
		old, ok := before[a.ID]
		if !ok || !sameCondition(old, *a) {
			continue
		}
		if c, ok := crossed[a.ID]; ok && c != a.Crossed {
			a.Crossed = c
			changed = true
		}
		if at, ok := notifiedAt[a.ID]; ok {
			a.LastNotified = &at
			changed = true
		}
	}
	for i := range delivered {
		for _, a := range next {
			if a.ID == delivered[i].Alert.ID {
				delivered[i].Alert = a
				break
			}
		}
	}

	if !changed {
		return delivered, nil
	}
	if err := e.commit(ctx, next); err != nil {
		return delivered, err
	}
	if len(delivered) > 0 {
		e.log.Infof("fired %d price alerts", len(delivered))
	}
	return delivered, nil
}

func sameCondition(a, b models.PriceAlert) bool {
	return a.TargetPrice.Equal(b.TargetPrice) &&
		a.AlertType == b.AlertType &&
		a.IsActive == b.IsActive &&
		a.Crossed == b.Crossed
}

func (e *Engine) mutate(ctx context.Context, id string, fn func(a *models.PriceAlert) error) (models.PriceAlert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cloneLocked()
	for i := range next {
		if next[i].ID != id {
			continue
		}
		if err := fn(&next[i]); err != nil {
			return models.PriceAlert{}, err
		}
		updated := next[i]
		if err := e.commit(ctx, next); err != nil {
			return models.PriceAlert{}, err
		}
		return updated, nil
	}
	return models.PriceAlert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
}

func (e *Engine) cloneLocked() []models.PriceAlert {
	return append(make([]models.PriceAlert, 0, len(e.alerts)+1), e.alerts...)
}

func (e *Engine) commit(ctx context.Context, next []models.PriceAlert) error {
	payload, err := EncodeAlerts(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := e.store.Save(ctx, StoreKey, payload); err != nil {
		e.log.Warnf("saving alerts failed: %v", err)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	e.alerts = next
	return nil
}

func validateTarget(target decimal.Decimal, kind models.AlertType) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: alert type must be above or below, got %q", ErrInvalidAlert, kind)
	}
	if !target.IsPositive() {
		return fmt.Errorf("%w: target price must be positive, got %s", ErrInvalidAlert, target)
	}
	return nil
}
