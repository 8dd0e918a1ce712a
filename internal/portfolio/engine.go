package portfolio

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

// StoreKey is the collection name holdings are persisted under.
const StoreKey = "portfolio"

// Store is the durable blob store the engine persists to.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, payload []byte) error
}

type TransactionInput struct {
	Type     models.TransactionType
	Quantity decimal.Decimal
	Price    decimal.Decimal
	// Date defaults to the current time when zero.
	Date time.Time
}

// Engine owns the holdings collection. Every mutation rewrites the whole
// collection to the store and only becomes visible once that write succeeds.
type Engine struct {
	store    Store
	log      *logrus.Logger
	mu       sync.RWMutex
	holdings []models.Holding
	now      func() time.Time
	newID    func() string
}

func NewEngine(store Store, log *logrus.Logger) *Engine {
	return &Engine{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Load replaces the in-memory collection with the persisted one. A missing or
// malformed payload yields an empty portfolio.
func (e *Engine) Load(ctx context.Context) error {
	raw, err := e.store.Load(ctx, StoreKey)
	if errors.Is(err, database.ErrNotFound) {
		raw = nil
	} else if err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}
	holdings := DecodeHoldings(raw, e.log)

	e.mu.Lock()
	e.holdings = holdings
	e.mu.Unlock()
	e.log.Infof("portfolio loaded with %d holdings", len(holdings))
	return nil
}

// Holdings returns a copy of the current collection.
func (e *Engine) Holdings() []models.Holding {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneHoldings(e.holdings)
}

// CoinIDs lists the coin of every holding, in collection order.
func (e *Engine) CoinIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.holdings))
	for _, h := range e.holdings {
		ids = append(ids, h.CoinID)
	}
	return ids
}

// ApplyTransaction records a buy or sell against the holding for coin. It
// returns the updated holding, or nil when the sell closed the position.
func (e *Engine) ApplyTransaction(ctx context.Context, in TransactionInput, coin models.Coin) (*models.Holding, error) {
	if err := validate(in, coin); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	date := in.Date
	if date.IsZero() {
		date = e.now()
	}
	txn := models.Transaction{
		ID:       e.newID(),
		Type:     in.Type,
		Quantity: in.Quantity,
		Price:    in.Price,
		Total:    in.Quantity.Mul(in.Price),
		Date:     date.UTC(),
	}

	next := cloneHoldings(e.holdings)
	idx := indexByCoin(next, coin.ID)

	var result *models.Holding
	switch {
	case idx < 0 && txn.Type == models.Sell:
		return nil, fmt.Errorf("%w: %s", ErrNoHolding, coin.ID)

	case idx < 0:
		next = append(next, models.Holding{
			ID:              e.newID(),
			CoinID:          coin.ID,
			CoinName:        coin.Name,
			CoinSymbol:      coin.Symbol,
			Quantity:        txn.Quantity,
			AverageBuyPrice: txn.Price,
			TotalInvested:   txn.Total,
			Transactions:    []models.Transaction{txn},
		})
		result = &next[len(next)-1]

	case txn.Type == models.Buy:
		h := &next[idx]
		h.Quantity = h.Quantity.Add(txn.Quantity)
		h.TotalInvested = h.TotalInvested.Add(txn.Total)
		h.AverageBuyPrice = h.TotalInvested.Div(h.Quantity)
		h.Transactions = append(h.Transactions, txn)
		result = h

	default:
		h := &next[idx]
		if txn.Quantity.GreaterThan(h.Quantity) {
			return nil, fmt.Errorf("%w: selling %s of %s, holding %s", ErrInsufficientQuantity, txn.Quantity, coin.ID, h.Quantity)
		}
		remaining := h.Quantity.Sub(txn.Quantity)
		if remaining.LessThanOrEqual(decimal.Zero) {
			next = append(next[:idx], next[idx+1:]...)
			break
		}
		// cost basis leaves at the existing average, which stays put
		h.Quantity = remaining
		h.TotalInvested = h.TotalInvested.Sub(txn.Quantity.Mul(h.AverageBuyPrice))
		h.Transactions = append(h.Transactions, txn)
		result = h
	}

	var out *models.Holding
	if result != nil {
		c := cloneHolding(*result)
		out = &c
	}
	if err := e.commit(ctx, next); err != nil {
		return nil, err
	}
	e.log.Debugf("applied %s %s %s @ %s", txn.Type, txn.Quantity, coin.ID, txn.Price)
	return out, nil
}

// RemoveHolding deletes a holding outright, without recording a sell.
func (e *Engine) RemoveHolding(ctx context.Context, holdingID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make([]models.Holding, 0, len(e.holdings))
	for _, h := range e.holdings {
		if h.ID != holdingID {
			next = append(next, h)
		}
	}
	if len(next) == len(e.holdings) {
		return fmt.Errorf("%w: %s", ErrHoldingNotFound, holdingID)
	}
	return e.commit(ctx, next)
}

// commit persists next and swaps it in. Callers hold e.mu.
func (e *Engine) commit(ctx context.Context, next []models.Holding) error {
	payload, err := EncodeHoldings(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if err := e.store.Save(ctx, StoreKey, payload); err != nil {
		e.log.Warnf("saving portfolio failed: %v", err)
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	e.holdings = next
	return nil
}

func validate(in TransactionInput, coin models.Coin) error {
	if strings.TrimSpace(coin.ID) == "" {
		return fmt.Errorf("%w: coin id is required", ErrInvalidTransaction)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: type must be buy or sell, got %q", ErrInvalidTransaction, in.Type)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTransaction, in.Quantity)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidTransaction, in.Price)
	}
	return nil
}

func indexByCoin(holdings []models.Holding, coinID string) int {
	for i, h := range holdings {
		if h.CoinID == coinID {
			return i
		}
	}
	return -1
}

func cloneHolding(h models.Holding) models.Holding {
	h.Transactions = append([]models.Transaction(nil), h.Transactions...)
	return h
}

func cloneHoldings(in []models.Holding) []models.Holding {
	out := make([]models.Holding, len(in))
	for i, h := range in {
		out[i] = cloneHolding(h)
	}
	return out
}
