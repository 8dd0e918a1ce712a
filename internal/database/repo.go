package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by Load when nothing was ever saved under a name.
var ErrNotFound = errors.New("collection not found")

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

// Load returns the raw JSON blob stored under name.
func (r *Repo) Load(ctx context.Context, name string) ([]byte, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, r.db.Rebind(`SELECT payload FROM collections WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return []byte(payload), nil
}

// Save replaces the whole blob stored under name.
func (r *Repo) Save(ctx context.Context, name string, payload []byte) error {
	q := `INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(q), name, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (r *Repo) UpsertPrice(ctx context.Context, coinID string, price decimal.Decimal, ts time.Time) error {
	q := r.db.Rebind(`INSERT INTO price_history (coin_id, price_usd, timestamp) VALUES (?, ?, ?)
		ON CONFLICT (coin_id, timestamp) DO UPDATE SET price_usd = excluded.price_usd`)
	_, err := r.db.ExecContext(ctx, q, coinID, price.String(), ts.UTC())
	return err
}

func (r *Repo) GetLatestPrice(ctx context.Context, coinID string) (decimal.Decimal, time.Time, error) {
	var priceStr string
	var ts time.Time
	q := r.db.Rebind(`SELECT price_usd, timestamp FROM price_history WHERE coin_id = ? ORDER BY timestamp DESC LIMIT 1`)
	if err := r.db.QueryRowContext(ctx, q, coinID).Scan(&priceStr, &ts); err != nil {
		return decimal.Zero, time.Time{}, err
	}
	p, err := decimal.NewFromString(priceStr)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return p, ts, nil
}

// GetLatestPrices returns the most recent stored price of each coin. Coins
// without history are left out of the result.
func (r *Repo) GetLatestPrices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error) {
	res := make(map[string]decimal.Decimal, len(coinIDs))
	for _, id := range coinIDs {
		p, _, err := r.GetLatestPrice(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("latest price %s: %w", id, err)
		}
		res[id] = p
	}
	return res, nil
}

func (r *Repo) GetPriceHistory(ctx context.Context, coinID string, since time.Time) ([]PricePoint, error) {
	q := r.db.Rebind(`SELECT price_usd, timestamp FROM price_history WHERE coin_id = ? AND timestamp >= ? ORDER BY timestamp ASC`)
	rows, err := r.db.QueryxContext(ctx, q, coinID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []PricePoint{}
	for rows.Next() {
		var priceStr string
		var ts time.Time
		if err := rows.Scan(&priceStr, &ts); err != nil {
			r.log.Warnf("scan price history failed: %v", err)
			continue
		}
		p, err := decimal.NewFromString(priceStr)
		if err != nil {
			r.log.Warnf("bad stored price %q for %s: %v", priceStr, coinID, err)
			continue
		}
		res = append(res, PricePoint{CoinID: coinID, PriceUSD: p, Timestamp: ts})
	}
	return res, rows.Err()
}
