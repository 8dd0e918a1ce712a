package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type PricePoint struct {
	CoinID    string          `db:"coin_id" json:"coin_id"`
	PriceUSD  decimal.Decimal `db:"price_usd" json:"price_usd"`
	Timestamp time.Time       `db:"timestamp" json:"timestamp"`
}
