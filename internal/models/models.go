package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Buy  TransactionType = "buy"
	Sell TransactionType = "sell"
)

func (t TransactionType) Valid() bool {
	return t == Buy || t == Sell
}

type Transaction struct {
	ID       string          `json:"id"`
	Type     TransactionType `json:"type"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	Date     time.Time       `json:"date"`
}

// Coin is the market-data identity of an asset. Name and Symbol are display
// metadata only; ID is the key used for prices.
type Coin struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type Holding struct {
	ID              string          `json:"id"`
	CoinID          string          `json:"coinId"`
	CoinName        string          `json:"coinName"`
	CoinSymbol      string          `json:"coinSymbol"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageBuyPrice decimal.Decimal `json:"averageBuyPrice"`
	TotalInvested   decimal.Decimal `json:"totalInvested"`
	Transactions    []Transaction   `json:"transactions"`
}

type AlertType string

const (
	Above AlertType = "above"
	Below AlertType = "below"
)

func (t AlertType) Valid() bool {
	return t == Above || t == Below
}

type PriceAlert struct {
	ID           string          `json:"id"`
	CoinID       string          `json:"coinId"`
	CoinName     string          `json:"coinName"`
	CoinSymbol   string          `json:"coinSymbol"`
	TargetPrice  decimal.Decimal `json:"targetPrice"`
	AlertType    AlertType       `json:"alertType"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastNotified *time.Time      `json:"lastNotified,omitempty"`
	// Crossed records whether the previous evaluation found the condition
	// holding. Only consulted in fire-once mode.
	Crossed bool `json:"crossed,omitempty"`
}

// Notification is what gets handed to a delivery channel.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Prices maps a coin id to its current USD price. Missing entries mean no data.
type Prices map[string]decimal.Decimal
