package market

import (
	"errors"
	"fmt"
	"strings"

	"cointrack/internal/models"

	"github.com/shopspring/decimal"
)

// USD is the fiat side of a conversion; it is always worth 1.
const USD = "usd"

var ErrNoPrice = errors.New("no price available")

// Convert turns amount of from into units of to, going through USD.
func Convert(amount decimal.Decimal, from, to string, prices models.Prices) (decimal.Decimal, error) {
	fromPrice, err := usdPrice(from, prices)
	if err != nil {
		return decimal.Zero, err
	}
	toPrice, err := usdPrice(to, prices)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(fromPrice).Div(toPrice), nil
}

func usdPrice(id string, prices models.Prices) (decimal.Decimal, error) {
	if strings.EqualFold(id, USD) {
		return decimal.NewFromInt(1), nil
	}
	p, ok := prices[id]
	if !ok || !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoPrice, id)
	}
	return p, nil
}
