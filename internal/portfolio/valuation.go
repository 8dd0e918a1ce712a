package portfolio

import (
	"cointrack/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func TotalInvested(holdings []models.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.TotalInvested)
	}
	return total
}

// TotalValue prices every holding; coins missing from prices count as zero.
func TotalValue(holdings []models.Holding, prices models.Prices) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(HoldingValue(h, prices))
	}
	return total
}

func ProfitLoss(holdings []models.Holding, prices models.Prices) decimal.Decimal {
	return TotalValue(holdings, prices).Sub(TotalInvested(holdings))
}

// ProfitLossPercentage is 0 for an empty or zero-cost portfolio.
func ProfitLossPercentage(holdings []models.Holding, prices models.Prices) decimal.Decimal {
	return percentage(ProfitLoss(holdings, prices), TotalInvested(holdings))
}

func HoldingValue(h models.Holding, prices models.Prices) decimal.Decimal {
	return h.Quantity.Mul(prices[h.CoinID])
}

func HoldingProfitLoss(h models.Holding, prices models.Prices) decimal.Decimal {
	return HoldingValue(h, prices).Sub(h.TotalInvested)
}

func HoldingProfitLossPercentage(h models.Holding, prices models.Prices) decimal.Decimal {
	return percentage(HoldingProfitLoss(h, prices), h.TotalInvested)
}

func percentage(pl, basis decimal.Decimal) decimal.Decimal {
	if basis.IsZero() {
		return decimal.Zero
	}
	return pl.Div(basis).Mul(hundred)
}

type HoldingValuation struct {
	models.Holding
	CurrentPrice         decimal.Decimal `json:"currentPrice"`
	HasPrice             bool            `json:"hasPrice"`
	CurrentValue         decimal.Decimal `json:"currentValue"`
	ProfitLoss           decimal.Decimal `json:"profitLoss"`
	ProfitLossPercentage decimal.Decimal `json:"profitLossPercentage"`
}

type Summary struct {
	Holdings             []HoldingValuation `json:"holdings"`
	TotalInvested        decimal.Decimal    `json:"totalInvested"`
	TotalValue           decimal.Decimal    `json:"totalValue"`
	ProfitLoss           decimal.Decimal    `json:"profitLoss"`
	ProfitLossPercentage decimal.Decimal    `json:"profitLossPercentage"`
}

// Summarize values every holding and the portfolio as a whole.
func Summarize(holdings []models.Holding, prices models.Prices) Summary {
	s := Summary{
		Holdings:             make([]HoldingValuation, 0, len(holdings)),
		TotalInvested:        TotalInvested(holdings),
		TotalValue:           TotalValue(holdings, prices),
		ProfitLoss:           ProfitLoss(holdings, prices),
		ProfitLossPercentage: ProfitLossPercentage(holdings, prices),
	}
	for _, h := range holdings {
		price, ok := prices[h.CoinID]
		s.Holdings = append(s.Holdings, HoldingValuation{
			Holding:              h,
			CurrentPrice:         price,
			HasPrice:             ok && price.IsPositive(),
			CurrentValue:         HoldingValue(h, prices),
			ProfitLoss:           HoldingProfitLoss(h, prices),
			ProfitLossPercentage: HoldingProfitLossPercentage(h, prices),
		})
	}
	return s
}
