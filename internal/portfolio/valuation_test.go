package portfolio

import (
	"testing"

	"cointrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuation_Scenario(t *testing.T) {
	holdings := []models.Holding{{ID: "h1", CoinID: "eth", Quantity: dec("10"), AverageBuyPrice: dec("2000"), TotalInvested: dec("20000")}}
	prices := models.Prices{"eth": dec("2500")}

	assertDec(t, "20000", TotalInvested(holdings), "totalInvested")
	assertDec(t, "25000", TotalValue(holdings, prices), "totalValue")
	assertDec(t, "5000", ProfitLoss(holdings, prices), "profitLoss")
	assertDec(t, "25", ProfitLossPercentage(holdings, prices), "profitLossPercentage")
}

func TestValuation_EmptyPortfolio(t *testing.T) {
	var holdings []models.Holding
	prices := models.Prices{"bitcoin": dec("50000")}

	assert.True(t, TotalInvested(holdings).IsZero())
	assert.True(t, TotalValue(holdings, prices).IsZero())
	assert.True(t, ProfitLoss(holdings, prices).IsZero())
	assert.True(t, ProfitLossPercentage(holdings, prices).IsZero())
}

func TestValuation_MissingPriceCountsAsZero(t *testing.T) {
	holdings := []models.Holding{
		{ID: "a", CoinID: "bitcoin", Quantity: dec("2"), TotalInvested: dec("100")},
		{ID: "b", CoinID: "unlisted", Quantity: dec("5"), TotalInvested: dec("50")},
	}
	prices := models.Prices{"bitcoin": dec("60")}

	assertDec(t, "120", TotalValue(holdings, prices), "totalValue")
	assertDec(t, "-30", ProfitLoss(holdings, prices), "profitLoss")
	assertDec(t, "-20", ProfitLossPercentage(holdings, prices), "profitLossPercentage")

	assertDec(t, "0", HoldingValue(holdings[1], prices), "holdingValue")
	assertDec(t, "-100", HoldingProfitLossPercentage(holdings[1], prices), "holdingPct")
	assertDec(t, "20", HoldingProfitLossPercentage(holdings[0], prices), "holdingPct")
}

func TestHoldingProfitLossPercentage_ZeroBasis(t *testing.T) {
	h := models.Holding{ID: "a", CoinID: "gift", Quantity: dec("1"), TotalInvested: dec("0")}
	assert.True(t, HoldingProfitLossPercentage(h, models.Prices{"gift": dec("5")}).IsZero())
}

func TestSummarize(t *testing.T) {
	holdings := []models.Holding{
		{ID: "a", CoinID: "bitcoin", Quantity: dec("0.5"), AverageBuyPrice: dec("40000"), TotalInvested: dec("20000")},
		{ID: "b", CoinID: "dogecoin", Quantity: dec("1000"), AverageBuyPrice: dec("0.1"), TotalInvested: dec("100")},
	}
	s := Summarize(holdings, models.Prices{"bitcoin": dec("50000")})

	require.Len(t, s.Holdings, 2)
	assert.True(t, s.Holdings[0].HasPrice)
	assertDec(t, "25000", s.Holdings[0].CurrentValue, "currentValue")
	assertDec(t, "5000", s.Holdings[0].ProfitLoss, "profitLoss")
	assertDec(t, "25", s.Holdings[0].ProfitLossPercentage, "pct")
	assert.False(t, s.Holdings[1].HasPrice)
	assertDec(t, "20100", s.TotalInvested, "totalInvested")
	assertDec(t, "25000", s.TotalValue, "totalValue")
	assertDec(t, "4900", s.ProfitLoss, "profitLoss")
}

func TestSummarize_ZeroPriceIsUnpriced(t *testing.T) {
	holdings := []models.Holding{
		{ID: "a", CoinID: "terra", Quantity: dec("10"), AverageBuyPrice: dec("80"), TotalInvested: dec("800")},
	}
	s := Summarize(holdings, models.Prices{"terra": dec("0")})

	require.Len(t, s.Holdings, 1)
	assert.False(t, s.Holdings[0].HasPrice)
	assertDec(t, "0", s.Holdings[0].CurrentValue, "currentValue")
}
