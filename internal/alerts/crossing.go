package alerts

import (
	"fmt"

	"cointrack/internal/models"

	"github.com/shopspring/decimal"
)

// Mode selects how often a crossed alert notifies.
type Mode string

const (
	// ModeEveryPass notifies on every evaluation where the condition holds.
	ModeEveryPass Mode = "every"
	// ModeOncePerCrossing notifies only when the condition starts holding.
	ModeOncePerCrossing Mode = "once"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEveryPass, ModeOncePerCrossing:
		return Mode(s), nil
	case "":
		return ModeEveryPass, nil
	}
	return "", fmt.Errorf("unknown alert mode %q", s)
}

// Crossing is one alert whose condition holds at Price.
type Crossing struct {
	Alert models.PriceAlert `json:"alert"`
	Price decimal.Decimal   `json:"price"`
}

// Crossed reports whether price satisfies the alert. Both bounds are inclusive.
func Crossed(a models.PriceAlert, price decimal.Decimal) bool {
	switch a.AlertType {
	case models.Above:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case models.Below:
		return price.LessThanOrEqual(a.TargetPrice)
	}
	return false
}

// DetectCrossings returns the alerts that should notify for this snapshot.
// Inactive alerts and alerts without a positive price are skipped.
func DetectCrossings(alerts []models.PriceAlert, prices models.Prices, mode Mode) []Crossing {
	var out []Crossing
	for _, a := range alerts {
		price, ok := priceFor(a, prices)
		if !ok || !Crossed(a, price) {
			continue
		}
		if mode == ModeOncePerCrossing && a.Crossed {
			continue
		}
		out = append(out, Crossing{Alert: a, Price: price})
	}
	return out
}

func priceFor(a models.PriceAlert, prices models.Prices) (decimal.Decimal, bool) {
	if !a.IsActive {
		return decimal.Zero, false
	}
	price, ok := prices[a.CoinID]
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

// NotificationFor renders the message delivered for a crossing.
func NotificationFor(c Crossing) models.Notification {
	name := c.Alert.CoinName
	if name == "" {
		name = c.Alert.CoinID
	}
	return models.Notification{
		Title: fmt.Sprintf("%s alert!", name),
		Body: fmt.Sprintf("%s is %s your target: $%s (target $%s)",
			name, c.Alert.AlertType, c.Price.StringFixed(2), c.Alert.TargetPrice.StringFixed(2)),
		Data: map[string]string{
			"coinId":    c.Alert.CoinID,
			"alertId":   c.Alert.ID,
			"alertType": string(c.Alert.AlertType),
		},
	}
}
