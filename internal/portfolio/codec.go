package portfolio

import (
	"encoding/json"

	"cointrack/internal/models"

	"github.com/sirupsen/logrus"
)

// DecodeHoldings parses a persisted portfolio. Anything that is not a JSON
// array decodes to an empty portfolio; entries that break the holding
// invariants are dropped.
func DecodeHoldings(raw []byte, log *logrus.Logger) []models.Holding {
	holdings := []models.Holding{}
	if len(raw) == 0 {
		return holdings
	}
	var parsed []models.Holding
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warnf("ignoring malformed portfolio payload: %v", err)
		return holdings
	}

	seen := map[string]bool{}
	for _, h := range parsed {
		switch {
		case h.ID == "" || h.CoinID == "":
			log.Warnf("dropping holding without id or coin id: %+v", h)
			continue
		case !h.Quantity.IsPositive():
			log.Warnf("dropping holding %s with non-positive quantity %s", h.ID, h.Quantity)
			continue
		case seen[h.CoinID]:
			log.Warnf("dropping duplicate holding %s for coin %s", h.ID, h.CoinID)
			continue
		}
		seen[h.CoinID] = true
		if h.Transactions == nil {
			h.Transactions = []models.Transaction{}
		}
		holdings = append(holdings, h)
	}
	return holdings
}

func EncodeHoldings(holdings []models.Holding) ([]byte, error) {
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return json.Marshal(holdings)
}
