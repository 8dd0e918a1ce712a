package alerts

import (
	"encoding/json"

	"cointrack/internal/models"

	"github.com/sirupsen/logrus"
)

// DecodeAlerts parses persisted alerts. Non-array payloads decode to no
// alerts and unusable entries are dropped.
func DecodeAlerts(raw []byte, log *logrus.Logger) []models.PriceAlert {
	alerts := []models.PriceAlert{}
	if len(raw) == 0 {
		return alerts
	}
	var parsed []models.PriceAlert
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.Warnf("ignoring malformed alerts payload: %v", err)
		return alerts
	}
	seen := map[string]bool{}
	for _, a := range parsed {
		if a.ID == "" || a.CoinID == "" || seen[a.ID] {
			log.Warnf("dropping alert with missing or duplicate id: %+v", a)
			continue
		}
		if !a.AlertType.Valid() || !a.TargetPrice.IsPositive() {
			log.Warnf("dropping alert %s with type %q and target %s", a.ID, a.AlertType, a.TargetPrice)
			continue
		}
		seen[a.ID] = true
		alerts = append(alerts, a)
	}
	return alerts
}

func EncodeAlerts(alerts []models.PriceAlert) ([]byte, error) {
	if alerts == nil {
		alerts = []models.PriceAlert{}
	}
	return json.Marshal(alerts)
}
