package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cointrack/internal/models"

	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Deliver(_ context.Context, n models.Notification) error {
	l.log.WithFields(logrus.Fields{
		"coinId":    n.Data["coinId"],
		"alertId":   n.Data["alertId"],
		"alertType": n.Data["alertType"],
	}).Infof("%s %s", n.Title, n.Body)
	return nil
}

// WebhookNotifier POSTs each notification as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *WebhookNotifier) Deliver(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Fanout delivers to every sink. A notification counts as delivered when at
// least one sink accepted it; failing sinks are logged.
type Fanout struct {
	sinks []Notifier
	log   *logrus.Logger
}

func NewFanout(log *logrus.Logger, sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

func (f *Fanout) Add(n Notifier) {
	f.sinks = append(f.sinks, n)
}

func (f *Fanout) Deliver(ctx context.Context, n models.Notification) error {
	if len(f.sinks) == 0 {
		return nil
	}
	var errs []error
	for _, d := range f.sinks {
		if err := d.Deliver(ctx, n); err != nil {
			f.log.Warnf("notification sink %T failed: %v", d, err)
			errs = append(errs, err)
		}
	}
	if len(errs) == len(f.sinks) {
		return errors.Join(errs...)
	}
	return nil
}
