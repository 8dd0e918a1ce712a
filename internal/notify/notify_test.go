package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cointrack/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = models.Notification{
	Title: "Bitcoin alert!",
	Body:  "Bitcoin is below your target: $44000.00 (target $45000.00)",
	Data:  map[string]string{"coinId": "bitcoin", "alertId": "a1", "alertType": "below"},
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	require.NoError(t, NewLogNotifier(log).Deliver(context.Background(), sample))
	assert.Contains(t, buf.String(), "Bitcoin alert!")
	assert.Contains(t, buf.String(), "alertId=a1")
}

func TestWebhookNotifier(t *testing.T) {
	var got models.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhookNotifier(srv.URL).Deliver(context.Background(), sample))
	assert.Equal(t, sample, got)
}

func TestWebhookNotifier_RejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Deliver(context.Background(), sample)
	assert.ErrorContains(t, err, "502")
}

type funcNotifier func(context.Context, models.Notification) error

func (f funcNotifier) Deliver(ctx context.Context, n models.Notification) error { return f(ctx, n) }

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ok := funcNotifier(func(context.Context, models.Notification) error { calls++; return nil })
	bad := funcNotifier(func(context.Context, models.Notification) error { calls++; return boom })
	log := logrus.New()

	assert.NoError(t, NewFanout(log, ok, ok).Deliver(context.Background(), sample))
	assert.NoError(t, NewFanout(log, bad, ok).Deliver(context.Background(), sample))
	assert.Equal(t, 4, calls)

	err := NewFanout(log, bad, bad).Deliver(context.Background(), sample)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, NewFanout(log).Deliver(context.Background(), sample))
}

func TestFanout_LogsFailingSink(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)

	f := NewFanout(log, NewLogNotifier(log))
	f.Add(funcNotifier(func(context.Context, models.Notification) error { return errors.New("webhook down") }))

	require.NoError(t, f.Deliver(context.Background(), sample))
	assert.Contains(t, buf.String(), "webhook down")
}
