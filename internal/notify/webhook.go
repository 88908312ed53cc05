// Package notify delivers engine events to external consumers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/events"
)

// Webhook posts engine events as JSON to a configured URL. Delivery
// failures are logged, never propagated: notification is out of scope for
// the engine's own correctness.
type Webhook struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewWebhook creates a webhook sink for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    zap.L().With(zap.String("component", "notify.webhook")),
	}
}

// Emit implements events.Emitter.
func (w *Webhook) Emit(ctx context.Context, ev events.Event) {
	if err := w.post(ctx, ev); err != nil {
		w.log.Error("failed to deliver event",
			zap.String("event_type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	w.log.Debug("event delivered", zap.String("event_type", string(ev.Type)))
}

func (w *Webhook) post(ctx context.Context, ev events.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: post event")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
