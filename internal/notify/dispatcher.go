package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

// Notification is the payload handed to the external dispatcher, which
// fans out to email/SMS/push per the recipient's stored preferences.
type Notification struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipientId"`
	Template    string         `json:"template"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type Dispatcher struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	Log        logger.Logger
	Metrics    *metrics.Metrics
}

func (d *Dispatcher) Enabled() bool { return d != nil && d.BaseURL != "" }

// Send posts one notification to the dispatcher. The call carries a
// bounded timeout so an unresponsive dispatcher cannot stall a caller.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(n); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/notifications", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Surface the dispatcher's error body; diagnosing template or
		// recipient problems from logs alone is painful otherwise.
		b, _ := io.ReadAll(resp.Body)
		if len(b) > 0 {
			return fmt.Errorf("dispatcher error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return fmt.Errorf("dispatcher error: status=%d", resp.StatusCode)
	}
	return nil
}

// DispatchAsync sends fire-and-forget after a transition has committed.
// The return value reports acceptance for dispatch, not delivery;
// delivery failures are logged and counted, never surfaced to callers.
func (d *Dispatcher) DispatchAsync(n Notification) bool {
	if !d.Enabled() {
		return false
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	go func() {
		// Detached from the request context: the transition already
		// committed and must not be unwound by a slow dispatcher.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := d.Send(ctx, n); err != nil {
			if d.Metrics != nil {
				d.Metrics.NotificationsFailed.Inc()
			}
			if d.Log != nil {
				d.Log.Error("notification dispatch failed", "id", n.ID, "recipient", n.RecipientID, "template", n.Template, "err", err)
			}
			return
		}
		if d.Metrics != nil {
			d.Metrics.NotificationsSent.Inc()
		}
	}()

	return true
}
