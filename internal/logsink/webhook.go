package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fleetbot/internal/domain"
)

// Webhook posts each entry to a downstream collector. Delivery is
// fire-and-forget: the orchestrator never waits on it.
type Webhook struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Emit(accountID, action string, severity domain.Severity, message string) {
	if w.url == "" {
		return
	}
	entry := newEntry(accountID, action, severity, message)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		_ = w.publish(ctx, entry)
	}()
}

func (w *Webhook) publish(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Entry-ID", entry.ID)
	req.Header.Set("X-Entry-Severity", string(entry.Severity))

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
