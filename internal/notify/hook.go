// Package notify holds the Notifier implementations the registry fans
// recommendation changes out to.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sempgateway/internal/models"
)

// HookDeliverer POSTs notifications to the device's hook URL.
type HookDeliverer struct {
	client *http.Client
}

func NewHookDeliverer(timeout time.Duration) *HookDeliverer {
	return &HookDeliverer{client: &http.Client{Timeout: timeout}}
}

// Deliver sends n as JSON. Any non-2xx answer is an error.
func (h *HookDeliverer) Deliver(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.HookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building hook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling hook %s: %w", n.HookURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hook %s answered %d", n.HookURL, resp.StatusCode)
	}
	return nil
}

// Notify delivers directly, skipping devices without a hook.
func (h *HookDeliverer) Notify(ctx context.Context, n models.Notification) error {
	if n.HookURL == "" {
		return nil
	}
	return h.Deliver(ctx, n)
}
