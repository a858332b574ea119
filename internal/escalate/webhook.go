package escalate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Webhook hands emergencies to a remote action layer, typically another
// instance's POST /agent/emergency. The answer is decoded as the call
// status; an empty body counts as success.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook with a 10s client timeout
func NewWebhook(url string) *Webhook {
	return NewWebhookWithClient(url, defaultHTTPClient())
}

// NewWebhookWithClient creates a Webhook using client
func NewWebhookWithClient(url string, client *http.Client) *Webhook {
	return &Webhook{url: url, client: client}
}

// Trigger posts ec and decodes the returned CallStatus
func (w *Webhook) Trigger(ctx context.Context, ec EmergencyContext) (CallStatus, error) {
	resp, err := postJSON(ctx, w.client, "webhook", w.url, ec)
	if err != nil {
		return CallStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return CallStatus{Status: StatusSuccess, Message: "Action layer accepted"}, nil
	}

	var status CallStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return CallStatus{}, fmt.Errorf("decode webhook response: %w", err)
	}
	return status, nil
}

// Name returns "webhook"
func (w *Webhook) Name() string {
	return "webhook"
}
