package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/config"
)

// WebhookClient delivers alerts to the notification collaborator over a
// plain JSON webhook. The collaborator owns fan-out to devices; this side
// only hands over the signature and message.
type WebhookClient struct {
	httpClient *resty.Client
}

// NewClient builds a webhook notification client from configuration.
func NewClient(cfg config.AlertsConfig) *WebhookClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(cfg.WebhookURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.WebhookToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.WebhookToken))
	}

	return &WebhookClient{httpClient: restyClient}
}

type alertPayload struct {
	FarmID    string `json:"farm_id"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

type apiError struct {
	Error string `json:"error"`
}

// DispatchAlert posts one alert to the webhook.
func (c *WebhookClient) DispatchAlert(ctx context.Context, farmID, signature, message string) error {
	payload := alertPayload{FarmID: farmID, Signature: signature, Message: message}
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetError(apiErr).
		Post("")
	if err != nil {
		return fmt.Errorf("dispatch alert webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("alert webhook error: status=%d, message=%s", resp.StatusCode(), apiErr.Error)
	}

	return nil
}
