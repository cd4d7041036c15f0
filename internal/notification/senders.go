package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"atm-fleet-backend/config"
)

// PushSender sends one web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real PushSender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// TextSender delivers a text message to a phone number.
type TextSender interface {
	SendText(ctx context.Context, phoneNumber, content string) error
}

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}

// HTTPProviderSender posts text and email payloads to the configured
// messaging provider endpoints. Both channels are fire and forget; the
// worker logs failures and moves on.
type HTTPProviderSender struct {
	cfg    *config.NotifyConfig
	client *http.Client
}

// NewHTTPProviderSender creates the provider-backed text/email sender.
func NewHTTPProviderSender(cfg *config.NotifyConfig) *HTTPProviderSender {
	return &HTTPProviderSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (s *HTTPProviderSender) SendText(ctx context.Context, phoneNumber, content string) error {
	if s.cfg.TextURL == "" {
		return fmt.Errorf("text provider is not configured")
	}
	return s.post(ctx, s.cfg.TextURL, s.cfg.TextAPIKey, map[string]string{
		"to":   phoneNumber,
		"body": content,
	})
}

func (s *HTTPProviderSender) SendEmail(ctx context.Context, to, subject, html string) error {
	if s.cfg.EmailURL == "" {
		return fmt.Errorf("email provider is not configured")
	}
	return s.post(ctx, s.cfg.EmailURL, s.cfg.EmailAPIKey, map[string]string{
		"to":      to,
		"subject": subject,
		"html":    html,
	})
}

func (s *HTTPProviderSender) post(ctx context.Context, url, apiKey string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return nil
}
