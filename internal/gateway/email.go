package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/forgo/mentora/api/internal/service"
)

// WebhookEmailGateway posts transactional email to the mail relay's
// webhook. Implements service.EmailGateway. With no webhook configured it
// logs and drops messages, which keeps local development working without
// a relay.
type WebhookEmailGateway struct {
	webhookURL string
	fromName   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookEmailGateway creates a new email gateway
func NewWebhookEmailGateway(webhookURL, fromName string, logger *slog.Logger) *WebhookEmailGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookEmailGateway{
		webhookURL: webhookURL,
		fromName:   fromName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type emailPayload struct {
	To       string                 `json:"to"`
	From     string                 `json:"from"`
	Subject  string                 `json:"subject"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SendEmail delivers one message through the relay webhook
func (g *WebhookEmailGateway) SendEmail(ctx context.Context, msg service.EmailMessage) error {
	if g.webhookURL == "" {
		g.logger.Info("email relay not configured, dropping message",
			slog.String("to", msg.To),
			slog.String("template", msg.Template),
		)
		return nil
	}

	body, err := json.Marshal(emailPayload{
		To:       msg.To,
		From:     g.fromName,
		Subject:  msg.Subject,
		Template: msg.Template,
		Data:     msg.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email relay returned status %d", resp.StatusCode)
	}
	return nil
}
