package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const emailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

type emailJSMailer struct {
	cfg    EmailJSConfig
	client *http.Client
	logger *slog.Logger
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func newEmailJS(cfg EmailJSConfig, client *http.Client, logger *slog.Logger) *emailJSMailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = emailJSEndpoint
	}
	return &emailJSMailer{cfg: cfg, client: client, logger: logger}
}

// SendCode fills the {{email}} and {{passcode}} variables of the hosted
// template.
func (m *emailJSMailer) SendCode(ctx context.Context, msg CodeEmail) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:  m.cfg.ServiceID,
		TemplateID: m.cfg.TemplateID,
		UserID:     m.cfg.PublicKey,
		TemplateParams: map[string]string{
			"email":    msg.Email,
			"passcode": msg.Code,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email via EmailJS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	m.logger.Info("email sent via EmailJS")
	return nil
}
