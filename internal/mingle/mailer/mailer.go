// Package mailer delivers one-time codes by email. SES renders the embedded
// templates itself; EmailJS renders a template stored on its side.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// CodeEmail is everything a provider needs to send a verification code.
type CodeEmail struct {
	Email            string
	Code             string
	ExpiresInMinutes int
}

type Mailer interface {
	SendCode(ctx context.Context, msg CodeEmail) error
}

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	// Endpoint overrides the public API URL; tests point it at httptest.
	Endpoint string
}

type Config struct {
	Provider    string // ses | emailjs | noop
	FromAddress string
	FromName    string
	SES         SESConfig
	EmailJS     EmailJSConfig
	Logger      *slog.Logger
	HTTPClient  *http.Client
}

// New builds the mailer for cfg.Provider. Unknown providers fall back to noop
// with a warning.
func New(cfg Config) (Mailer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	switch cfg.Provider {
	case "ses":
		if cfg.FromAddress == "" {
			return nil, fmt.Errorf("mailer: ses requires a from address")
		}
		return newSES(cfg, client, logger), nil
	case "emailjs":
		if cfg.EmailJS.ServiceID == "" || cfg.EmailJS.TemplateID == "" || cfg.EmailJS.PublicKey == "" {
			return nil, fmt.Errorf("mailer: emailjs requires service id, template id and public key")
		}
		return newEmailJS(cfg.EmailJS, client, logger), nil
	case "noop", "":
		return &Noop{Logger: logger}, nil
	default:
		logger.Warn("unknown mail provider, using noop", "provider", cfg.Provider)
		return &Noop{Logger: logger}, nil
	}
}

// Noop logs instead of sending. The code itself is never logged.
type Noop struct {
	Logger *slog.Logger
}

func (n *Noop) SendCode(_ context.Context, msg CodeEmail) error {
	n.Logger.Info("email would be sent (noop)", "template", "otp_code", "expires_in_minutes", msg.ExpiresInMinutes)
	return nil
}
