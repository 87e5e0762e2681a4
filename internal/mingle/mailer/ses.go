package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the slice of the SES client we use.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesAPI
	source string
	logger *slog.Logger
}

func newSES(cfg Config, httpClient *http.Client, logger *slog.Logger) *sesMailer {
	awsCfg := aws.Config{
		Region: cfg.SES.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
		),
		HTTPClient: httpClient,
	}

	source := cfg.FromAddress
	if cfg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	return &sesMailer{client: ses.NewFromConfig(awsCfg), source: source, logger: logger}
}

func (m *sesMailer) SendCode(ctx context.Context, msg CodeEmail) error {
	body, err := render("otp_code", msg)
	if err != nil {
		return err
	}

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.source),
		Destination: &types.Destination{ToAddresses: []string{msg.Email}},
		Message: &types.Message{
			Subject: utf8(body.Subject),
			Body: &types.Body{
				Html: utf8(body.HTML),
				Text: utf8(body.Text),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}

	m.logger.Info("email sent via SES", "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}
