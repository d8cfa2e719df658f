// Package notify delivers missed-lesson notifications over email and SMS.
package notify

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"lms/config"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(toName, toEmail, subject, htmlBody string) error
}

// Texter sends one SMS.
type Texter interface {
	Send(mobile, message string) error
}

// SendgridMailer delivers through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendgridMailer(cfg *config.Config) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridApiKey),
		from:   sgmail.NewEmail(cfg.EmailFromName, cfg.EmailSender),
	}
}

func (m *SendgridMailer) Send(toName, toEmail, subject, htmlBody string) error {
	to := sgmail.NewEmail(toName, toEmail)
	msg := sgmail.NewSingleEmail(m.from, subject, to, "", htmlBody)
	resp, err := m.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// RestyTexter delivers through the configured SMS gateway.
type RestyTexter struct {
	client *resty.Client
	apiURL string
	apiKey string
	sender string
}

func NewRestyTexter(cfg *config.Config) *RestyTexter {
	return &RestyTexter{
		client: resty.New(),
		apiURL: cfg.SmsApiUrl,
		apiKey: cfg.SmsApiKey,
		sender: cfg.SmsSender,
	}
}

func (t *RestyTexter) Send(mobile, message string) error {
	if t.apiURL == "" {
		return fmt.Errorf("SMS gateway not configured")
	}
	resp, err := t.client.R().
		SetHeader("authorization", t.apiKey).
		SetQueryParams(map[string]string{
			"sender_id": t.sender,
			"message":   message,
			"numbers":   mobile,
		}).
		Get(t.apiURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("failed to send SMS, code: %d", resp.StatusCode())
	}
	return nil
}
