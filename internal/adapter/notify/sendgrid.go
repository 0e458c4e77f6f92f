package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGrid sends through the public API; host overrides it when non-empty.
func NewSendGrid(apiKey, from, host string) *SendGrid {
	req := sendgrid.GetRequest(apiKey, sendPath, host)
	req.Method = "POST"
	return &SendGrid{client: &sendgrid.Client{Request: req}, from: mail.NewEmail("", from)}
}

func (s *SendGrid) Channel() string { return channelEmail }

func (s *SendGrid) SendCode(ctx context.Context, to, code string) error {
	if to == "" {
		return fmt.Errorf("sendgrid: no recipient address")
	}
	body := message(code)
	msg := mail.NewSingleEmail(s.from, "Your verification code", mail.NewEmail("", to), body, "<p>"+body+"</p>")
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
