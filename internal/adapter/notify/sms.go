package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SMSGateway posts codes to an HTTP SMS gateway.
type SMSGateway struct {
	client *resty.Client
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func NewSMSGateway(baseURL, apiKey string) *SMSGateway {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &SMSGateway{client: c}
}

func (s *SMSGateway) Channel() string { return channelSMS }

func (s *SMSGateway) SendCode(ctx context.Context, to, code string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(smsRequest{To: to, Message: message(code)}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
