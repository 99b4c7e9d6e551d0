// Package sms delivers text messages to subscribers, primarily verification
// codes during onboarding.
package sms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mxe-wallet/mxe_wallet/internal/config"
)

// Sender delivers a text message to an E.164 destination.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender posts messages to the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	base       string
}

// NewTwilioSender builds a Twilio-backed sender from configuration.
func NewTwilioSender(cfg config.Config) *TwilioSender {
	return &TwilioSender{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFromNumber,
		client:     &http.Client{Timeout: 10 * time.Second},
		base:       twilioAPIBase,
	}
}

// Send submits one message. Twilio accepts application/x-www-form-urlencoded
// bodies authenticated with basic auth.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.base, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send sms: twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// LogSender writes messages to the structured logger instead of delivering
// them. Used in development when no Twilio credentials are configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a logging sender stub.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("sms", "to", to, "body", body)
	return nil
}
