package digest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const (
	maxSubjectLength  = 998
	maxEmailSizeBytes = 10 * 1024 * 1024
	maxSendAttempts   = 3
)

var sendRetryDelays = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}

type emailAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Sender delivers digest emails through the Resend API with bounded retries.
// Authentication and validation failures are not retried.
type Sender struct {
	emails emailAPI
	from   string
	to     string
	delays []time.Duration
	logger *slog.Logger
}

func NewSender(apiKey, from, to string, logger *slog.Logger) *Sender {
	client := resend.NewClient(apiKey)

	return &Sender{
		emails: client.Emails,
		from:   from,
		to:     to,
		delays: sendRetryDelays,
		logger: logger,
	}
}

func (s *Sender) Recipient() string {
	return s.to
}

// Send delivers one email and returns the provider's message id.
func (s *Sender) Send(subject, html, plainText string) (string, error) {
	if len(subject) > maxSubjectLength {
		return "", fmt.Errorf("subject too long: %d > %d chars", len(subject), maxSubjectLength)
	}
	if size := len(html) + len(plainText); size > maxEmailSizeBytes {
		return "", fmt.Errorf("email too large: %d > %d bytes", size, maxEmailSizeBytes)
	}

	var lastErr error
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.delays[attempt-1])
		}
		s.logger.Info("sending email",
			slog.Int("attempt", attempt+1),
			slog.String("to", s.to))

		sent, err := s.emails.Send(&resend.SendEmailRequest{
			From:    s.from,
			To:      []string{s.to},
			Subject: subject,
			Html:    html,
			Text:    plainText,
		})
		if err == nil {
			s.logger.Info("email sent",
				slog.String("to", s.to),
				slog.String("email_id", sent.Id))

			return sent.Id, nil
		}

		if !sendRetryable(err) {
			return "", fmt.Errorf("send email: %w", err)
		}
		lastErr = err
		s.logger.Warn("email send attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return "", fmt.Errorf("send email failed after %d attempts: %w", maxSendAttempts, lastErr)
}

func sendRetryable(err error) bool {
	msg := strings.ToLower(err.Error())

	return !strings.Contains(msg, "invalid") && !strings.Contains(msg, "unauthorized")
}
