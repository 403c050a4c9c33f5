package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"railwatch-service/internal/domain/repository"
	"railwatch-service/pkg/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender delivers alert mail through the Gmail API
type GmailSender struct {
	gmailService *gmail.Service
	sender       string
	logger       logger.Logger
}

// NewGmailSender creates a new Gmail sender
func NewGmailSender(ctx context.Context, tokenSource oauth2.TokenSource, sender string, logger logger.Logger) (*GmailSender, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, err
	}

	return &GmailSender{
		gmailService: service,
		sender:       sender,
		logger:       logger,
	}, nil
}

// Send delivers one HTML mail. A nil return means the message was
// accepted by Gmail; callers gate cooldown bookkeeping on that.
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	raw := buildRawMessage(s.sender, to, subject, htmlBody)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := s.gmailService.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}

	s.logger.Info("Alert mail delivered", "to", to, "subject", subject)
	return nil
}

// buildRawMessage assembles an RFC 822 HTML message. Subjects carry
// non-ASCII seat class names, so the header is Q-encoded.
func buildRawMessage(from, to, subject, htmlBody string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}

var _ repository.EmailRepository = (*GmailSender)(nil)
