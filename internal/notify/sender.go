package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Sender delivers a notification to a recipient. Implementations are external
// collaborators: callers log failures and carry on, a lost notification never
// fails the operation that triggered it.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body, htmlBody string) error
}

type smtpSender struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPSender creates a Sender that delivers over plain SMTP
func NewSMTPSender(host, port, user, pass, from string) Sender {
	return &smtpSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *smtpSender) Send(ctx context.Context, recipient, subject, body, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + recipient + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	if htmlBody != "" {
		msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(htmlBody)
	} else {
		msg.WriteString("\r\n")
		msg.WriteString(body)
	}

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

type logSender struct {
	logger *zap.Logger
}

// NewLogSender creates a Sender that only logs, for development and tests
func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(ctx context.Context, recipient, subject, body, htmlBody string) error {
	s.logger.Info("Notification (not sent)",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
	)
	return nil
}
