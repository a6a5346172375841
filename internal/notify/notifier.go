// Package notify delivers status-change notifications to candidates.
// Delivery is best effort: a failure never affects the state transition
// that triggered it.
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification carries the fields of one status-change message.
type Notification struct {
	RecipientEmail string
	RequestID      uuid.UUID
	StatusLabel    string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log instead of
// delivering them. Used in development and as the default when SMTP is not
// configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, msg Notification) error {
	n.log.Info("notification",
		zap.String("recipient", msg.RecipientEmail),
		zap.String("request_id", msg.RequestID.String()),
		zap.String("status", msg.StatusLabel),
	)
	return nil
}

// SMTPNotifier delivers notifications over plain SMTP.
type SMTPNotifier struct {
	addr string
	from string
}

// NewSMTPNotifier creates an SMTPNotifier for the given server address
// (host:port) and sender.
func NewSMTPNotifier(addr, from string) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from}
}

// Notify sends the status-change email.
func (n *SMTPNotifier) Notify(_ context.Context, msg Notification) error {
	body := fmt.Sprintf(
		"To: %s\r\nSubject: Interview request update\r\n\r\nYour interview request %s is now %q.\r\n",
		msg.RecipientEmail, msg.RequestID, msg.StatusLabel,
	)
	if err := smtp.SendMail(n.addr, nil, n.from, []string{msg.RecipientEmail}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
