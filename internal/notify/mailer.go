package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// Mailer sends one message per submission to a fixed operator address.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Operator string
	Timeout  time.Duration
}

// NotifySubmission emails the operator with the submission's images attached.
func (m *Mailer) NotifySubmission(ctx context.Context, sub Submission) error {
	msg, err := m.buildMessage(sub)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithTimeout(m.timeout()),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}

	slog.Info("Operator notified", "request_id", sub.TrackingCode, "to", m.Operator, "attachments", len(sub.Attachments))
	return nil
}

func (m *Mailer) buildMessage(sub Submission) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.From, err)
	}
	if err := msg.To(m.Operator); err != nil {
		return nil, fmt.Errorf("invalid operator address %q: %w", m.Operator, err)
	}
	msg.Subject(Subject(sub.TrackingCode))
	msg.SetBodyString(mail.TypeTextPlain, Body(sub))
	for _, a := range sub.Attachments {
		msg.AttachFile(a.Path, mail.WithFileName(a.Name))
	}
	return msg, nil
}

func (m *Mailer) timeout() time.Duration {
	if m.Timeout <= 0 {
		return 30 * time.Second
	}
	return m.Timeout
}

// Subject is the operator email subject for a tracking code.
func Subject(code string) string {
	return "New certification request - " + code
}

// Body is the plain-text operator email body.
func Body(sub Submission) string {
	return fmt.Sprintf("New autograph certification request:\n\nCustomer email: %s\nRequest code: %s\nNumber of images: %d\n",
		sub.Email, sub.TrackingCode, len(sub.Attachments))
}
