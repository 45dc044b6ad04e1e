// Package notify tells the operator about new submissions. The SMTP mailer is
// used when credentials are configured; otherwise submissions are only logged.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/gc30/certify/internal/config"
)

// Attachment is an image to include with the notification.
type Attachment struct {
	Name string
	Path string
}

// Submission describes a persisted submission to announce.
type Submission struct {
	TrackingCode string
	Email        string
	Attachments  []Attachment
}

// Notifier delivers operator notifications.
type Notifier interface {
	NotifySubmission(ctx context.Context, sub Submission) error
}

// New returns an SMTP mailer when cfg carries credentials, else a LogNotifier.
func New(cfg *config.Config) Notifier {
	if !cfg.MailConfigured() {
		slog.Warn("Email credentials not configured; operator notifications will only be logged")
		return LogNotifier{}
	}
	return &Mailer{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Operator: cfg.Mail.Operator,
		Timeout:  time.Duration(cfg.Mail.TimeoutSeconds) * time.Second,
	}
}

// LogNotifier records submissions in the log instead of sending mail.
type LogNotifier struct{}

// NotifySubmission logs the submission.
func (LogNotifier) NotifySubmission(_ context.Context, sub Submission) error {
	slog.Info("New certification request",
		"request_id", sub.TrackingCode,
		"email", sub.Email,
		"images", len(sub.Attachments))
	return nil
}
