// Package submission implements the request lifecycle: intake of a new
// submission and lookup of an existing one by tracking code.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gc30/certify/internal/models"
	"github.com/gc30/certify/internal/notify"
	"github.com/gc30/certify/internal/storage"
)

// DefaultMinImages is the fewest images a submission may carry.
const DefaultMinImages = 3

// maxCodeAttempts bounds regeneration when a code is already taken.
const maxCodeAttempts = 5

// CodeGenerator produces tracking codes.
type CodeGenerator interface {
	Generate() string
}

// Image is a file already committed to the file area.
type Image struct {
	Name         string
	OriginalName string
}

// Intake is a validated upload ready to be recorded.
type Intake struct {
	Email  string
	Images []Image
}

// Receipt is returned for every persisted submission. Notified is false when
// the operator could not be told; NotifyErr then holds the notification error.
type Receipt struct {
	TrackingCode string
	Notified     bool
	NotifyErr    error
}

// Result is what a lookup exposes about a submission.
type Result struct {
	Email  string   `json:"email"`
	Images []string `json:"images"`
}

// Service coordinates code generation, the store and operator notification.
type Service struct {
	store      storage.Store
	files      FileArea
	codes      CodeGenerator
	notifier   notify.Notifier
	reconciler *Reconciler
	minImages  int
	now        func() time.Time
}

// NewService wires a Service. minImages below DefaultMinImages is raised to it.
func NewService(store storage.Store, files FileArea, codes CodeGenerator, notifier notify.Notifier, minImages int) *Service {
	if minImages < DefaultMinImages {
		minImages = DefaultMinImages
	}
	return &Service{
		store:      store,
		files:      files,
		codes:      codes,
		notifier:   notifier,
		reconciler: NewReconciler(files),
		minImages:  minImages,
		now:        time.Now,
	}
}

// Submit records a new submission and notifies the operator. The record is
// appended before notification is attempted, so a failed notification still
// yields a usable tracking code.
func (s *Service) Submit(ctx context.Context, in Intake) (*Receipt, error) {
	if len(in.Images) < s.minImages {
		slog.Warn("Rejected submission with too few images", "images", len(in.Images), "min", s.minImages)
		return nil, validationError(fmt.Sprintf("Upload at least %d images.", s.minImages))
	}

	names := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		names = append(names, img.Name)
	}
	record := models.SubmissionRecord{
		Email:       in.Email,
		Images:      names,
		SubmittedAt: s.now().UTC(),
	}

	var err error
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		record.TrackingCode = s.codes.Generate()
		err = s.store.Append(ctx, record)
		if !errors.Is(err, storage.ErrDuplicateCode) {
			break
		}
		slog.Warn("Tracking code already in use, generating another", "request_id", record.TrackingCode, "attempt", attempt)
	}
	if err != nil {
		slog.Error("Failed to save request", "err", err)
		return nil, storageError("Failed to save the request.", err)
	}
	slog.Info("Request saved", "request_id", record.TrackingCode, "images", len(names))

	receipt := &Receipt{TrackingCode: record.TrackingCode, Notified: true}

	sub := notify.Submission{
		TrackingCode: record.TrackingCode,
		Email:        record.Email,
		Attachments:  make([]notify.Attachment, 0, len(in.Images)),
	}
	for _, img := range in.Images {
		name := img.OriginalName
		if name == "" {
			name = img.Name
		}
		sub.Attachments = append(sub.Attachments, notify.Attachment{Name: name, Path: s.files.Path(img.Name)})
	}
	if err := s.notifier.NotifySubmission(ctx, sub); err != nil {
		slog.Error("Failed to notify operator", "request_id", record.TrackingCode, "err", err)
		receipt.Notified = false
		receipt.NotifyErr = notificationError("Your request was saved, but staff could not be notified by email.", err)
	}

	return receipt, nil
}

// Lookup returns the submission for code with its images reconciled against
// the file area, or nil when no submission has that code.
func (s *Service) Lookup(ctx context.Context, code string) (*Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("Tracking code not provided.")
	}

	record, err := s.store.FindByCode(ctx, code)
	if err != nil {
		slog.Error("Failed to read requests", "request_id", code, "err", err)
		return nil, storageError("Search failed.", err)
	}
	if record == nil {
		slog.Info("No request found", "request_id", code)
		return nil, nil
	}

	images, err := s.reconciler.Existing(ctx, record.Images)
	if err != nil {
		slog.Error("Failed to check request images", "request_id", code, "err", err)
		return nil, storageError("Search failed.", err)
	}

	slog.Debug("Request found", "request_id", code, "images", len(images))
	return &Result{
		Email:  record.Email,
		Images: images,
	}, nil
}
