// Package storage persists submission records. The canonical backend is a
// single JSON array on disk; an SQLite backend offers the same interface.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gc30/certify/internal/config"
	"github.com/gc30/certify/internal/models"
)

// ErrDuplicateCode is returned by Append when a record with the same tracking
// code already exists.
var ErrDuplicateCode = errors.New("tracking code already exists")

// Store is the durable collection of submission records. Records are only
// ever appended; FindByCode returns nil, nil when no record matches.
type Store interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, record models.SubmissionRecord) error
	FindByCode(ctx context.Context, code string) (*models.SubmissionRecord, error)
	List(ctx context.Context) ([]models.SubmissionRecord, error)
	Close() error
}

// Open returns the store selected by cfg.Storage.Driver. Callers still need
// to run Initialize before use.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "json":
		return NewJSONStore(cfg.Storage.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func cloneRecord(r models.SubmissionRecord) *models.SubmissionRecord {
	out := r
	out.Images = append([]string(nil), r.Images...)
	return &out
}
