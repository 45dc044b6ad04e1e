package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/gc30/certify/internal/models"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONStore keeps all records in one JSON array file. Every write rewrites
// the whole file; writes are serialized by an in-process mutex plus an
// advisory lock on <path>.lock, and land through a rename so readers never
// observe a partial file.
type JSONStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Initialize creates an empty store when the file is missing. An unreadable
// or unparsable file is moved aside to <path>.corrupt-<unix> and replaced.
func (s *JSONStore) Initialize(ctx context.Context) error {
	return s.withWriteLock(ctx, func() error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Creating submission store", "path", s.path)
			return s.writeAll(nil)
		}
		if err == nil && len(bytes.TrimSpace(data)) == 0 {
			slog.Info("Submission store empty, writing empty collection", "path", s.path)
			return s.writeAll(nil)
		}
		if err == nil {
			var records []models.SubmissionRecord
			records, err = decodeRecords(data)
			if err == nil {
				slog.Info("Submission store ready", "path", s.path, "records", len(records))
				return nil
			}
		}

		aside := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return fmt.Errorf("move aside unreadable store: %w", renameErr)
		}
		slog.Warn("Submission store unreadable, starting empty", "path", s.path, "moved_to", aside, "err", err)
		return s.writeAll(nil)
	})
}

// Append adds record to the end of the collection.
func (s *JSONStore) Append(ctx context.Context, record models.SubmissionRecord) error {
	return s.withWriteLock(ctx, func() error {
		records, err := s.readAll()
		if err != nil {
			return err
		}
		for _, existing := range records {
			if existing.TrackingCode == record.TrackingCode {
				return ErrDuplicateCode
			}
		}
		records = append(records, *cloneRecord(record))
		return s.writeAll(records)
	})
}

// FindByCode returns the first record with the given code, or nil.
func (s *JSONStore) FindByCode(ctx context.Context, code string) (*models.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record.TrackingCode == code {
			return cloneRecord(record), nil
		}
	}
	return nil, nil
}

// List returns every record in insertion order.
func (s *JSONStore) List(ctx context.Context) ([]models.SubmissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.readAll()
}

// Close releases the advisory lock handle.
func (s *JSONStore) Close() error {
	return s.lock.Close()
}

func (s *JSONStore) withWriteLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire store lock: %s is held by another process", s.lock.Path())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Warn("Failed to release store lock", "path", s.lock.Path(), "err", err)
		}
	}()

	return fn()
}

func (s *JSONStore) readAll() ([]models.SubmissionRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parse store: %w", err)
	}
	return records, nil
}

func decodeRecords(data []byte) ([]models.SubmissionRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []models.SubmissionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *JSONStore) writeAll(records []models.SubmissionRecord) error {
	if records == nil {
		records = []models.SubmissionRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
