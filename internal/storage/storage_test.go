package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gc30/certify/internal/models"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) Store
}

var backends = []backend{
	{
		name: "json",
		open: func(t *testing.T, dir string) Store {
			return NewJSONStore(filepath.Join(dir, "requests.json"))
		},
	},
	{
		name: "sqlite",
		open: func(t *testing.T, dir string) Store {
			s, err := OpenSQLite(filepath.Join(dir, "requests.db"))
			require.NoError(t, err)
			return s
		},
	},
}

func openInitialized(t *testing.T, b backend) Store {
	t.Helper()
	s := b.open(t, t.TempDir())
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func record(code string, images ...string) models.SubmissionRecord {
	return models.SubmissionRecord{
		TrackingCode: code,
		Email:        "x@y.com",
		Images:       images,
	}
}

func TestAppendFindRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := openInitialized(t, b)

			submitted := time.Date(2025, time.July, 19, 10, 0, 0, 0, time.UTC)
			rec := record("GC30-20250719-4721", "a.jpg", "b.png", "c.jpg")
			rec.SubmittedAt = submitted
			require.NoError(t, s.Append(ctx, rec))

			found, err := s.FindByCode(ctx, "GC30-20250719-4721")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "x@y.com", found.Email)
			assert.Equal(t, []string{"a.jpg", "b.png", "c.jpg"}, found.Images)
			assert.True(t, submitted.Equal(found.SubmittedAt))
		})
	}
}

func TestFindByCodeMissing(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := openInitialized(t, b)
			found, err := s.FindByCode(context.Background(), "GC30-20250719-0000")
			require.NoError(t, err)
			assert.Nil(t, found)
		})
	}
}

func TestAppendPreservesOrderAndRejectsDuplicates(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := openInitialized(t, b)

			require.NoError(t, s.Append(ctx, record("GC30-20250719-0001", "a.jpg")))
			require.NoError(t, s.Append(ctx, record("GC30-20250719-0002", "b.jpg")))

			err := s.Append(ctx, record("GC30-20250719-0001", "c.jpg"))
			assert.ErrorIs(t, err, ErrDuplicateCode)

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "GC30-20250719-0001", all[0].TrackingCode)
			assert.Equal(t, "GC30-20250719-0002", all[1].TrackingCode)
		})
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := openInitialized(t, b)
			require.NoError(t, s.Append(ctx, record("GC30-20250719-0001", "a.jpg")))

			require.NoError(t, s.Initialize(ctx))

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestConcurrentAppendsAllSurvive(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			first := b.open(t, dir)
			t.Cleanup(func() { _ = first.Close() })
			require.NoError(t, first.Initialize(ctx))

			const writers = 20
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					s := first
					if b.name == "json" && i%2 == 1 {
						// A second handle on the same file stands in for another process.
						s = b.open(t, dir)
						defer s.Close()
					}
					errs <- s.Append(ctx, record(fmt.Sprintf("GC30-20250719-%04d", i), "a.jpg"))
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			all, err := first.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, writers)
		})
	}
}

func TestJSONStoreOnDiskShape(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "requests.json")
	s := NewJSONStore(path)
	require.NoError(t, s.Initialize(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	require.NoError(t, s.Append(ctx, record("GC30-20250719-4721", "a.jpg", "b.jpg", "c.jpg")))

	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"requestId":"GC30-20250719-4721","email":"x@y.com","images":["a.jpg","b.jpg","c.jpg"]}]`, string(raw))
}

func TestJSONStoreReadsLegacyFiles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "requests.json")
	legacy := []map[string]any{
		{"requestId": "GC30-20250719-1111", "email": "a@b.it", "images": []string{"1.jpg", "2.jpg", "3.jpg"}},
		{"trackingCode": "GC30-20250719-2222", "email": "c@d.it", "images": []string{"4.jpg", "5.jpg", "6.jpg"}},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s := NewJSONStore(path)
	require.NoError(t, s.Initialize(ctx))

	found, err := s.FindByCode(ctx, "GC30-20250719-2222")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "c@d.it", found.Email)

	found, err = s.FindByCode(ctx, "GC30-20250719-1111")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"1.jpg", "2.jpg", "3.jpg"}, found.Images)
}

func TestJSONStoreInitializeMovesCorruptFileAside(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "requests.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewJSONStore(path)
	require.NoError(t, s.Initialize(ctx))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	kept, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestJSONStoreTreatsEmptyFileAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "requests.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s := NewJSONStore(path)
	require.NoError(t, s.Append(ctx, record("GC30-20250719-0001", "a.jpg")))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJSONStoreInitializeRewritesBlankFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "whitespace", content: " \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "requests.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s := NewJSONStore(path)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.Initialize(context.Background()))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(data))

			matches, err := filepath.Glob(path + ".corrupt-*")
			require.NoError(t, err)
			assert.Empty(t, matches, "a blank store is not corrupt")
		})
	}
}

func TestSQLiteStorePathWithURICharacters(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data?mode=memory#1 %41")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "requests.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Append(ctx, record("GC30-20250719-0001", "a.jpg")))

	_, err = os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	got, err := reopened.FindByCode(ctx, "GC30-20250719-0001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"a.jpg"}, got.Images)
}

func TestJSONStoreReadFailureIsReported(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := s.FindByCode(context.Background(), "GC30-20250719-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read store")
}
