package submission

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gc30/certify/internal/models"
	"github.com/gc30/certify/internal/notify"
	"github.com/gc30/certify/internal/storage"
	"github.com/gc30/certify/internal/testsupport"
	"github.com/gc30/certify/internal/trackingcode"
	"github.com/gc30/certify/internal/uploads"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notify.Submission
	err   error
}

func (n *recordingNotifier) NotifySubmission(_ context.Context, sub notify.Submission) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sub)
	return n.err
}

type sequenceCodes struct {
	codes []string
	next  int
}

func (s *sequenceCodes) Generate() string {
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code
}

type failingStore struct {
	storage.Store
	appendErr error
	findErr   error
}

func (f *failingStore) Append(ctx context.Context, r models.SubmissionRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Store.Append(ctx, r)
}

func (f *failingStore) FindByCode(ctx context.Context, code string) (*models.SubmissionRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Store.FindByCode(ctx, code)
}

type detachedStore struct {
	storage.Store
}

func (d detachedStore) FindByCode(_ context.Context, code string) (*models.SubmissionRecord, error) {
	return d.Store.FindByCode(context.Background(), code)
}

type fixture struct {
	service  *Service
	store    storage.Store
	area     *uploads.Area
	notifier *recordingNotifier
}

func newFixture(t *testing.T, codes CodeGenerator) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewJSONStore(filepath.Join(dir, "requests.json"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Initialize(context.Background()))

	area := uploads.NewArea(filepath.Join(dir, "uploads"), uploads.Limits{MaxFiles: 10, MaxFileSize: 1 << 20})
	if codes == nil {
		codes = trackingcode.New("GC30")
	}
	notifier := &recordingNotifier{}
	return &fixture{
		service:  NewService(store, area, codes, notifier, DefaultMinImages),
		store:    store,
		area:     area,
		notifier: notifier,
	}
}

func (f *fixture) images(t *testing.T, names ...string) []Image {
	t.Helper()
	testsupport.TouchFiles(t, f.area.Dir(), names...)
	out := make([]Image, 0, len(names))
	for _, n := range names {
		out = append(out, Image{Name: n, OriginalName: "orig-" + n})
	}
	return out
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	all, err := f.store.List(context.Background())
	require.NoError(t, err)
	return len(all)
}

func TestSubmitThenLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	receipt, err := f.service.Submit(ctx, Intake{Email: "x@y.com", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.NoError(t, err)
	assert.True(t, trackingcode.Valid(receipt.TrackingCode), "malformed code %q", receipt.TrackingCode)
	assert.True(t, receipt.Notified)
	assert.NoError(t, receipt.NotifyErr)

	result, err := f.service.Lookup(ctx, receipt.TrackingCode)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "x@y.com", result.Email)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, result.Images)
}

func TestSubmitNotifiesWithAttachments(t *testing.T) {
	f := newFixture(t, nil)

	receipt, err := f.service.Submit(context.Background(), Intake{Email: "x@y.com", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.NoError(t, err)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, receipt.TrackingCode, call.TrackingCode)
	assert.Equal(t, "x@y.com", call.Email)
	require.Len(t, call.Attachments, 3)
	assert.Equal(t, "orig-a.jpg", call.Attachments[0].Name)
	assert.Equal(t, f.area.Path("a.jpg"), call.Attachments[0].Path)
}

func TestSubmitRejectsTooFewImages(t *testing.T) {
	tests := []struct {
		name   string
		images []string
	}{
		{name: "none", images: nil},
		{name: "one", images: []string{"a.jpg"}},
		{name: "two", images: []string{"a.jpg", "b.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			before := f.count(t)

			_, err := f.service.Submit(context.Background(), Intake{Email: "x@y.com", Images: f.images(t, tt.images...)})
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, before, f.count(t), "store must not change")
			assert.Empty(t, f.notifier.calls, "operator must not be notified")
		})
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	f := newFixture(t, nil)
	boom := errors.New("disk full")
	f.service.store = &failingStore{Store: f.store, appendErr: boom}

	_, err := f.service.Submit(context.Background(), Intake{Email: "x@y.com", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.notifier.calls)
}

func TestSubmitNotificationFailureStillPersists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.notifier.err = errors.New("smtp: 535 authentication failed")

	receipt, err := f.service.Submit(ctx, Intake{Email: "x@y.com", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.NoError(t, err)
	assert.False(t, receipt.Notified)
	assert.Equal(t, KindNotification, KindOf(receipt.NotifyErr))

	result, err := f.service.Lookup(ctx, receipt.TrackingCode)
	require.NoError(t, err)
	require.NotNil(t, result, "record must be persisted before notification")
}

func TestSubmitRegeneratesTakenCode(t *testing.T) {
	ctx := context.Background()
	codes := &sequenceCodes{codes: []string{"GC30-20250719-1111", "GC30-20250719-1111", "GC30-20250719-2222"}}
	f := newFixture(t, codes)

	first, err := f.service.Submit(ctx, Intake{Email: "a@b.it", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.NoError(t, err)
	second, err := f.service.Submit(ctx, Intake{Email: "c@d.it", Images: f.images(t, "d.jpg", "e.jpg", "f.jpg")})
	require.NoError(t, err)

	assert.Equal(t, "GC30-20250719-1111", first.TrackingCode)
	assert.Equal(t, "GC30-20250719-2222", second.TrackingCode)
	assert.Equal(t, 2, f.count(t))
}

func TestSubmitGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	codes := &sequenceCodes{codes: []string{"GC30-20250719-1111"}}
	f := newFixture(t, codes)

	_, err := f.service.Submit(ctx, Intake{Email: "a@b.it", Images: f.images(t, "a.jpg", "b.jpg", "c.jpg")})
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, Intake{Email: "c@d.it", Images: f.images(t, "d.jpg", "e.jpg", "f.jpg")})
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.ErrorIs(t, err, storage.ErrDuplicateCode)
}

func TestLookupNotFound(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.service.Lookup(context.Background(), "GC30-20250719-0000")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestLookupBlankCode(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Lookup(context.Background(), "   ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestLookupStorageFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.service.store = &failingStore{Store: f.store, findErr: errors.New("parse store: unexpected EOF")}

	_, err := f.service.Lookup(context.Background(), "GC30-20250719-0000")
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))
}

func TestLookupDropsMissingImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	require.NoError(t, f.store.Append(ctx, models.SubmissionRecord{
		TrackingCode: "GC30-20250719-4721",
		Email:        "x@y.com",
		Images:       []string{"a.jpg", "b.jpg", "c.jpg"},
	}))
	testsupport.TouchFiles(t, f.area.Dir(), "a.jpg", "c.jpg")

	result, err := f.service.Lookup(ctx, "GC30-20250719-4721")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a.jpg", "c.jpg"}, result.Images)
}

func TestConcurrentSubmitsAllSurvive(t *testing.T) {
	f := newFixture(t, nil)
	images := f.images(t, "a.jpg", "b.jpg", "c.jpg")

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Submit(context.Background(), Intake{Email: "x@y.com", Images: images})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, f.count(t))
}

func TestNewServiceRaisesMinImages(t *testing.T) {
	f := newFixture(t, nil)
	service := NewService(f.store, f.area, trackingcode.New("GC30"), f.notifier, 1)

	_, err := service.Submit(context.Background(), Intake{Email: "x@y.com", Images: f.images(t, "a.jpg")})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, f.count(t))
	assert.Empty(t, f.notifier.calls)
}

func TestLookupCancelledContext(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Append(context.Background(), models.SubmissionRecord{
		TrackingCode: "GC30-20250719-4721",
		Email:        "x@y.com",
		Images:       []string{"a.jpg", "b.jpg", "c.jpg"},
	}))
	testsupport.TouchFiles(t, f.area.Dir(), "a.jpg", "b.jpg", "c.jpg")

	// The store read succeeds; only the image checks see the cancellation.
	f.service.store = detachedStore{Store: f.store}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.Lookup(ctx, "GC30-20250719-4721")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}
