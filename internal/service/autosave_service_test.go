package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/repository"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/storage"
	"github.com/straye-as/blind-quote/internal/store"
)

type fakeSnapshots struct {
	mu        sync.Mutex
	snapshots []*domain.QuoteSnapshot
	cutoffs   []time.Time
}

func (f *fakeSnapshots) Create(ctx context.Context, s *domain.QuoteSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
	return nil
}

func (f *fakeSnapshots) Latest(ctx context.Context, key string) (*domain.QuoteSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.snapshots) - 1; i >= 0; i-- {
		if f.snapshots[i].Key == key {
			return f.snapshots[i], nil
		}
	}
	return nil, repository.ErrSnapshotNotFound
}

func (f *fakeSnapshots) PruneBefore(ctx context.Context, key string, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 0, nil
}

type recorder struct {
	results []string
}

func (r *recorder) ObserveAutoSave(target, result string) {
	r.results = append(r.results, target+":"+result)
}

func newLocalStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func newAutoSave(t *testing.T, h *harness, docs storage.Storage, snaps service.SnapshotStore, opts service.AutoSaveOptions, rec service.SaveRecorder) *service.AutoSaveService {
	t.Helper()
	svc, err := service.NewAutoSaveService(h.session, h.files, h.migration, docs, snaps, opts, rec, zap.NewNop())
	require.NoError(t, err)
	return svc
}

// ============================================================================
// Construction
// ============================================================================

func TestNewAutoSaveService_Validation(t *testing.T) {
	h := newHarness(t)
	docs := newLocalStorage(t)

	tests := []struct {
		name  string
		docs  storage.Storage
		snaps service.SnapshotStore
		opts  service.AutoSaveOptions
	}{
		{"unknown target", docs, nil, service.AutoSaveOptions{Target: "ftp", Key: "autosave.json"}},
		{"storage target without storage", nil, nil, service.AutoSaveOptions{Target: service.TargetStorage, Key: "autosave.json"}},
		{"database target without repository", docs, nil, service.AutoSaveOptions{Target: service.TargetDatabase, Key: "autosave.json"}},
		{"key escapes storage", docs, nil, service.AutoSaveOptions{Target: service.TargetStorage, Key: "../autosave.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.NewAutoSaveService(h.session, h.files, h.migration, tt.docs, tt.snaps, tt.opts, nil, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

// ============================================================================
// Storage target
// ============================================================================

func TestAutoSaveService_StorageRoundTrip(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	svc := newAutoSave(t, h, newLocalStorage(t), nil,
		service.AutoSaveOptions{Target: service.TargetStorage, Key: "autosave/current.json"}, rec)
	ctx := context.Background()

	_, err := svc.Restore(ctx)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, svc.Save(ctx), service.ErrNothingToSave)

	h.load(row(1200, 1400, "B1"), domain.NewBlankItem())
	require.NoError(t, svc.Save(ctx))

	q, err := svc.Restore(ctx)
	require.NoError(t, err)
	items := q.CurrentItems()
	require.Len(t, items, 2)
	assert.Equal(t, 1200, *items[0].Width)
	assert.Equal(t, h.items()[0].ItemID, items[0].ItemID)

	assert.Equal(t, []string{"storage:skipped", "storage:success"}, rec.results)
	assert.Equal(t, service.TargetStorage, svc.Target())
}

func TestAutoSaveService_RestoreRejectsOversizedDocument(t *testing.T) {
	h := newHarness(t)
	docs := newLocalStorage(t)
	svc := newAutoSave(t, h, docs, nil,
		service.AutoSaveOptions{Target: service.TargetStorage, Key: "autosave.json", MaxBytes: 16}, nil)
	ctx := context.Background()

	_, err := docs.Put(ctx, "autosave.json", service.ContentTypeJSON, strings.NewReader(strings.Repeat(" ", 64)))
	require.NoError(t, err)

	_, err = svc.Restore(ctx)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAutoSaveService_SaveAs(t *testing.T) {
	h := newHarness(t)
	h.files.SetClock(func() time.Time { return time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC) })
	svc := newAutoSave(t, h, newLocalStorage(t), nil,
		service.AutoSaveOptions{Target: service.TargetStorage, Key: "autosave.json"}, nil)
	ctx := context.Background()

	_, err := svc.SaveAs(ctx)
	assert.ErrorIs(t, err, service.ErrNothingToSave)

	h.load(row(1200, 1400, "B1"), domain.NewBlankItem())
	key, err := svc.SaveAs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "quotes/quote-202603040930.json", key)

	require.NoError(t, svc.Save(ctx))
	saved, err := svc.ListSaved(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, key, saved[0].Key)

	data, err := svc.OpenSaved(ctx, key)
	require.NoError(t, err)
	assert.True(t, h.migration.IsQuoteDocument(data))

	_, err = svc.OpenSaved(ctx, "quotes/missing.json")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.OpenSaved(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

// ============================================================================
// Database target
// ============================================================================

func TestAutoSaveService_DatabaseTarget(t *testing.T) {
	h := newHarness(t)
	snaps := &fakeSnapshots{}
	rec := &recorder{}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := newAutoSave(t, h, nil, snaps, service.AutoSaveOptions{
		Target:    service.TargetDatabase,
		Key:       "autosave",
		Retention: 24 * time.Hour,
	}, rec)
	svc.SetClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := svc.Restore(ctx)
	assert.ErrorIs(t, err, service.ErrNotFound)

	h.load(row(1200, 1400, "B1"), row(800, 0, "B1"), domain.NewBlankItem())
	require.Nil(t, h.workflow.CalculateAndSum())
	require.NoError(t, svc.Save(ctx))

	require.Len(t, snaps.snapshots, 1)
	s := snaps.snapshots[0]
	assert.Equal(t, "autosave", s.Key)
	assert.Equal(t, 2, s.ItemCount)
	assert.Equal(t, now, s.CreatedAt)
	require.NotNil(t, s.TotalSum)
	assert.Equal(t, 250.0, *s.TotalSum)
	assert.Equal(t, []time.Time{now.Add(-24 * time.Hour)}, snaps.cutoffs)

	q, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Len(t, q.CurrentItems(), 3)

	assert.Equal(t, []string{"database:success"}, rec.results)

	// saved quotes live in document storage only
	_, err = svc.SaveAs(ctx)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	list, err := svc.ListSaved(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ============================================================================
// Session
// ============================================================================

func TestSession_SerializesCallers(t *testing.T) {
	h := newHarness(t)
	h.load(row(1200, 1400, "B1"), domain.NewBlankItem())

	var wg sync.WaitGroup
	var mu sync.Mutex
	var seen []int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.session.Do(func(_ *store.Store, wf *service.WorkflowService) error {
				wf.CalculateAndSum()
				mu.Lock()
				seen = append(seen, i)
				mu.Unlock()
				return nil
			})
		}(i)
	}
	wg.Wait()

	sort.Ints(seen)
	require.Len(t, seen, 20)
	assert.Equal(t, 19, seen[19])
	pd, _ := h.session.Snapshot().QuoteData.CurrentProductData()
	assert.Equal(t, 250.0, *pd.Summary.TotalSum)
}
