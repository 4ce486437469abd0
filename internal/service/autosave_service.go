package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/repository"
	"github.com/straye-as/blind-quote/internal/storage"
)

// Auto-save targets
const (
	TargetStorage  = "storage"
	TargetDatabase = "database"
)

// Auto-save results reported to the SaveRecorder
const (
	ResultSuccess = "success"
	ResultSkipped = "skipped"
	ResultFailure = "failure"
)

// savedPrefix is the storage folder for explicitly saved quotes
const savedPrefix = "quotes/"

// DefaultMaxDocumentBytes bounds documents read back from storage
const DefaultMaxDocumentBytes int64 = 10 << 20

// StateReader exposes the state to persist
type StateReader interface {
	Snapshot() *domain.State
}

// SnapshotStore persists quote documents as database rows
type SnapshotStore interface {
	Create(ctx context.Context, snapshot *domain.QuoteSnapshot) error
	Latest(ctx context.Context, key string) (*domain.QuoteSnapshot, error)
	PruneBefore(ctx context.Context, key string, cutoff time.Time) (int64, error)
}

// SaveRecorder receives the outcome of every auto-save attempt
type SaveRecorder interface {
	ObserveAutoSave(target, result string)
}

// AutoSaveService writes the current quote document to the configured target
// and reads it back on start-up
type AutoSaveService struct {
	reader    StateReader
	files     *FileService
	migration *MigrationService
	documents storage.Storage
	snapshots SnapshotStore
	target    string
	key       string
	retention time.Duration
	maxBytes  int64
	recorder  SaveRecorder
	now       func() time.Time
	logger    *zap.Logger
}

// AutoSaveOptions holds the auto-save settings
type AutoSaveOptions struct {
	Target    string
	Key       string
	Retention time.Duration
	MaxBytes  int64
}

// NewAutoSaveService creates a new AutoSaveService instance. documents or
// snapshots may be nil when the matching target is not configured.
func NewAutoSaveService(
	reader StateReader,
	files *FileService,
	migration *MigrationService,
	documents storage.Storage,
	snapshots SnapshotStore,
	opts AutoSaveOptions,
	recorder SaveRecorder,
	logger *zap.Logger,
) (*AutoSaveService, error) {
	switch opts.Target {
	case TargetStorage:
		if documents == nil {
			return nil, fmt.Errorf("%w: storage target requires a storage backend", ErrInvalidInput)
		}
	case TargetDatabase:
		if snapshots == nil {
			return nil, fmt.Errorf("%w: database target requires a snapshot repository", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown auto-save target %q", ErrInvalidInput, opts.Target)
	}
	if err := storage.ValidateKey(opts.Key); err != nil {
		return nil, fmt.Errorf("auto-save key: %w", err)
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxDocumentBytes
	}

	return &AutoSaveService{
		reader:    reader,
		files:     files,
		migration: migration,
		documents: documents,
		snapshots: snapshots,
		target:    opts.Target,
		key:       opts.Key,
		retention: opts.Retention,
		maxBytes:  opts.MaxBytes,
		recorder:  recorder,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// SetClock replaces the time source used for snapshot timestamps
func (s *AutoSaveService) SetClock(now func() time.Time) {
	s.now = now
}

// Target returns the configured target
func (s *AutoSaveService) Target() string {
	return s.target
}

// Save writes the current quote document. It returns ErrNothingToSave when
// the quote holds no user input.
func (s *AutoSaveService) Save(ctx context.Context) error {
	state := s.reader.Snapshot()
	if !state.QuoteData.HasData() {
		s.record(ResultSkipped)
		return ErrNothingToSave
	}

	doc, err := s.files.ExportJSON(state.QuoteData)
	if err != nil {
		s.record(ResultFailure)
		return fmt.Errorf("failed to encode quote: %w", err)
	}

	switch s.target {
	case TargetDatabase:
		err = s.saveSnapshot(ctx, state.QuoteData, doc)
	default:
		_, err = s.documents.Put(ctx, s.key, ContentTypeJSON, bytes.NewReader(doc))
	}
	if err != nil {
		s.record(ResultFailure)
		return fmt.Errorf("failed to write auto-save to %s: %w", s.target, err)
	}

	s.record(ResultSuccess)
	s.logger.Debug("Quote auto-saved",
		zap.String("target", s.target),
		zap.Int("bytes", len(doc)))
	return nil
}

func (s *AutoSaveService) saveSnapshot(ctx context.Context, q *domain.QuoteData, doc []byte) error {
	pd, _ := q.CurrentProductData()
	count := 0
	for _, item := range pd.Items {
		if item.HasDimension() {
			count++
		}
	}
	snapshot := &domain.QuoteSnapshot{
		Key:       s.key,
		QuoteID:   deref(q.QuoteID),
		ItemCount: count,
		TotalSum:  pd.Summary.TotalSum,
		Document:  string(doc),
		CreatedAt: s.now(),
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return err
	}

	if s.retention > 0 {
		pruned, err := s.snapshots.PruneBefore(ctx, s.key, s.now().Add(-s.retention))
		if err != nil {
			s.logger.Warn("Failed to prune old quote snapshots", zap.Error(err))
		} else if pruned > 0 {
			s.logger.Info("Pruned old quote snapshots", zap.Int64("count", pruned))
		}
	}
	return nil
}

// Restore reads the last auto-saved document. It returns ErrNotFound when
// nothing was saved yet.
func (s *AutoSaveService) Restore(ctx context.Context) (*domain.QuoteData, error) {
	var raw []byte
	switch s.target {
	case TargetDatabase:
		snapshot, err := s.snapshots.Latest(ctx, s.key)
		if err != nil {
			if errors.Is(err, repository.ErrSnapshotNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		raw = []byte(snapshot.Document)
	default:
		body, err := s.documents.Get(ctx, s.key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("failed to read auto-save: %w", err)
		}
		defer body.Close()
		raw, err = readAllLimited(body, s.maxBytes)
		if err != nil {
			return nil, err
		}
	}

	q, err := s.migration.Migrate(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to restore auto-save: %w", err)
	}
	return q, nil
}

// SaveAs stores the current quote under a timestamped name in the document
// storage and returns its key
func (s *AutoSaveService) SaveAs(ctx context.Context) (string, error) {
	if s.documents == nil {
		return "", fmt.Errorf("%w: no document storage configured", ErrInvalidInput)
	}
	state := s.reader.Snapshot()
	if !state.QuoteData.HasData() {
		return "", ErrNothingToSave
	}
	doc, err := s.files.ExportJSON(state.QuoteData)
	if err != nil {
		return "", fmt.Errorf("failed to encode quote: %w", err)
	}

	key := savedPrefix + s.files.FileName(ExtJSON)
	if _, err := s.documents.Put(ctx, key, ContentTypeJSON, bytes.NewReader(doc)); err != nil {
		return "", fmt.Errorf("failed to save quote: %w", err)
	}
	s.logger.Info("Quote saved", zap.String("key", key))
	return key, nil
}

// ListSaved returns the explicitly saved quotes
func (s *AutoSaveService) ListSaved(ctx context.Context) ([]storage.Info, error) {
	if s.documents == nil {
		return []storage.Info{}, nil
	}
	return s.documents.List(ctx, savedPrefix)
}

// OpenSaved reads a saved quote document. The caller loads it through the
// regular file load path.
func (s *AutoSaveService) OpenSaved(ctx context.Context, key string) ([]byte, error) {
	if s.documents == nil {
		return nil, ErrNotFound
	}
	if err := storage.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	body, err := s.documents.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()
	return readAllLimited(body, s.maxBytes)
}

func (s *AutoSaveService) record(result string) {
	if s.recorder != nil {
		s.recorder.ObserveAutoSave(s.target, result)
	}
}
