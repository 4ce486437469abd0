package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/straye-as/blind-quote/internal/domain"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a key
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores quote documents in the quote_snapshots table
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot, assigning an id when missing
func (r *SnapshotRepository) Create(ctx context.Context, snapshot *domain.QuoteSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// Latest returns the newest snapshot stored under key
func (r *SnapshotRepository) Latest(ctx context.Context, key string) (*domain.QuoteSnapshot, error) {
	var snapshot domain.QuoteSnapshot
	err := r.db.WithContext(ctx).
		Where("snapshot_key = ?", key).
		Order("created_at DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// GetByID returns one snapshot including its document
func (r *SnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteSnapshot, error) {
	var snapshot domain.QuoteSnapshot
	err := r.db.WithContext(ctx).First(&snapshot, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// ListByKey returns the newest snapshots under key without their documents
func (r *SnapshotRepository) ListByKey(ctx context.Context, key string, limit int) ([]domain.QuoteSnapshot, error) {
	var snapshots []domain.QuoteSnapshot
	err := r.db.WithContext(ctx).
		Select("id", "snapshot_key", "quote_id", "item_count", "total_sum", "created_at").
		Where("snapshot_key = ?", key).
		Order("created_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// PruneBefore deletes snapshots under key older than cutoff, always keeping the newest one
func (r *SnapshotRepository) PruneBefore(ctx context.Context, key string, cutoff time.Time) (int64, error) {
	latest, err := r.Latest(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return 0, nil
		}
		return 0, err
	}
	result := r.db.WithContext(ctx).
		Where("snapshot_key = ? AND created_at < ? AND id <> ?", key, cutoff, latest.ID).
		Delete(&domain.QuoteSnapshot{})
	return result.RowsAffected, result.Error
}
