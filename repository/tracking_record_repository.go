package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TrackingRecordRepositoryImpl implements TrackingRecordRepository
type TrackingRecordRepositoryImpl struct {
	*BaseRepository[models.TrackingRecord, models.TrackingRecordFilter]
}

// NewTrackingRecordRepository creates a new tracking record repository
func NewTrackingRecordRepository(db *gorm.DB) TrackingRecordRepository {
	return &TrackingRecordRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TrackingRecord, models.TrackingRecordFilter](db),
	}
}

// Insert persists a sanitized submission. No sanitization happens here.
func (r *TrackingRecordRepositoryImpl) Insert(ctx context.Context, screen string, links []models.LinkEntry) (uint, error) {
	if links == nil {
		links = []models.LinkEntry{}
	}
	record := models.TrackingRecord{
		Screen:    screen,
		Links:     datatypes.JSONSlice[models.LinkEntry](links),
		CreatedAt: utils.UTCNow(),
	}
	if err := r.Save(ctx, &record); err != nil {
		return 0, fmt.Errorf("failed to insert tracking record: %w", err)
	}
	return record.ID, nil
}

// List returns records ordered by created_at DESC
func (r *TrackingRecordRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.TrackingRecord, error) {
	return r.ByFilter(ctx, models.TrackingRecordFilter{}, "", limit, offset)
}

// PurgeOlderThan deletes the oldest expired rows, at most batchLimit per call.
// The bounded delete goes through an id subquery since neither PostgreSQL nor SQLite accepts DELETE ... LIMIT.
func (r *TrackingRecordRepositoryImpl) PurgeOlderThan(ctx context.Context, days, batchLimit int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("retention days must not be negative: %d", days)
	}
	if batchLimit <= 0 {
		batchLimit = utils.DefaultPurgeBatch
	}
	cutoff := utils.DaysAgo(days)

	db := r.getDB(ctx)
	res := db.Exec(
		"DELETE FROM above_fold_links WHERE id IN (SELECT id FROM above_fold_links WHERE created_at < ? ORDER BY created_at ASC, id ASC LIMIT ?)",
		cutoff, batchLimit,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge tracking records older than %d days: %w", days, res.Error)
	}
	return res.RowsAffected, nil
}

// Install creates the above_fold_links table and its created_at index
func (r *TrackingRecordRepositoryImpl) Install(ctx context.Context) error {
	return r.install(ctx)
}

// Uninstall drops the above_fold_links table
func (r *TrackingRecordRepositoryImpl) Uninstall(ctx context.Context) error {
	return r.uninstall(ctx)
}

// applyFilter applies filter criteria to a GORM query
func (r *TrackingRecordRepositoryImpl) applyFilter(query *gorm.DB, filter models.TrackingRecordFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Screen != nil {
		query = query.Where("screen = ?", *filter.Screen)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tracking records based on filter criteria
func (r *TrackingRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.TrackingRecordFilter, orderBy string, limit, offset int) ([]*models.TrackingRecord, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TrackingRecord{})

	query = r.applyFilter(query, filter)

	// Newest first; id breaks ties between rows stored in the same instant
	if orderBy == "" {
		orderBy = "created_at DESC, id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []*models.TrackingRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracking records: %w", err)
	}

	return records, nil
}

// Count returns the number of tracking records matching the filter
func (r *TrackingRecordRepositoryImpl) Count(ctx context.Context, filter models.TrackingRecordFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.TrackingRecord{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count tracking records: %w", err)
	}

	return count, nil
}

// Exists checks if any tracking record matching the filter exists
func (r *TrackingRecordRepositoryImpl) Exists(ctx context.Context, filter models.TrackingRecordFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
