package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackerSettingsRepositoryImpl implements TrackerSettingsRepository
type TrackerSettingsRepositoryImpl struct {
	*BaseRepository[models.TrackerSettings, struct{}]
}

// NewTrackerSettingsRepository creates a new tracker settings repository
func NewTrackerSettingsRepository(db *gorm.DB) TrackerSettingsRepository {
	return &TrackerSettingsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TrackerSettings, struct{}](db),
	}
}

// Get returns the settings row or nil when it has not been written yet
func (r *TrackerSettingsRepositoryImpl) Get(ctx context.Context) (*models.TrackerSettings, error) {
	db := r.getDB(ctx)

	var settings models.TrackerSettings
	err := db.Where("id = ?", models.TrackerSettingsID).Take(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load tracker settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the settings row, replacing the tunable columns on conflict
func (r *TrackerSettingsRepositoryImpl) Upsert(ctx context.Context, settings *models.TrackerSettings) error {
	if settings == nil {
		return fmt.Errorf("tracker settings are required")
	}
	db := r.getDB(ctx)

	settings.ID = models.TrackerSettingsID
	settings.UpdatedAt = utils.UTCNow()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"disable_on_login", "data_retention_days", "plugin_version", "db_version", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("failed to save tracker settings: %w", err)
	}
	return nil
}

// Install creates the tracker_settings table
func (r *TrackerSettingsRepositoryImpl) Install(ctx context.Context) error {
	return r.install(ctx)
}

// Uninstall drops the tracker_settings table
func (r *TrackerSettingsRepositoryImpl) Uninstall(ctx context.Context) error {
	return r.uninstall(ctx)
}
