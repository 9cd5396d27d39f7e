// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/above-fold-tracker/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// TrackingRecordRepository defines operations for above-the-fold submissions
type TrackingRecordRepository interface {
	Repository[models.TrackingRecord, models.TrackingRecordFilter]
	// Insert stores an already sanitized submission and returns its id
	Insert(ctx context.Context, screen string, links []models.LinkEntry) (uint, error)
	// List returns records newest first
	List(ctx context.Context, limit, offset int) ([]*models.TrackingRecord, error)
	// PurgeOlderThan deletes at most batchLimit rows created more than days ago
	PurgeOlderThan(ctx context.Context, days, batchLimit int) (int64, error)
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}

// AdminRepository defines operations for admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Admin, error)
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint) error
	Install(ctx context.Context) error
}

// TrackerSettingsRepository defines operations for the single settings row
type TrackerSettingsRepository interface {
	// Get returns the settings row, or nil when none has been written
	Get(ctx context.Context) (*models.TrackerSettings, error)
	Upsert(ctx context.Context, settings *models.TrackerSettings) error
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}
