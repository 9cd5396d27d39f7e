package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/redis/go-redis/v9"
)

// RetentionFlow removes tracking records that fell out of the retention window
type RetentionFlow interface {
	// Purge deletes one bounded batch of expired records.
	// A run that finds another run in progress reports Skipped instead of failing.
	Purge(ctx context.Context) (*dto.PurgeResponse, error)
	RetentionDays(ctx context.Context) (int, error)
}

// RetentionOptions tunes the purge
type RetentionOptions struct {
	DefaultDays int
	BatchLimit  int
	LockKey     string
	LockTTL     time.Duration
}

type RetentionFlowImpl struct {
	recordRepo   repository.TrackingRecordRepository
	settingsRepo repository.TrackerSettingsRepository
	rc           redis.UniversalClient
	opts         RetentionOptions
}

// NewRetentionFlow creates the retention flow. rc may be nil when no cache is configured.
func NewRetentionFlow(
	recordRepo repository.TrackingRecordRepository,
	settingsRepo repository.TrackerSettingsRepository,
	rc redis.UniversalClient,
	opts RetentionOptions,
) RetentionFlow {
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = utils.DefaultRetentionDays
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = utils.DefaultPurgeBatch
	}
	if opts.LockKey == "" {
		opts.LockKey = "atf:retention:lock"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	return &RetentionFlowImpl{
		recordRepo:   recordRepo,
		settingsRepo: settingsRepo,
		rc:           rc,
		opts:         opts,
	}
}

func (f *RetentionFlowImpl) RetentionDays(ctx context.Context) (int, error) {
	settings, err := f.settingsRepo.Get(ctx)
	if err != nil {
		return 0, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load tracker settings", err)
	}
	if settings == nil || settings.DataRetentionDays <= 0 {
		return f.opts.DefaultDays, nil
	}
	return settings.DataRetentionDays, nil
}

func (f *RetentionFlowImpl) Purge(ctx context.Context) (*dto.PurgeResponse, error) {
	days, err := f.RetentionDays(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.PurgeResponse{RetentionDays: days}

	if !tryLockRetentionRun() {
		resp.Skipped = true
		return resp, nil
	}
	defer unlockRetentionRun()

	release, acquired, err := acquireRedisLock(ctx, f.rc, f.opts.LockKey, f.opts.LockTTL)
	if err != nil {
		// The lock is best effort; purge is idempotent
		log.Printf("retention lock unavailable, purging without it: %v", err)
		acquired = true
	}
	if !acquired {
		resp.Skipped = true
		return resp, nil
	}
	defer release()

	deleted, err := f.recordRepo.PurgeOlderThan(ctx, days, f.opts.BatchLimit)
	if err != nil {
		return nil, NewBusinessError("PURGE_FAILED", "Failed to purge expired tracking records", err)
	}

	retentionRowsDeleted.Add(float64(deleted))
	retentionLastRun.SetToCurrentTime()
	resp.Deleted = deleted
	return resp, nil
}
