package businessflow

import (
	"context"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
)

const (
	minRetentionDays = 1
	maxRetentionDays = 365
)

// TrackerSettingsFlow reads and updates the operator options
type TrackerSettingsFlow interface {
	Get(ctx context.Context) (*dto.TrackerSettingsDTO, error)
	Update(ctx context.Context, req *dto.UpdateTrackerSettingsRequest) (*dto.TrackerSettingsDTO, error)
	// EnsureDefaults writes the default row on first start and bumps stored versions on upgrade
	EnsureDefaults(ctx context.Context) (*models.TrackerSettings, error)
}

type TrackerSettingsFlowImpl struct {
	settingsRepo repository.TrackerSettingsRepository
	defaults     models.TrackerSettings
}

func NewTrackerSettingsFlow(settingsRepo repository.TrackerSettingsRepository, defaultRetentionDays int, defaultDisableOnLogin bool) TrackerSettingsFlow {
	return &TrackerSettingsFlowImpl{
		settingsRepo: settingsRepo,
		defaults:     *models.DefaultTrackerSettings(defaultRetentionDays, defaultDisableOnLogin),
	}
}

func (f *TrackerSettingsFlowImpl) current(ctx context.Context) (*models.TrackerSettings, error) {
	settings, err := f.settingsRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load tracker settings", err)
	}
	if settings == nil {
		d := f.defaults
		return &d, nil
	}
	return settings, nil
}

func (f *TrackerSettingsFlowImpl) Get(ctx context.Context) (*dto.TrackerSettingsDTO, error) {
	settings, err := f.current(ctx)
	if err != nil {
		return nil, err
	}
	out := ToTrackerSettingsDTO(*settings)
	return &out, nil
}

func (f *TrackerSettingsFlowImpl) Update(ctx context.Context, req *dto.UpdateTrackerSettingsRequest) (*dto.TrackerSettingsDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}
	if req.DataRetentionDays != nil && (*req.DataRetentionDays < minRetentionDays || *req.DataRetentionDays > maxRetentionDays) {
		return nil, NewBusinessError("INVALID_RETENTION_DAYS", "Retention days must be between 1 and 365", ErrInvalidRetentionDays)
	}

	settings, err := f.current(ctx)
	if err != nil {
		return nil, err
	}
	if req.DisableOnLogin != nil {
		settings.DisableOnLogin = utils.ToPtr(*req.DisableOnLogin)
	}
	if req.DataRetentionDays != nil {
		settings.DataRetentionDays = *req.DataRetentionDays
	}

	if err := f.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to update tracker settings", err)
	}

	out := ToTrackerSettingsDTO(*settings)
	return &out, nil
}

func (f *TrackerSettingsFlowImpl) EnsureDefaults(ctx context.Context) (*models.TrackerSettings, error) {
	settings, err := f.settingsRepo.Get(ctx)
	if err != nil {
		return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load tracker settings", err)
	}

	if settings == nil {
		d := f.defaults
		settings = &d
	} else if settings.PluginVersion == utils.PluginVersion && settings.DBVersion == utils.DBVersion {
		return settings, nil
	}

	settings.PluginVersion = utils.PluginVersion
	settings.DBVersion = utils.DBVersion
	if err := f.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, NewBusinessError("SETTINGS_UPDATE_FAILED", "Failed to write tracker settings", err)
	}
	return settings, nil
}
