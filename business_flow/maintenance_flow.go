package businessflow

import (
	"context"
	"log"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/repository"
	"gorm.io/gorm"
)

// ScheduleController is the part of the retention scheduler maintenance needs
type ScheduleController interface {
	// Deactivate removes the scheduled purge, returning false when nothing was scheduled
	Deactivate() bool
}

// MaintenanceFlow installs and wipes the tracker's storage
type MaintenanceFlow interface {
	// Install creates missing tables and the default settings row
	Install(ctx context.Context) error
	// Uninstall resets tracking records and settings to an empty install, then stops the scheduled purge
	Uninstall(ctx context.Context) (*dto.UninstallResponse, error)
}

type MaintenanceFlowImpl struct {
	db           *gorm.DB
	recordRepo   repository.TrackingRecordRepository
	adminRepo    repository.AdminRepository
	settingsRepo repository.TrackerSettingsRepository
	settingsFlow TrackerSettingsFlow
	scheduler    ScheduleController
}

func NewMaintenanceFlow(
	db *gorm.DB,
	recordRepo repository.TrackingRecordRepository,
	adminRepo repository.AdminRepository,
	settingsRepo repository.TrackerSettingsRepository,
	settingsFlow TrackerSettingsFlow,
	scheduler ScheduleController,
) MaintenanceFlow {
	return &MaintenanceFlowImpl{
		db:           db,
		recordRepo:   recordRepo,
		adminRepo:    adminRepo,
		settingsRepo: settingsRepo,
		settingsFlow: settingsFlow,
		scheduler:    scheduler,
	}
}

func (f *MaintenanceFlowImpl) Install(ctx context.Context) error {
	if err := f.recordRepo.Install(ctx); err != nil {
		return NewBusinessError("INSTALL_FAILED", "Failed to create tracking table", err)
	}
	if err := f.adminRepo.Install(ctx); err != nil {
		return NewBusinessError("INSTALL_FAILED", "Failed to create admins table", err)
	}
	if err := f.settingsRepo.Install(ctx); err != nil {
		return NewBusinessError("INSTALL_FAILED", "Failed to create settings table", err)
	}
	if _, err := f.settingsFlow.EnsureDefaults(ctx); err != nil {
		return err
	}
	return nil
}

func (f *MaintenanceFlowImpl) Uninstall(ctx context.Context) (*dto.UninstallResponse, error) {
	// Tables come back empty in the same transaction; the process keeps serving after a wipe.
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.recordRepo.Uninstall(txCtx); err != nil {
			return err
		}
		if err := f.settingsRepo.Uninstall(txCtx); err != nil {
			return err
		}
		if err := f.recordRepo.Install(txCtx); err != nil {
			return err
		}
		if err := f.settingsRepo.Install(txCtx); err != nil {
			return err
		}
		_, err := f.settingsFlow.EnsureDefaults(txCtx)
		return err
	})
	if err != nil {
		return nil, NewBusinessError("UNINSTALL_FAILED", "Failed to remove tracker data", err)
	}

	resp := &dto.UninstallResponse{
		Message:         "Tracker data removed",
		RecordsDropped:  true,
		SettingsDropped: true,
	}
	if f.scheduler != nil {
		resp.SchedulerStopped = f.scheduler.Deactivate()
	}
	log.Println("tracker data removed by uninstall")
	return resp, nil
}
