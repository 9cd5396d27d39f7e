package models

import (
	"time"

	"github.com/amirphl/above-fold-tracker/utils"
	"gorm.io/gorm"
)

// TrackerSettingsID is the primary key of the single settings row
const TrackerSettingsID uint = 1

// TrackerSettings holds operator-tunable tracker options. The table holds one row.
type TrackerSettings struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	DisableOnLogin    *bool     `gorm:"not null;default:true" json:"disable_on_login"`
	DataRetentionDays int       `gorm:"not null;default:7" json:"data_retention_days"`
	PluginVersion     string    `gorm:"type:varchar(20);not null" json:"plugin_version"`
	DBVersion         string    `gorm:"type:varchar(20);not null" json:"db_version"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null" json:"updated_at"`
}

func (TrackerSettings) TableName() string { return "tracker_settings" }

// BeforeCreate pins the row id and fills timestamps
func (s *TrackerSettings) BeforeCreate(tx *gorm.DB) error {
	s.ID = TrackerSettingsID
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// DefaultTrackerSettings returns the settings a fresh install starts with
func DefaultTrackerSettings(retentionDays int, disableOnLogin bool) *TrackerSettings {
	if retentionDays <= 0 {
		retentionDays = utils.DefaultRetentionDays
	}
	return &TrackerSettings{
		ID:                TrackerSettingsID,
		DisableOnLogin:    utils.ToPtr(disableOnLogin),
		DataRetentionDays: retentionDays,
		PluginVersion:     utils.PluginVersion,
		DBVersion:         utils.DBVersion,
	}
}
