// Package models contains domain entities persisted by the tracker
package models

import (
	"time"

	"github.com/amirphl/above-fold-tracker/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LinkEntry is one link observed in the first viewport
type LinkEntry struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// TrackingRecord is a single above-the-fold submission.
// Rows are never updated; they are removed by the retention purge or by uninstall.
type TrackingRecord struct {
	ID        uint                           `gorm:"primaryKey;autoIncrement" json:"id"`
	Screen    string                         `gorm:"type:varchar(20);not null" json:"screen"`
	Links     datatypes.JSONSlice[LinkEntry] `gorm:"type:text;not null" json:"links"`
	CreatedAt time.Time                      `gorm:"not null;index:idx_above_fold_links_created_at" json:"created_at"`
}

// TableName returns the table name for TrackingRecord
func (TrackingRecord) TableName() string { return "above_fold_links" }

// BeforeCreate stamps the insertion time and normalizes a nil link list
func (r *TrackingRecord) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	if r.Links == nil {
		r.Links = datatypes.JSONSlice[LinkEntry]{}
	}
	return nil
}

// TrackingRecordFilter represents filter criteria for tracking record queries
type TrackingRecordFilter struct {
	ID            *uint
	Screen        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
