// Package testing provides test utilities and database setup for the tracker packages
package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// TestAdminPassword is the plain password of admins created by CreateTestAdmin
const TestAdminPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an admin with TestAdminPassword
func (tf *TestFixtures) CreateTestAdmin(username string, active bool) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(active),
	}
	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTrackingRecord inserts a record with an explicit creation time
func (tf *TestFixtures) CreateTrackingRecord(screen string, links []models.LinkEntry, createdAt time.Time) (*models.TrackingRecord, error) {
	if links == nil {
		links = []models.LinkEntry{}
	}
	record := &models.TrackingRecord{
		Screen:    screen,
		Links:     datatypes.JSONSlice[models.LinkEntry](links),
		CreatedAt: createdAt.UTC(),
	}
	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create tracking record: %w", err)
	}
	return record, nil
}

// CreateTrackingRecords inserts n records one minute apart starting at base, so higher ids are newer
func (tf *TestFixtures) CreateTrackingRecords(n int, base time.Time) ([]*models.TrackingRecord, error) {
	records := make([]*models.TrackingRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := tf.CreateTrackingRecord(
			"1920x1080",
			[]models.LinkEntry{{URL: fmt.Sprintf("https://example.com/%d", i), Text: fmt.Sprintf("Link %d", i)}},
			base.Add(time.Duration(i)*time.Minute),
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
