// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAdminDTOModel converts an admin model for API responses
func ToAdminDTOModel(admin models.Admin) dto.AdminDTO {
	out := dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Username:  admin.Username,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
	if admin.LastLoginAt != nil {
		out.LastLoginAt = utils.ToPtr(admin.LastLoginAt.Format(time.RFC3339))
	}
	return out
}

// ToAdminSessionDTO wraps freshly issued admin tokens
func ToAdminSessionDTO(accessToken, refreshToken string, ttl time.Duration) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(ttl.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNow().Format(time.RFC3339),
	}
}

// ToTrackingRecordDTO converts a stored submission; dates use the dashboard layout
func ToTrackingRecordDTO(record models.TrackingRecord) dto.TrackingRecordDTO {
	links := make([]dto.LinkDTO, 0, len(record.Links))
	for _, l := range record.Links {
		links = append(links, dto.LinkDTO{URL: l.URL, Text: l.Text})
	}
	return dto.TrackingRecordDTO{
		ID:        record.ID,
		Screen:    record.Screen,
		Links:     links,
		LinkCount: len(links),
		CreatedAt: utils.FormatAdminDate(record.CreatedAt),
	}
}

func ToTrackerSettingsDTO(settings models.TrackerSettings) dto.TrackerSettingsDTO {
	return dto.TrackerSettingsDTO{
		DisableOnLogin:    utils.IsTrue(settings.DisableOnLogin),
		DataRetentionDays: settings.DataRetentionDays,
		PluginVersion:     settings.PluginVersion,
		DBVersion:         settings.DBVersion,
		UpdatedAt:         settings.UpdatedAt.Format(time.RFC3339),
	}
}
