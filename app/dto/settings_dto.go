package dto

// TrackerSettingsDTO mirrors the single tracker_settings row
type TrackerSettingsDTO struct {
	DisableOnLogin    bool   `json:"disable_on_login" example:"true"`
	DataRetentionDays int    `json:"data_retention_days" example:"7"`
	PluginVersion     string `json:"plugin_version" example:"1.0.0"`
	DBVersion         string `json:"db_version" example:"1.0.0"`
	UpdatedAt         string `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// UpdateTrackerSettingsRequest updates only the fields present
type UpdateTrackerSettingsRequest struct {
	DisableOnLogin    *bool `json:"disable_on_login,omitempty"`
	DataRetentionDays *int  `json:"data_retention_days,omitempty" validate:"omitempty,min=1,max=365"`
}
