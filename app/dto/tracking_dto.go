package dto

// TrackingSubmission is the input of both tracking transports.
// Links is either a JSON-encoded string or a structured array.
type TrackingSubmission struct {
	Screen string `json:"screen" example:"1920x1080"`
	Links  any    `json:"links" swaggertype:"array,object"`
	Nonce  string `json:"nonce" example:"eyJhbGciOi..."`
}

// TrackingResponse is the envelope returned by the tracking endpoint
type TrackingResponse struct {
	Status   string `json:"status" example:"success"`
	Message  string `json:"message,omitempty" example:"Invalid data"`
	Inserted uint   `json:"inserted,omitempty" example:"42"`
}

// TrackerConfigResponse is what the front-end observer needs to report
type TrackerConfigResponse struct {
	Endpoint       string `json:"endpoint" example:"/api/v1/abovefold/track"`
	LegacyEndpoint string `json:"legacy_endpoint" example:"/api/v1/ajax/track"`
	Nonce          string `json:"nonce,omitempty"`
	MaxLinks       int    `json:"max_links" example:"100"`
	Debug          bool   `json:"debug" example:"false"`
	Enabled        bool   `json:"enabled" example:"true"`
}

type LinkDTO struct {
	URL  string `json:"url" example:"https://example.com/pricing"`
	Text string `json:"text" example:"Pricing"`
}

// TrackingRecordDTO represents one stored above-the-fold report
type TrackingRecordDTO struct {
	ID        uint      `json:"id" example:"1"`
	Screen    string    `json:"screen" example:"1920x1080"`
	Links     []LinkDTO `json:"links"`
	LinkCount int       `json:"link_count" example:"2"`
	CreatedAt string    `json:"created_at" example:"2024-01-15 10:30:00"`
}

// ListTrackingRecordsResponse is one admin dashboard page
type ListTrackingRecordsResponse struct {
	Records    []TrackingRecordDTO `json:"records"`
	Total      int64               `json:"total" example:"25"`
	Page       int                 `json:"page" example:"1"`
	PerPage    int                 `json:"per_page" example:"20"`
	TotalPages int                 `json:"total_pages" example:"2"`
}

// AdminDetailRequest fetches one record. Security carries the admin nonce.
type AdminDetailRequest struct {
	ID       uint   `json:"id" form:"id" validate:"required,gt=0"`
	Security string `json:"security" form:"security" validate:"required"`
}

type AdminNonceResponse struct {
	Nonce     string `json:"nonce"`
	Action    string `json:"action" example:"atf_admin_nonce"`
	ExpiresIn int    `json:"expires_in" example:"86400"`
}

// PurgeResponse reports one retention run
type PurgeResponse struct {
	Deleted       int64 `json:"deleted" example:"12"`
	RetentionDays int   `json:"retention_days" example:"7"`
	Skipped       bool  `json:"skipped" example:"false"`
}

// UninstallResponse reports a data wipe
type UninstallResponse struct {
	Message          string `json:"message"`
	SchedulerStopped bool   `json:"scheduler_stopped"`
	RecordsDropped   bool   `json:"records_dropped"`
	SettingsDropped  bool   `json:"settings_dropped"`
}
