package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for admin access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// NonceTTL is the lifetime of an action-scoped CSRF token
	NonceTTL = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Tracker constants
const (
	// TrackingNonceAction scopes tokens handed to the front-end observer
	TrackingNonceAction = "atf_tracking_nonce"

	// AdminNonceAction scopes tokens used by the dashboard detail view
	AdminNonceAction = "atf_admin_nonce"

	DefaultRetentionDays = 7
	DefaultPurgeBatch    = 1000
	DefaultMaxLinks      = 100
	DefaultAdminPageSize = 20

	// MaxLinkTextLength is the clip length for link text, in characters
	MaxLinkTextLength = 200

	// MaxScreenLength matches the screen column width
	MaxScreenLength = 20

	// AdminDateFormat is the dashboard timestamp layout (Y-m-d H:i:s)
	AdminDateFormat = "2006-01-02 15:04:05"

	PluginVersion = "1.0.0"
	DBVersion     = "1.0.0"
)
