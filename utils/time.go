// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// UTCNowAdd returns the current UTC time plus the given duration
func UTCNowAdd(d time.Duration) time.Time {
	return UTCNow().Add(d)
}

// DaysAgo returns the UTC instant exactly n*24h before now
func DaysAgo(n int) time.Time {
	return UTCNow().Add(-time.Duration(n) * 24 * time.Hour)
}

// IsExpired checks if the given time is in the past (expired)
func IsExpired(t time.Time) bool {
	return UTCNow().After(t)
}

// FormatAdminDate renders t in the dashboard layout, in UTC
func FormatAdminDate(t time.Time) string {
	return t.UTC().Format(AdminDateFormat)
}
