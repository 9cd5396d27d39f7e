package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "atf.db"))
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("NONCE_SECRET", testSecret)
}

func TestLoadProductionConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Tracking.RetentionDays)
	assert.True(t, cfg.Tracking.DisableForAdmins)
	assert.Equal(t, 20, cfg.Tracking.AdminPageSize)
	assert.Equal(t, 100, cfg.Tracking.MaxLinks)
	assert.Equal(t, 1000, cfg.Tracking.PurgeBatch)
	assert.False(t, cfg.Tracking.TestMode)
	assert.Equal(t, "@daily", cfg.Scheduler.RetentionSchedule)
	assert.True(t, cfg.Scheduler.RetentionEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.LockTimeout)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Deployment.IsDevelopment())
}

func TestLoadProductionConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRACKING_RETENTION_DAYS", "30")
	t.Setenv("TRACKING_DISABLE_FOR_ADMINS", "false")
	t.Setenv("RETENTION_SCHEDULE", "0 3 * * *")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENV", "development")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Tracking.RetentionDays)
	assert.False(t, cfg.Tracking.DisableForAdmins)
	assert.Equal(t, "0 3 * * *", cfg.Scheduler.RetentionSchedule)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.True(t, cfg.Deployment.IsDevelopment())
}

func TestLoadProductionConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"ShortNonceSecret", map[string]string{"NONCE_SECRET": "short"}, "NONCE_SECRET"},
		{"RetentionOutOfRange", map[string]string{"TRACKING_RETENTION_DAYS": "0"}, "TRACKING_RETENTION_DAYS"},
		{"UnknownDriver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"TestModeInProduction", map[string]string{"TRACKING_TEST_MODE": "true"}, "TRACKING_TEST_MODE"},
		{"HalfBootstrapAdmin", map[string]string{"ADMIN_BOOTSTRAP_USERNAME": "root"}, "ADMIN_BOOTSTRAP"},
		{"BadLogOutput", map[string]string{"LOG_OUTPUT": "syslog"}, "LOG_OUTPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadProductionConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ATF_TEST_FROM_FILE=\"file value\"\nATF_TEST_PRESET=file\n"), 0o600))

	t.Setenv("ATF_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("ATF_TEST_FROM_FILE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "file value", os.Getenv("ATF_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("ATF_TEST_PRESET"))

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env")))
}
