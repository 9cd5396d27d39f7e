package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirphl/above-fold-tracker/app/handlers"
	"github.com/amirphl/above-fold-tracker/app/middleware"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/app/views"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/config"
	"github.com/amirphl/above-fold-tracker/repository"
	testingutil "github.com/amirphl/above-fold-tracker/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopScheduler struct{}

func (noopScheduler) Deactivate() bool { return false }

func testConfig(env string) *config.ProductionConfig {
	return &config.ProductionConfig{
		Server: config.ServerConfig{
			BodyLimit:    1024 * 1024,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		Security: config.SecurityConfig{
			AllowedOrigins:    []string{"*"},
			AllowedMethods:    []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:    []string{"Content-Type", "Authorization"},
			AuthRateLimit:     100,
			GlobalRateLimit:   1000,
			TrackingRateLimit: 1000,
			RateLimitWindow:   time.Minute,
			XFrameOptions:     "DENY",
			IPBlacklist:       []string{"10.9.9.9"},
		},
		Metrics:    config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Deployment: config.DeploymentConfig{Environment: env, Version: "test"},
	}
}

func newTestRouter(t *testing.T, testDB *testingutil.TestDB, env string) Router {
	t.Helper()

	recordRepo := repository.NewTrackingRecordRepository(testDB.DB)
	settingsRepo := repository.NewTrackerSettingsRepository(testDB.DB)
	adminRepo := repository.NewAdminRepository(testDB.DB)

	tokenService, err := services.NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "test-secret-key-for-jwt-signing-32-chars")
	require.NoError(t, err)
	nonceSvc, err := services.NewNonceService("router-test-nonce-secret", "above-fold-tracker", time.Hour)
	require.NoError(t, err)

	settingsFlow := businessflow.NewTrackerSettingsFlow(settingsRepo, 7, true)
	r := NewFiberRouter(
		testConfig(env),
		handlers.NewTrackingHandler(businessflow.NewTrackingFlow(recordRepo, settingsRepo, nonceSvc, businessflow.TrackingOptions{})),
		handlers.NewAdminHandler(businessflow.NewAdminAuthFlow(adminRepo, tokenService)),
		handlers.NewAdminDashboardHandler(
			businessflow.NewAdminReportFlow(recordRepo, nonceSvc, 20),
			businessflow.NewRetentionFlow(recordRepo, settingsRepo, nil, businessflow.RetentionOptions{}),
			businessflow.NewMaintenanceFlow(testDB.DB, recordRepo, adminRepo, settingsRepo, settingsFlow, noopScheduler{}),
			views.NewLiquidRenderer(),
		),
		handlers.NewTrackerSettingsHandler(settingsFlow),
		middleware.NewAuthMiddleware(tokenService, adminRepo),
	)
	r.SetupRoutes()
	return r
}

func TestRouter(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		app := newTestRouter(t, testDB, "production").GetApp()

		t.Run("Health", func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})

		t.Run("NotFound", func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})

		t.Run("AdminRoutesRequireToken", func(t *testing.T) {
			for _, tc := range []struct{ method, path string }{
				{http.MethodGet, "/api/v1/admin/abovefold"},
				{http.MethodGet, "/api/v1/admin/abovefold/records"},
				{http.MethodPost, "/api/v1/admin/abovefold/details"},
				{http.MethodGet, "/api/v1/admin/abovefold/export"},
				{http.MethodPost, "/api/v1/admin/abovefold/purge"},
				{http.MethodDelete, "/api/v1/admin/abovefold/data"},
				{http.MethodPut, "/api/v1/admin/abovefold/settings"},
				{http.MethodPost, "/api/v1/admin/auth/logout"},
			} {
				resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
				require.NoError(t, err)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
			}
		})

		t.Run("TrackingConfigIsPublic", func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/abovefold/config", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("MetricsExposed", func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "atf_http_requests_total")
		})

		t.Run("DevRoutesHiddenInProduction", func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/swagger.json", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestRouter_Development(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		app := newTestRouter(t, testDB, "development").GetApp()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/swagger.json", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		paths, ok := doc["paths"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, paths, "/api/v1/abovefold/track")
		assert.Contains(t, paths, "/api/v1/admin/auth/logout")

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/routes", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		return nil
	})
	require.NoError(t, err)
}
