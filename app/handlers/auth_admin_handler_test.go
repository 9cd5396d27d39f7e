package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/handlers"
	"github.com/amirphl/above-fold-tracker/app/middleware"
	"github.com/amirphl/above-fold-tracker/app/services"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/repository"
	testingutil "github.com/amirphl/above-fold-tracker/testing"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		adminRepo := repository.NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)

		tokenService, err := services.NewTokenService(time.Hour, 24*time.Hour, "test-issuer", "test-audience", false, "", "", "test-secret-key-for-jwt-signing-32-chars")
		require.NoError(t, err)
		h := handlers.NewAdminHandler(businessflow.NewAdminAuthFlow(adminRepo, tokenService))
		auth := middleware.NewAuthMiddleware(tokenService, adminRepo)

		app := fiber.New()
		app.Post("/api/v1/admin/auth/login", h.Login)
		app.Post("/api/v1/admin/auth/refresh", h.Refresh)
		app.Post("/api/v1/admin/auth/logout", auth.AdminAuthenticate(), h.Logout)
		app.Get("/api/v1/admin/ping", auth.AdminAuthenticate(), func(c fiber.Ctx) error {
			id, _ := middleware.GetAdminIDFromContext(c)
			return c.JSON(fiber.Map{"admin_id": id})
		})

		_, err = fixtures.CreateTestAdmin("operator", true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestAdmin("retired", false)
		require.NoError(t, err)

		postJSON := func(t *testing.T, path, body string) (*http.Response, []byte) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			return doRequest(t, app, req)
		}

		login := func(t *testing.T) dto.AdminLoginResponse {
			resp, body := postJSON(t, "/api/v1/admin/auth/login", `{"username":"operator","password":"`+testingutil.TestAdminPassword+`"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			var out struct {
				Data dto.AdminLoginResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			return out.Data
		}

		t.Run("LoginAndAccessProtectedRoute", func(t *testing.T) {
			session := login(t).Session
			require.NotEmpty(t, session.AccessToken)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
			req.Header.Set("Authorization", "Bearer "+session.AccessToken)
			resp, _ := doRequest(t, app, req)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("ProtectedRouteWithoutToken", func(t *testing.T) {
			resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("RefreshTokenRejectedAsAccess", func(t *testing.T) {
			session := login(t).Session
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
			req.Header.Set("Authorization", "Bearer "+session.RefreshToken)
			resp, _ := doRequest(t, app, req)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			resp, body := postJSON(t, "/api/v1/admin/auth/login", `{"username":"operator","password":"not-the-password"}`)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "INVALID_CREDENTIALS", decodeAPIResponse(t, body).Error.Code)
		})

		t.Run("InactiveAdmin", func(t *testing.T) {
			resp, _ := postJSON(t, "/api/v1/admin/auth/login", `{"username":"retired","password":"`+testingutil.TestAdminPassword+`"}`)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})

		t.Run("ValidationError", func(t *testing.T) {
			resp, body := postJSON(t, "/api/v1/admin/auth/login", `{"username":"op"}`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION_ERROR", decodeAPIResponse(t, body).Error.Code)
		})

		t.Run("Refresh", func(t *testing.T) {
			session := login(t).Session
			resp, body := postJSON(t, "/api/v1/admin/auth/refresh", `{"refresh_token":"`+session.RefreshToken+`"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			// the old refresh token is revoked on use
			resp, _ = postJSON(t, "/api/v1/admin/auth/refresh", `{"refresh_token":"`+session.RefreshToken+`"}`)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		logout := func(t *testing.T, accessToken, body string) (*http.Response, []byte) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/logout", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+accessToken)
			return doRequest(t, app, req)
		}

		ping := func(t *testing.T, accessToken string) (*http.Response, []byte) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
			req.Header.Set("Authorization", "Bearer "+accessToken)
			return doRequest(t, app, req)
		}

		t.Run("LogoutRevokesBothTokens", func(t *testing.T) {
			session := login(t).Session

			resp, body := logout(t, session.AccessToken, `{"refresh_token":"`+session.RefreshToken+`"}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			resp, body = ping(t, session.AccessToken)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "TOKEN_REVOKED", decodeAPIResponse(t, body).Error.Code)

			resp, _ = postJSON(t, "/api/v1/admin/auth/refresh", `{"refresh_token":"`+session.RefreshToken+`"}`)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("LogoutWithoutBody", func(t *testing.T) {
			session := login(t).Session

			resp, body := logout(t, session.AccessToken, "")
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			resp, _ = ping(t, session.AccessToken)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			// the refresh token was not named, so it still works
			resp, _ = postJSON(t, "/api/v1/admin/auth/refresh", `{"refresh_token":"`+session.RefreshToken+`"}`)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("LogoutRejectsAccessTokenAsRefresh", func(t *testing.T) {
			session := login(t).Session
			other := login(t).Session

			resp, body := logout(t, session.AccessToken, `{"refresh_token":"`+other.AccessToken+`"}`)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "INVALID_REFRESH_TOKEN", decodeAPIResponse(t, body).Error.Code)
		})

		t.Run("LogoutRequiresToken", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/logout", nil)
			resp, _ := doRequest(t, app, req)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		return nil
	})
	require.NoError(t, err)
}
