package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/handlers"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/repository"
	testingutil "github.com/amirphl/above-fold-tracker/testing"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerSettingsHandler(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		settingsRepo := repository.NewTrackerSettingsRepository(testDB.DB)
		h := handlers.NewTrackerSettingsHandler(businessflow.NewTrackerSettingsFlow(settingsRepo, utils.DefaultRetentionDays, false))

		app := fiber.New()
		app.Get("/settings", asAdmin(1), h.GetSettings)
		app.Put("/settings", asAdmin(1), h.UpdateSettings)

		put := func(t *testing.T, body string) (*http.Response, []byte) {
			req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			return doRequest(t, app, req)
		}

		t.Run("DefaultsWhenUnset", func(t *testing.T) {
			resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/settings", nil))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				Data dto.TrackerSettingsDTO `json:"data"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, utils.DefaultRetentionDays, out.Data.DataRetentionDays)
			assert.False(t, out.Data.DisableOnLogin)
		})

		t.Run("PartialUpdate", func(t *testing.T) {
			resp, body := put(t, `{"disable_on_login":true}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			resp, body = put(t, `{"data_retention_days":30}`)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

			var out struct {
				Data dto.TrackerSettingsDTO `json:"data"`
			}
			require.NoError(t, json.Unmarshal(body, &out))
			assert.True(t, out.Data.DisableOnLogin)
			assert.Equal(t, 30, out.Data.DataRetentionDays)
		})

		t.Run("RetentionOutOfRange", func(t *testing.T) {
			resp, _ := put(t, `{"data_retention_days":0}`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			resp, _ = put(t, `{"data_retention_days":400}`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})

		return nil
	})
	require.NoError(t, err)
}
