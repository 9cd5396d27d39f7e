package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

const testNonceSecret = "handler-test-nonce-secret"

func newTestNonceService(t *testing.T) services.NonceService {
	t.Helper()
	svc, err := services.NewNonceService(testNonceSecret, "above-fold-tracker", time.Hour)
	require.NoError(t, err)
	return svc
}

// asAdmin stands in for AdminAuthenticate
func asAdmin(adminID uint) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals("admin_id", adminID)
		return c.Next()
	}
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, body
}

// apiEnvelope mirrors dto.APIResponse with a typed error detail
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    any             `json:"data"`
	Error   dto.ErrorDetail `json:"error"`
}

func decodeAPIResponse(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var out apiEnvelope
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}
