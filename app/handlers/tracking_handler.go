package handlers

import (
	"log"
	"strings"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/middleware"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// TrackingHandlerInterface defines the public tracking endpoints
type TrackingHandlerInterface interface {
	Track(c fiber.Ctx) error
	LegacyTrack(c fiber.Ctx) error
	Config(c fiber.Ctx) error
}

// TrackingHandler serves the front-end observer. Both tracking routes share track.
type TrackingHandler struct {
	flow businessflow.TrackingFlow
}

func NewTrackingHandler(flow businessflow.TrackingFlow) TrackingHandlerInterface {
	return &TrackingHandler{flow: flow}
}

func trackingError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.TrackingResponse{Status: "error", Message: message})
}

// Track stores a report sent as JSON (form bodies are accepted too)
// @Summary Submit above-the-fold report
// @Description Validate, sanitize and store the screen size and links visible in the first viewport
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body dto.TrackingSubmission true "Report"
// @Success 200 {object} dto.TrackingResponse "Stored"
// @Failure 400 {object} dto.TrackingResponse "Invalid data"
// @Failure 403 {object} dto.TrackingResponse "Nonce verification failed"
// @Failure 500 {object} dto.TrackingResponse "Internal server error"
// @Router /api/v1/abovefold/track [post]
func (h *TrackingHandler) Track(c fiber.Ctx) error {
	return h.track(c, "/api/v1/abovefold/track")
}

// LegacyTrack stores a report sent as a url-encoded form
// @Summary Submit above-the-fold report (form transport)
// @Tags Tracking
// @Accept x-www-form-urlencoded
// @Produce json
// @Param screen formData string true "Screen size, e.g. 1920x1080"
// @Param links formData string true "JSON-encoded array of {url,text}"
// @Param nonce formData string true "Tracking nonce"
// @Success 200 {object} dto.TrackingResponse "Stored"
// @Failure 400 {object} dto.TrackingResponse "Invalid data"
// @Failure 403 {object} dto.TrackingResponse "Nonce verification failed"
// @Failure 500 {object} dto.TrackingResponse "Internal server error"
// @Router /api/v1/ajax/track [post]
func (h *TrackingHandler) LegacyTrack(c fiber.Ctx) error {
	return h.track(c, "/api/v1/ajax/track")
}

func (h *TrackingHandler) track(c fiber.Ctx, endpoint string) error {
	req, err := parseSubmission(c)
	if err != nil {
		log.Printf("tracking request body rejected: %v", err)
		return trackingError(c, fiber.StatusBadRequest, "Invalid data")
	}

	ctx, cancel := createRequestContext(c, endpoint)
	defer cancel()

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestid.FromContext(c))

	id, err := h.flow.Submit(ctx, req, metadata)
	if err != nil {
		switch {
		case businessflow.IsInvalidNonce(err):
			return trackingError(c, fiber.StatusForbidden, "Nonce verification failed")
		case businessflow.IsInvalidSubmission(err):
			return trackingError(c, fiber.StatusBadRequest, "Invalid data")
		default:
			return trackingError(c, fiber.StatusInternalServerError, "Internal server error")
		}
	}

	return c.Status(fiber.StatusOK).JSON(dto.TrackingResponse{Status: "success", Inserted: id})
}

// parseSubmission reads screen, links and nonce from a JSON or form body.
// The nonce may also arrive in the X-ATF-Nonce header.
func parseSubmission(c fiber.Ctx) (*dto.TrackingSubmission, error) {
	var req dto.TrackingSubmission
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		if err := c.Bind().JSON(&req); err != nil {
			return nil, err
		}
	} else {
		req.Screen = c.FormValue("screen")
		req.Nonce = c.FormValue("nonce")
		// A form without links reports an empty viewport
		req.Links = c.FormValue("links", "[]")
	}
	if req.Nonce == "" {
		req.Nonce = c.Get("X-ATF-Nonce")
	}
	return &req, nil
}

// Config hands the observer its endpoints and a fresh nonce
// @Summary Tracker configuration
// @Description Endpoints, nonce and limits for the front-end observer. Tracking is disabled for signed-in admins when configured.
// @Tags Tracking
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.TrackerConfigResponse} "Configuration"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/abovefold/config [get]
func (h *TrackingHandler) Config(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/abovefold/config")
	defer cancel()

	_, isAdmin := middleware.GetAdminIDFromContext(c)
	resp, err := h.flow.Config(ctx, isAdmin)
	if err != nil {
		log.Println("tracker config failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Internal server error",
			Error:   dto.ErrorDetail{Code: "TRACKER_CONFIG_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Tracker configuration",
		Data:    resp,
	})
}
