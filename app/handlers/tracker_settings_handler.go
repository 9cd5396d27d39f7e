package handlers

import (
	"log"

	"github.com/amirphl/above-fold-tracker/app/dto"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/gofiber/fiber/v3"
)

// TrackerSettingsHandlerInterface defines the settings endpoints
type TrackerSettingsHandlerInterface interface {
	GetSettings(c fiber.Ctx) error
	UpdateSettings(c fiber.Ctx) error
}

type TrackerSettingsHandler struct {
	baseHandler
	flow businessflow.TrackerSettingsFlow
}

func NewTrackerSettingsHandler(flow businessflow.TrackerSettingsFlow) TrackerSettingsHandlerInterface {
	return &TrackerSettingsHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// GetSettings returns the stored tracker settings
// @Summary Get tracker settings
// @Tags Admin Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.TrackerSettingsDTO} "Settings"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/abovefold/settings [get]
func (h *TrackerSettingsHandler) GetSettings(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/admin/abovefold/settings")
	defer cancel()

	resp, err := h.flow.Get(ctx)
	if err != nil {
		log.Println("Get tracker settings failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load settings", "SETTINGS_FETCH_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings retrieved", resp)
}

// UpdateSettings applies a partial settings update
// @Summary Update tracker settings
// @Tags Admin Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateTrackerSettingsRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.TrackerSettingsDTO} "Settings updated"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/abovefold/settings [put]
func (h *TrackerSettingsHandler) UpdateSettings(c fiber.Ctx) error {
	var req dto.UpdateTrackerSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if msgs := h.validate(&req); msgs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", msgs)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/abovefold/settings")
	defer cancel()

	resp, err := h.flow.Update(ctx, &req)
	if err != nil {
		if businessflow.IsInvalidRetentionDays(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Retention days must be between 1 and 365", "INVALID_RETENTION_DAYS", nil)
		}
		log.Println("Update tracker settings failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update settings", "SETTINGS_UPDATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Settings updated", resp)
}
