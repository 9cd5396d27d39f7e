package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/middleware"
	"github.com/amirphl/above-fold-tracker/app/views"
	businessflow "github.com/amirphl/above-fold-tracker/business_flow"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/gofiber/fiber/v3"
)

// AdminDashboardHandlerInterface defines the operator reporting endpoints
type AdminDashboardHandlerInterface interface {
	Dashboard(c fiber.Ctx) error
	ListRecords(c fiber.Ctx) error
	IssueNonce(c fiber.Ctx) error
	Detail(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	Purge(c fiber.Ctx) error
	Uninstall(c fiber.Ctx) error
}

type AdminDashboardHandler struct {
	baseHandler
	reportFlow      businessflow.AdminReportFlow
	retentionFlow   businessflow.RetentionFlow
	maintenanceFlow businessflow.MaintenanceFlow
	renderer        views.Renderer
}

func NewAdminDashboardHandler(
	reportFlow businessflow.AdminReportFlow,
	retentionFlow businessflow.RetentionFlow,
	maintenanceFlow businessflow.MaintenanceFlow,
	renderer views.Renderer,
) AdminDashboardHandlerInterface {
	return &AdminDashboardHandler{
		baseHandler:     newBaseHandler(),
		reportFlow:      reportFlow,
		retentionFlow:   retentionFlow,
		maintenanceFlow: maintenanceFlow,
		renderer:        renderer,
	}
}

func (h *AdminDashboardHandler) adminContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc, uint) {
	ctx, cancel := createRequestContext(c, endpoint)
	adminID, _ := middleware.GetAdminIDFromContext(c)
	return context.WithValue(ctx, utils.AdminIDKey, adminID), cancel, adminID
}

// pageQuery reads the 1-indexed page. Anything unparsable counts as page 1.
func pageQuery(c fiber.Ctx) int {
	raw := c.Query("paged", c.Query("page"))
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Dashboard renders the HTML listing page
// @Summary Above-the-fold dashboard
// @Tags Admin Above The Fold
// @Produce html
// @Security BearerAuth
// @Param paged query int false "Page number (1-indexed)"
// @Success 200 {string} string "HTML page"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/abovefold [get]
func (h *AdminDashboardHandler) Dashboard(c fiber.Ctx) error {
	ctx, cancel, _ := h.adminContext(c, "/api/v1/admin/abovefold")
	defer cancel()

	page, err := h.reportFlow.List(ctx, pageQuery(c))
	if err != nil {
		log.Println("Dashboard listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load records", "LIST_RECORDS_FAILED", nil)
	}

	html, err := h.renderer.Dashboard(page, c.Path())
	if err != nil {
		log.Println("Dashboard rendering failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to render dashboard", "RENDER_FAILED", nil)
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(html)
}

// ListRecords returns one page of records as JSON
// @Summary List tracking records
// @Tags Admin Above The Fold
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-indexed)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTrackingRecordsResponse} "Records"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/abovefold/records [get]
func (h *AdminDashboardHandler) ListRecords(c fiber.Ctx) error {
	ctx, cancel, _ := h.adminContext(c, "/api/v1/admin/abovefold/records")
	defer cancel()

	resp, err := h.reportFlow.List(ctx, pageQuery(c))
	if err != nil {
		log.Println("Record listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load records", "LIST_RECORDS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Records retrieved", resp)
}

// IssueNonce returns the token the detail view must echo back
// @Summary Issue admin nonce
// @Tags Admin Above The Fold
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminNonceResponse} "Nonce"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/abovefold/nonce [get]
func (h *AdminDashboardHandler) IssueNonce(c fiber.Ctx) error {
	if _, ok, err := middleware.RequireAdminAuth(c); !ok {
		return err
	}
	ctx, cancel, adminID := h.adminContext(c, "/api/v1/admin/abovefold/nonce")
	defer cancel()

	resp, err := h.reportFlow.IssueNonce(ctx, adminID)
	if err != nil {
		log.Println("Admin nonce issue failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to issue nonce", "NONCE_ISSUE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Nonce issued", resp)
}

// Detail renders one record as an HTML fragment
// @Summary Tracking record details
// @Tags Admin Above The Fold
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminDetailRequest true "Record id and admin nonce"
// @Success 200 {object} dto.APIResponse{data=string} "HTML fragment"
// @Failure 400 {object} dto.APIResponse "Invalid request."
// @Failure 403 {object} dto.APIResponse "Security check failed"
// @Failure 404 {object} dto.APIResponse "Record not found."
// @Router /api/v1/admin/abovefold/details [post]
func (h *AdminDashboardHandler) Detail(c fiber.Ctx) error {
	if _, ok, err := middleware.RequireAdminAuth(c); !ok {
		return err
	}

	var req dto.AdminDetailRequest
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request.", "INVALID_REQUEST", err.Error())
		}
	} else {
		id, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("id")), 10, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request.", "INVALID_REQUEST", "id must be a positive integer")
		}
		req.ID = uint(id)
		req.Security = c.FormValue("security")
	}
	if req.Security == "" {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Security check failed", "NONCE_VERIFICATION_FAILED", nil)
	}
	if msgs := h.validate(&req); msgs != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request.", "VALIDATION_ERROR", msgs)
	}

	ctx, cancel, adminID := h.adminContext(c, "/api/v1/admin/abovefold/details")
	defer cancel()

	record, err := h.reportFlow.Detail(ctx, &req, adminID)
	if err != nil {
		switch {
		case businessflow.IsInvalidNonce(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Security check failed", "NONCE_VERIFICATION_FAILED", nil)
		case businessflow.IsRecordNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Record not found.", "RECORD_NOT_FOUND", nil)
		default:
			log.Println("Record detail failed", err)
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load record", "FETCH_RECORD_FAILED", nil)
		}
	}

	fragment, err := h.renderer.Detail(record)
	if err != nil {
		log.Println("Detail rendering failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to render record", "RENDER_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Record retrieved", fragment)
}

// Export downloads the latest records as an Excel workbook, one row per link
// @Summary Export tracking records (Excel)
// @Tags Admin Above The Fold
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param limit query int false "Number of latest records (default 1000, max 10000)"
// @Success 200 {file} file "Excel workbook"
// @Failure 400 {object} dto.APIResponse "Invalid limit"
// @Failure 500 {object} dto.APIResponse "Failed to generate Excel"
// @Router /api/v1/admin/abovefold/export [get]
func (h *AdminDashboardHandler) Export(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "limit must be an integer", "VALIDATION_ERROR", nil)
		}
		limit = n
	}

	ctx, cancel, _ := h.adminContext(c, "/api/v1/admin/abovefold/export")
	defer cancel()

	filename, data, err := h.reportFlow.Export(ctx, limit)
	if err != nil {
		if businessflow.IsInvalidLimit(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("Export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate Excel", "DOWNLOAD_FAILED", nil)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// Purge runs one retention batch immediately
// @Summary Run retention purge now
// @Tags Admin Above The Fold
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PurgeResponse} "Purge result"
// @Failure 500 {object} dto.APIResponse "Purge failed"
// @Router /api/v1/admin/abovefold/purge [post]
func (h *AdminDashboardHandler) Purge(c fiber.Ctx) error {
	ctx, cancel, adminID := h.adminContext(c, "/api/v1/admin/abovefold/purge")
	defer cancel()

	resp, err := h.retentionFlow.Purge(ctx)
	if err != nil {
		log.Println("Manual purge failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Purge failed", "PURGE_FAILED", nil)
	}
	log.Printf("admin %d purged %d expired records", adminID, resp.Deleted)

	msg := "Expired records purged"
	if resp.Skipped {
		msg = "Another purge is in progress"
	}
	return h.SuccessResponse(c, fiber.StatusOK, msg, resp)
}

// Uninstall wipes tracking data and settings and stops the scheduled purge
// @Summary Remove all tracker data
// @Tags Admin Above The Fold
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UninstallResponse} "Data removed"
// @Failure 500 {object} dto.APIResponse "Uninstall failed"
// @Router /api/v1/admin/abovefold/data [delete]
func (h *AdminDashboardHandler) Uninstall(c fiber.Ctx) error {
	ctx, cancel, adminID := h.adminContext(c, "/api/v1/admin/abovefold/data")
	defer cancel()

	resp, err := h.maintenanceFlow.Uninstall(ctx)
	if err != nil {
		log.Println("Uninstall failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove tracker data", "UNINSTALL_FAILED", nil)
	}
	log.Printf("admin %d removed all tracker data", adminID)
	return h.SuccessResponse(c, fiber.StatusOK, resp.Message, resp)
}
