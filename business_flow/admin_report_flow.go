package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/xuri/excelize/v2"
)

const (
	defaultExportLimit = 1000
	maxExportLimit     = 10000
	exportSheetName    = "above_fold_links"
)

// AdminReportFlow serves the operator dashboard
type AdminReportFlow interface {
	// List returns one page of records, newest first. Pages are 1-indexed; page < 1 means 1.
	List(ctx context.Context, page int) (*dto.ListTrackingRecordsResponse, error)
	// IssueNonce returns a detail-view token bound to adminID
	IssueNonce(ctx context.Context, adminID uint) (*dto.AdminNonceResponse, error)
	// Detail returns one record after checking the admin nonce
	Detail(ctx context.Context, req *dto.AdminDetailRequest, adminID uint) (*dto.TrackingRecordDTO, error)
	// Export renders the latest records as an XLSX workbook
	Export(ctx context.Context, limit int) (string, []byte, error)
	PageSize() int
}

type AdminReportFlowImpl struct {
	recordRepo repository.TrackingRecordRepository
	nonceSvc   services.NonceService
	pageSize   int
	nonceTTL   int
}

func NewAdminReportFlow(recordRepo repository.TrackingRecordRepository, nonceSvc services.NonceService, pageSize int) AdminReportFlow {
	if pageSize <= 0 {
		pageSize = utils.DefaultAdminPageSize
	}
	return &AdminReportFlowImpl{
		recordRepo: recordRepo,
		nonceSvc:   nonceSvc,
		pageSize:   pageSize,
		nonceTTL:   int(utils.NonceTTL.Seconds()),
	}
}

func (f *AdminReportFlowImpl) PageSize() int {
	return f.pageSize
}

func (f *AdminReportFlowImpl) List(ctx context.Context, page int) (*dto.ListTrackingRecordsResponse, error) {
	if page < 1 {
		page = 1
	}

	total, err := f.recordRepo.Count(ctx, models.TrackingRecordFilter{})
	if err != nil {
		return nil, NewBusinessError("COUNT_RECORDS_FAILED", "Failed to count tracking records", err)
	}

	offset := (page - 1) * f.pageSize
	rows, err := f.recordRepo.List(ctx, f.pageSize, offset)
	if err != nil {
		return nil, NewBusinessError("LIST_RECORDS_FAILED", "Failed to list tracking records", err)
	}

	records := make([]dto.TrackingRecordDTO, 0, len(rows))
	for _, r := range rows {
		records = append(records, ToTrackingRecordDTO(*r))
	}

	return &dto.ListTrackingRecordsResponse{
		Records:    records,
		Total:      total,
		Page:       page,
		PerPage:    f.pageSize,
		TotalPages: utils.TotalPages(total, f.pageSize),
	}, nil
}

func (f *AdminReportFlowImpl) IssueNonce(ctx context.Context, adminID uint) (*dto.AdminNonceResponse, error) {
	nonce, err := f.nonceSvc.Issue(utils.AdminNonceAction, nonceSubject(adminID))
	if err != nil {
		return nil, NewBusinessError("NONCE_ISSUE_FAILED", "Failed to issue nonce", err)
	}
	return &dto.AdminNonceResponse{
		Nonce:     nonce,
		Action:    utils.AdminNonceAction,
		ExpiresIn: f.nonceTTL,
	}, nil
}

func (f *AdminReportFlowImpl) Detail(ctx context.Context, req *dto.AdminDetailRequest, adminID uint) (*dto.TrackingRecordDTO, error) {
	if req == nil {
		return nil, NewBusinessError("NONCE_VERIFICATION_FAILED", "Security check failed", ErrInvalidNonce)
	}
	if err := f.nonceSvc.Verify(req.Security, utils.AdminNonceAction, nonceSubject(adminID)); err != nil {
		return nil, NewBusinessError("NONCE_VERIFICATION_FAILED", "Security check failed", fmt.Errorf("%w: %w", ErrInvalidNonce, err))
	}

	record, err := f.recordRepo.ByID(ctx, req.ID)
	if err != nil {
		return nil, NewBusinessError("FETCH_RECORD_FAILED", "Failed to fetch tracking record", err)
	}
	if record == nil {
		return nil, NewBusinessError("RECORD_NOT_FOUND", "Record not found.", ErrRecordNotFound)
	}

	out := ToTrackingRecordDTO(*record)
	return &out, nil
}

func (f *AdminReportFlowImpl) Export(ctx context.Context, limit int) (string, []byte, error) {
	if limit == 0 {
		limit = defaultExportLimit
	}
	if limit < 0 || limit > maxExportLimit {
		return "", nil, NewBusinessErrorf("VALIDATION_ERROR", "limit must be between 1 and %d", ErrInvalidLimit, maxExportLimit)
	}

	rows, err := f.recordRepo.List(ctx, limit, 0)
	if err != nil {
		return "", nil, NewBusinessError("LIST_RECORDS_FAILED", "Failed to list tracking records", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()
	xl.SetSheetName(xl.GetSheetName(0), exportSheetName)

	header := []string{"record_id", "created_at", "screen", "position", "url", "text"}
	_ = xl.SetSheetRow(exportSheetName, "A1", &header)

	line := 2
	for _, r := range rows {
		id := strconv.FormatUint(uint64(r.ID), 10)
		createdAt := utils.FormatAdminDate(r.CreatedAt)
		if len(r.Links) == 0 {
			record := []string{id, createdAt, r.Screen, "", "", ""}
			cellRef, _ := excelize.CoordinatesToCellName(1, line)
			_ = xl.SetSheetRow(exportSheetName, cellRef, &record)
			line++
			continue
		}
		for i, l := range r.Links {
			record := []string{id, createdAt, r.Screen, strconv.Itoa(i + 1), l.URL, l.Text}
			cellRef, _ := excelize.CoordinatesToCellName(1, line)
			_ = xl.SetSheetRow(exportSheetName, cellRef, &record)
			line++
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_FAILED", "Failed to generate Excel file", err)
	}

	filename := fmt.Sprintf("above_fold_links_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func nonceSubject(adminID uint) string {
	return strconv.FormatUint(uint64(adminID), 10)
}
