package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
)

// TrackingFlow accepts above-the-fold reports from the front-end observer
type TrackingFlow interface {
	// Submit verifies, validates, sanitizes and stores one report, returning the new record id
	Submit(ctx context.Context, req *dto.TrackingSubmission, metadata *ClientMetadata) (uint, error)
	// Config describes how the observer should report. isAdmin marks an authenticated operator.
	Config(ctx context.Context, isAdmin bool) (*dto.TrackerConfigResponse, error)
}

// TrackingOptions tunes the tracking flow
type TrackingOptions struct {
	Endpoint         string
	LegacyEndpoint   string
	MaxLinks         int
	TestMode         bool
	Debug            bool
	DisableForAdmins bool
}

type TrackingFlowImpl struct {
	recordRepo   repository.TrackingRecordRepository
	settingsRepo repository.TrackerSettingsRepository
	nonceSvc     services.NonceService
	opts         TrackingOptions
}

func NewTrackingFlow(
	recordRepo repository.TrackingRecordRepository,
	settingsRepo repository.TrackerSettingsRepository,
	nonceSvc services.NonceService,
	opts TrackingOptions,
) TrackingFlow {
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = utils.DefaultMaxLinks
	}
	return &TrackingFlowImpl{
		recordRepo:   recordRepo,
		settingsRepo: settingsRepo,
		nonceSvc:     nonceSvc,
		opts:         opts,
	}
}

func (f *TrackingFlowImpl) Submit(ctx context.Context, req *dto.TrackingSubmission, metadata *ClientMetadata) (uint, error) {
	if req == nil {
		trackingSubmissionsTotal.WithLabelValues(submissionInvalid).Inc()
		return 0, NewBusinessError("INVALID_DATA", "Invalid data", ErrInvalidLinks)
	}

	if f.opts.TestMode {
		log.Println("nonce validation bypassed in test mode")
	} else if err := f.nonceSvc.Verify(req.Nonce, utils.TrackingNonceAction, ""); err != nil {
		trackingSubmissionsTotal.WithLabelValues(submissionForbidden).Inc()
		return 0, NewBusinessError("NONCE_VERIFICATION_FAILED", "Nonce verification failed", fmt.Errorf("%w: %w", ErrInvalidNonce, err))
	}

	screen := strings.TrimSpace(req.Screen)
	if err := checkScreen(screen); err != nil {
		f.logRejected(metadata, screen, err)
		trackingSubmissionsTotal.WithLabelValues(submissionInvalid).Inc()
		return 0, NewBusinessError("INVALID_DATA", "Invalid data", err)
	}

	links, err := DecodeLinks(req.Links)
	if err == nil {
		err = checkLinks(links, f.opts.MaxLinks)
	}
	if err != nil {
		f.logRejected(metadata, screen, err)
		trackingSubmissionsTotal.WithLabelValues(submissionInvalid).Inc()
		return 0, NewBusinessError("INVALID_DATA", "Invalid data", err)
	}

	id, err := f.recordRepo.Insert(ctx, screen, SanitizeLinks(links))
	if err != nil {
		log.Printf("tracking insert failed: %v", err)
		trackingSubmissionsTotal.WithLabelValues(submissionError).Inc()
		return 0, NewBusinessError("TRACKING_INSERT_FAILED", "Internal server error", err)
	}

	trackingSubmissionsTotal.WithLabelValues(submissionSuccess).Inc()
	if f.opts.Debug {
		log.Printf("tracking record %d stored: screen=%s links=%d", id, screen, len(links))
	}
	return id, nil
}

func (f *TrackingFlowImpl) logRejected(metadata *ClientMetadata, screen string, err error) {
	requestID := ""
	if metadata != nil {
		requestID = metadata.RequestID
	}
	log.Printf("tracking validation failed: request_id=%s screen=%q: %v", requestID, screen, err)
}

func (f *TrackingFlowImpl) Config(ctx context.Context, isAdmin bool) (*dto.TrackerConfigResponse, error) {
	resp := &dto.TrackerConfigResponse{
		Endpoint:       f.opts.Endpoint,
		LegacyEndpoint: f.opts.LegacyEndpoint,
		MaxLinks:       f.opts.MaxLinks,
		Debug:          f.opts.Debug,
		Enabled:        true,
	}

	if isAdmin {
		disable := f.opts.DisableForAdmins
		settings, err := f.settingsRepo.Get(ctx)
		if err != nil {
			return nil, NewBusinessError("SETTINGS_LOOKUP_FAILED", "Failed to load tracker settings", err)
		}
		if settings != nil {
			disable = utils.IsTrue(settings.DisableOnLogin)
		}
		if disable {
			resp.Enabled = false
			return resp, nil
		}
	}

	nonce, err := f.nonceSvc.Issue(utils.TrackingNonceAction, "")
	if err != nil {
		return nil, NewBusinessError("NONCE_ISSUE_FAILED", "Failed to issue nonce", err)
	}
	resp.Nonce = nonce
	return resp, nil
}
