package businessflow

import (
	"context"
	"log"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error)
	Logout(ctx context.Context, adminID uint, accessToken string, req *dto.AdminLogoutRequest) error
}

// AdminAuthFlowImpl provides admin credential verification
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminRepository
	tokenService services.TokenService
}

func NewAdminAuthFlow(adminRepo repository.AdminRepository, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		tokenService: tokenService,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	// Validate request
	if req == nil {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrAdminNotFound)
	}
	if len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectPassword)
	}

	// Lookup admin
	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("ADMIN_NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !utils.IsTrue(admin.IsActive) {
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, NewBusinessError("ADMIN_INCORRECT_PASSWORD", "Incorrect password", ErrIncorrectPassword)
	}

	// Generate admin tokens
	accessToken, refreshToken, err := af.tokenService.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	if err := af.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		log.Printf("failed to record admin %d login: %v", admin.ID, err)
	} else {
		admin.LastLoginAt = utils.UTCNowPtr()
	}

	if metadata != nil {
		log.Printf("admin %s logged in from %s", admin.Username, metadata.IPAddress)
	}

	resp := &dto.AdminLoginResponse{
		Admin:   ToAdminDTOModel(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL()),
	}
	return resp, nil
}

func (af *AdminAuthFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is required", services.ErrTokenInvalid)
	}

	accessToken, refreshToken, err := af.tokenService.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", err)
	}

	session := ToAdminSessionDTO(accessToken, refreshToken, af.tokenService.AccessTokenTTL())
	return &session, nil
}

// Logout revokes the access token and, when given, the caller's own refresh token
func (af *AdminAuthFlowImpl) Logout(ctx context.Context, adminID uint, accessToken string, req *dto.AdminLogoutRequest) error {
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("INVALID_ACCESS_TOKEN", "Invalid access token", err)
	}
	if req == nil || req.RefreshToken == "" {
		return nil
	}

	claims, err := af.tokenService.ValidateAdminToken(req.RefreshToken)
	if err != nil {
		return NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", err)
	}
	if claims.TokenType != "refresh" || claims.AdminID != adminID {
		return NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", services.ErrTokenInvalid)
	}
	if err := af.tokenService.RevokeToken(req.RefreshToken); err != nil {
		return NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", err)
	}

	log.Printf("admin %d logged out", adminID)
	return nil
}
