// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/amirphl/above-fold-tracker/app/dto"
	"github.com/amirphl/above-fold-tracker/app/services"
	"github.com/amirphl/above-fold-tracker/repository"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// AuthMiddleware handles admin JWT validation for protected endpoints
type AuthMiddleware struct {
	tokenService services.TokenService
	adminRepo    repository.AdminRepository
}

// NewAuthMiddleware creates a new authentication middleware.
// adminRepo may be nil, in which case the admin row is not re-checked per request.
func NewAuthMiddleware(tokenService services.TokenService, adminRepo repository.AdminRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		adminRepo:    adminRepo,
	}
}

func bearerToken(c fiber.Ctx) (string, string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", "MISSING_AUTHORIZATION_HEADER", "Authorization header is required"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "INVALID_AUTHORIZATION_FORMAT", "Invalid authorization header format. Expected 'Bearer <token>'"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "MISSING_ACCESS_TOKEN", "Access token is required"
	}
	return token, "", ""
}

func unauthorized(c fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: msg,
		Error:   dto.ErrorDetail{Code: code},
	})
}

// AdminAuthenticate validates the bearer access token and that the admin is still active
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, code, msg := bearerToken(c)
		if token == "" {
			return unauthorized(c, code, msg)
		}

		adminClaims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return unauthorized(c, "TOKEN_EXPIRED", "Access token has expired")
			case errors.Is(err, services.ErrTokenRevoked):
				return unauthorized(c, "TOKEN_REVOKED", "Access token has been revoked")
			case errors.Is(err, services.ErrTokenInvalid):
				return unauthorized(c, "TOKEN_INVALID", "Invalid access token")
			default:
				return unauthorized(c, "TOKEN_VALIDATION_FAILED", "Token validation failed")
			}
		}
		if adminClaims.TokenType != "access" {
			return unauthorized(c, "TOKEN_INVALID", "Invalid access token")
		}

		if m.adminRepo != nil {
			admin, err := m.adminRepo.ByID(c.Context(), adminClaims.AdminID)
			if err != nil {
				log.Printf("admin lookup failed for %d: %v", adminClaims.AdminID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
					Success: false,
					Message: "Internal server error",
					Error:   dto.ErrorDetail{Code: "ADMIN_LOOKUP_FAILED"},
				})
			}
			if admin == nil || !utils.IsTrue(admin.IsActive) {
				return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
					Success: false,
					Message: "Admin account is not allowed to access this resource",
					Error:   dto.ErrorDetail{Code: "ADMIN_FORBIDDEN"},
				})
			}
		}

		c.Locals("admin_id", adminClaims.AdminID)
		c.Locals("token_id", adminClaims.TokenID)
		c.Locals("token_claims", adminClaims)
		c.Locals("access_token", token)

		if requestID := requestid.FromContext(c); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// OptionalAdminAuth marks the request as coming from an admin when a valid token is present,
// but never rejects it
func (m *AuthMiddleware) OptionalAdminAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, _, _ := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		adminClaims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil || adminClaims.TokenType != "access" {
			return c.Next()
		}

		c.Locals("admin_id", adminClaims.AdminID)
		c.Locals("token_id", adminClaims.TokenID)
		c.Locals("token_claims", adminClaims)
		return c.Next()
	}
}

// GetAdminIDFromContext extracts admin ID from the request context
func GetAdminIDFromContext(c fiber.Ctx) (uint, bool) {
	adminID, ok := c.Locals("admin_id").(uint)
	return adminID, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.AdminTokenClaims, bool) {
	claims, ok := c.Locals("token_claims").(*services.AdminTokenClaims)
	return claims, ok
}

// GetAccessTokenFromContext returns the bearer token AdminAuthenticate accepted
func GetAccessTokenFromContext(c fiber.Ctx) (string, bool) {
	token, ok := c.Locals("access_token").(string)
	return token, ok && token != ""
}

// RequireAdminAuth ensures admin authentication is present. When it is not, the 401
// response has already been written and ok is false; the caller returns err as is.
func RequireAdminAuth(c fiber.Ctx) (adminID uint, ok bool, err error) {
	adminID, exists := GetAdminIDFromContext(c)
	if !exists {
		return 0, false, c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Admin authentication required",
			Error:   dto.ErrorDetail{Code: "ADMIN_AUTHENTICATION_REQUIRED"},
		})
	}
	if adminID == 0 {
		return 0, false, c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid admin ID",
			Error:   dto.ErrorDetail{Code: "INVALID_ADMIN_ID"},
		})
	}
	return adminID, true, nil
}
