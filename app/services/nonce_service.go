package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Nonce error constants
var (
	ErrNonceMissing        = errors.New("nonce is missing")
	ErrNonceInvalid        = errors.New("nonce is invalid")
	ErrNonceExpired        = errors.New("nonce has expired")
	ErrNonceActionMismatch = errors.New("nonce was issued for another action")
)

// NonceService issues and verifies CSRF tokens bound to one action and optionally one subject
type NonceService interface {
	Issue(action, subject string) (string, error)
	Verify(nonce, action, subject string) error
}

// NonceClaims is the payload of a nonce token
type NonceClaims struct {
	Action string `json:"action"`
	jwt.RegisteredClaims
}

// NonceServiceImpl implements NonceService with HMAC-signed JWTs
type NonceServiceImpl struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewNonceService creates a nonce service. ttl defaults to utils.NonceTTL.
func NewNonceService(secret, issuer string, ttl time.Duration) (NonceService, error) {
	if secret == "" {
		return nil, fmt.Errorf("nonce secret is required")
	}
	if ttl <= 0 {
		ttl = utils.NonceTTL
	}
	return &NonceServiceImpl{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}, nil
}

// Issue returns a token valid for action (and subject, when non-empty) until the TTL elapses
func (s *NonceServiceImpl) Issue(action, subject string) (string, error) {
	if action == "" {
		return "", fmt.Errorf("nonce action is required")
	}
	now := utils.UTCNow()
	claims := NonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry, action and subject
func (s *NonceServiceImpl) Verify(nonce, action, subject string) error {
	if nonce == "" {
		return ErrNonceMissing
	}

	var claims NonceClaims
	_, err := jwt.ParseWithClaims(nonce, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrNonceExpired
		}
		return ErrNonceInvalid
	}

	if claims.Action != action {
		return ErrNonceActionMismatch
	}
	if subject != "" && claims.Subject != subject {
		return ErrNonceInvalid
	}
	return nil
}
