// Package businessflow contains the use cases of the tracker: submission, reporting, retention and administration
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Tracking submission errors
	ErrInvalidNonce  = errors.New("nonce verification failed")
	ErrInvalidScreen = errors.New("invalid screen size")
	ErrInvalidLinks  = errors.New("invalid links")

	// Reporting errors
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidLimit   = errors.New("limit is out of range")

	// Admin errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Settings and maintenance errors
	ErrInvalidRetentionDays = errors.New("retention days must be between 1 and 365")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsInvalidNonce(err error) bool {
	return errors.Is(err, ErrInvalidNonce)
}

func IsInvalidScreen(err error) bool {
	return errors.Is(err, ErrInvalidScreen)
}

func IsInvalidLinks(err error) bool {
	return errors.Is(err, ErrInvalidLinks)
}

// IsInvalidSubmission reports any validation failure of a tracking payload
func IsInvalidSubmission(err error) bool {
	return IsInvalidScreen(err) || IsInvalidLinks(err)
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

func IsInvalidLimit(err error) bool {
	return errors.Is(err, ErrInvalidLimit)
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidRetentionDays(err error) bool {
	return errors.Is(err, ErrInvalidRetentionDays)
}

// GetBusinessErrorCode returns the code of the outermost BusinessError, or "" when there is none
func GetBusinessErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
