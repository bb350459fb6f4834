package common

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// RespondError maps an error to the standardized JSON envelope. AppError
// kinds become their HTTP status; anything else is reported as a generic
// server error so internal details never leak.
func RespondError(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(HTTPStatus(appErr.Kind), CreateErrorResponse(string(appErr.Kind), appErr.Message, nil))
	}
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "operation could not be completed", nil))
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(string(KindValidation), "Validation failed", details))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse(string(KindUnauthorized), "Unauthorized access", nil))
}

// ValidateUUID validates UUID path or body parameters.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s has invalid UUID format", fieldName)
	}
	return id, nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	slugMinLength = 3
	slugMaxLength = 63
)

// ValidateSlug checks tenant slug syntax: lowercase alphanumeric groups
// separated by single hyphens, bounded length.
func ValidateSlug(slug string) error {
	if len(slug) < slugMinLength {
		return fmt.Errorf("slug must be at least %d characters", slugMinLength)
	}
	if len(slug) > slugMaxLength {
		return fmt.Errorf("slug cannot exceed %d characters", slugMaxLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug may only contain lowercase letters, digits, and hyphens")
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidatePaginationParams clamps pagination parameters to safe bounds.
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
