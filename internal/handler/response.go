package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://pennywise.app/errors/validation"
	ErrorTypeNotFound     = "https://pennywise.app/errors/not-found"
	ErrorTypeUnauthorized = "https://pennywise.app/errors/unauthorized"
	ErrorTypeConflict     = "https://pennywise.app/errors/conflict"
	ErrorTypePrecondition = "https://pennywise.app/errors/failed-precondition"
	ErrorTypeInternal     = "https://pennywise.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewPreconditionError creates a failed precondition error response. Used
// when the request is well formed but the ledger state rejects it, such as a
// transfer exceeding the source balance.
func NewPreconditionError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:     ErrorTypePrecondition,
		Title:    "Failed Precondition",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// mapDomainError translates a service error into the matching problem
// response. Returns false when the error is not a recognized domain error so
// the caller can log it and respond 500 with its own detail.
func mapDomainError(c echo.Context, err error) (bool, error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return true, NewNotFoundError(c, "Account not found")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return true, NewNotFoundError(c, "Category not found")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return true, NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, domain.ErrAccountNameTaken):
		return true, NewConflictError(c, "An account with this name already exists")
	case errors.Is(err, domain.ErrCategoryNameTaken):
		return true, NewConflictError(c, "A category with this name already exists")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return true, NewPreconditionError(c, "Insufficient funds in source account")
	case errors.Is(err, domain.ErrSameAccountTransfer):
		return true, NewPreconditionError(c, "Source and destination accounts must differ")
	case domain.IsInvalidArgument(err):
		return true, NewValidationError(c, err.Error(), nil)
	}
	return false, nil
}
