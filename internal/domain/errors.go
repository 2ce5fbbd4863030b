package domain

import "errors"

// Domain errors
var (
	// Invalid input
	ErrInvalidAmount          = errors.New("amount must be a positive decimal")
	ErrInvalidTransactionType = errors.New("transaction type must be income or expense")
	ErrInvalidCategoryType    = errors.New("category type must be income or expense")
	ErrNegativeBalance        = errors.New("balance must not be negative")
	ErrNameRequired           = errors.New("name is required")
	ErrNameTooLong            = errors.New("name exceeds maximum length")

	// Missing or not owned by the caller
	ErrAccountNotFound     = errors.New("account not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// Duplicate name per user
	ErrAccountNameTaken  = errors.New("account name already exists")
	ErrCategoryNameTaken = errors.New("category name already exists")

	// Precondition failures
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")

	// Provisioning invariant: the per-user adjustment categories must exist
	// before a manual balance edit is attempted. Surfaced as an internal
	// error, never auto-created.
	ErrAdjustmentCategoryMissing = errors.New("balance adjustment category missing")

	ErrInternalError = errors.New("internal error")
)

// Validation constants
const (
	MaxAccountNameLength  = 255
	MaxCategoryNameLength = 255
	MaxDescriptionLength  = 500
)

// IsInvalidArgument reports whether err is a malformed-input error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrInvalidCategoryType) ||
		errors.Is(err, ErrNegativeBalance) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrNameTooLong)
}

// IsNotFound reports whether err means the referenced entity is absent or
// not owned by the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsConflict reports whether err is a duplicate-name conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAccountNameTaken) || errors.Is(err, ErrCategoryNameTaken)
}

// IsFailedPrecondition reports whether err is a rejected-precondition error.
func IsFailedPrecondition(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrSameAccountTransfer)
}
