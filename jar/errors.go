package jar

import (
	"errors"
	"fmt"
)

// Input was rejected before any state was touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// A user-visible business outcome (not enough coins, item not owned, etc). The ledger is left untouched when one of these is returned.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	ErrInsufficientFunds  = &DomainError{Code: "InsufficientFunds", Message: "not enough coins"}
	ErrNotOwned           = &DomainError{Code: "NotOwned", Message: "item is not in inventory"}
	ErrNoWarningsToRemove = &DomainError{Code: "NoWarningsToRemove", Message: "no warnings to remove"}
	ErrItemNotFound       = &DomainError{Code: "ItemNotFound", Message: "item not found"}
	ErrNotAuthorized      = &DomainError{Code: "NotAuthorized", Message: "administrator permission required"}
)

// Marks persistence failures which are worth retrying.
var ErrTransient = errors.New("transient persistence failure")

// Wraps a persistence error so that callers can match it with errors.Is(err, ErrTransient).
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

// A platform-level side effect (role change, message delete, etc) failed. These are logged and reported, but never roll back a ledger mutation which preceded them.
type ExternalActionError struct {
	Op  string
	Err error
}

func (e *ExternalActionError) Error() string {
	return fmt.Sprintf("external action %s failed: %v", e.Op, e.Err)
}

func (e *ExternalActionError) Unwrap() error {
	return e.Err
}

// Helper for checking whether an error is one of the user-visible domain outcomes.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// Helper for checking whether an error is a validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
