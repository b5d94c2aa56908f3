package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/machine-orders/internal/domains/orders/domain"
	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var (
	// ErrValidationFailed signals a missing or malformed required field.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNotFound signals the order or line item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate order number or a stale revision.
	ErrConflict = errors.New("conflict")
	// ErrReferentialIntegrity signals a referenced id that does not resolve.
	ErrReferentialIntegrity = errors.New("referential integrity violated")
	// ErrInvalidTransition signals the current status does not permit the operation.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrPersistenceFailure signals the storage call failed.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// kinds lists every classification in precedence order. ErrorKind reports
// the first match, so an error wrapping several kinds is named deterministically.
var kinds = []struct {
	name string
	err  error
}{
	{"ValidationFailed", ErrValidationFailed},
	{"NotFound", ErrNotFound},
	{"Conflict", ErrConflict},
	{"ReferentialIntegrity", ErrReferentialIntegrity},
	{"InvalidTransition", ErrInvalidTransition},
	{"PersistenceFailure", ErrPersistenceFailure},
}

func classified(err error) bool {
	return ErrorKind(err) != ""
}

func mapError(err error) error {
	if err == nil || classified(err) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrEmptyOrderNumber),
		errors.Is(err, domain.ErrInvalidControlSystem),
		errors.Is(err, domain.ErrInvalidMachineModel),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrDuplicateOption),
		errors.Is(err, domain.ErrRejectionNotesRequired),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrUnknownAction):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, domain.ErrLineItemNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ports.ErrDuplicateOrderNumber),
		errors.Is(err, ports.ErrStaleRevision):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, ports.ErrEntityNotFound):
		return fmt.Errorf("%w: %w", ErrReferentialIntegrity, err)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrContentLocked),
		errors.Is(err, domain.ErrOrderClosed):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return err
}

// mapStorageError classifies repository failures; anything unknown is a persistence failure.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	mapped := mapError(err)
	if classified(mapped) {
		return mapped
	}
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

// ErrorKind names the classification of err, or returns "" when it is unclassified.
// The names survive serialisation, e.g. as Temporal application error types.
func ErrorKind(err error) string {
	for _, kind := range kinds {
		if errors.Is(err, kind.err) {
			return kind.name
		}
	}
	return ""
}

// KindError returns the sentinel for a name produced by ErrorKind.
func KindError(name string) (error, bool) {
	for _, kind := range kinds {
		if kind.name == name {
			return kind.err, true
		}
	}
	return nil, false
}
