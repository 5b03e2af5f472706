package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means the service cannot run at all with its settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrBulkLoad means users and tags could not be enumerated for a run.
	ErrBulkLoad = errors.New("bulk load failed")
	// ErrGeneration covers every per-tag generation failure.
	ErrGeneration = errors.New("generation failed")
	// ErrDelivery covers every per-user digest delivery failure.
	ErrDelivery = errors.New("delivery failed")
	// ErrRunInProgress is returned when a run is requested while one is active.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNotFound maps to HTTP 404.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a caller touches another user's tag.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation maps to HTTP 422.
	ErrValidation = errors.New("validation error")
)

// GenerationError is a failed assessment or report generation for a subject.
type GenerationError struct {
	Subject string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %q: %v", e.Subject, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// DeliveryError is a failed digest delivery to an address.
type DeliveryError struct {
	Address string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Address, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// BulkLoadError aborts a run before any user is processed.
type BulkLoadError struct {
	Err error
}

func (e *BulkLoadError) Error() string {
	return fmt.Sprintf("%v: %v", ErrBulkLoad, e.Err)
}

func (e *BulkLoadError) Unwrap() error { return e.Err }

func (e *BulkLoadError) Is(target error) bool { return target == ErrBulkLoad }
