package domain

import "fmt"

// ValidationError indicates malformed or contradictory input. It is surfaced
// to the caller verbatim and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError indicates a missing record. Ownership mismatches are also
// reported as not-found so the existence of other users' records never leaks.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidStateError indicates an operation that is not legal from the
// entity's current lifecycle state.
type InvalidStateError struct {
	Current string
	Target  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.Current, e.Target)
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(current, target string) *InvalidStateError {
	return &InvalidStateError{Current: current, Target: target}
}

// ConflictError indicates a concurrent modification was detected.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// ForbiddenError indicates the caller is not allowed to act on the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// DuplicatePaymentError indicates the booking already has a completed payment.
type DuplicatePaymentError struct {
	BookingNumber string
}

func (e *DuplicatePaymentError) Error() string {
	return fmt.Sprintf("booking %s already has a completed payment", e.BookingNumber)
}

// NewDuplicatePaymentError creates a new DuplicatePaymentError.
func NewDuplicatePaymentError(bookingNumber string) *DuplicatePaymentError {
	return &DuplicatePaymentError{BookingNumber: bookingNumber}
}

// InvalidAmountError indicates a monetary amount outside the allowed bounds.
type InvalidAmountError struct {
	Message string
}

func (e *InvalidAmountError) Error() string {
	return e.Message
}

// NewInvalidAmountError creates a new InvalidAmountError.
func NewInvalidAmountError(message string) *InvalidAmountError {
	return &InvalidAmountError{Message: message}
}

// ResourceExhaustedError indicates a bounded retry loop ran out of attempts.
// It is logged as an operational anomaly and surfaced as retryable.
type ResourceExhaustedError struct {
	Operation string
	Attempts  int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("%s exhausted after %d attempts", e.Operation, e.Attempts)
}

// NewResourceExhaustedError creates a new ResourceExhaustedError.
func NewResourceExhaustedError(operation string, attempts int) *ResourceExhaustedError {
	return &ResourceExhaustedError{Operation: operation, Attempts: attempts}
}
