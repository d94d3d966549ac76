package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProfileNotFound        = errors.New("profile not found")
	ErrProfileAlreadyExists   = errors.New("profile already exists")
	ErrRequestNotFound        = errors.New("introduction request not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrIneligiblePair         = errors.New("ineligible pair")
	ErrProfileIncomplete      = errors.New("profile incomplete")
	ErrDuplicateActiveRequest = errors.New("active request already exists for this pair")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidToken           = errors.New("invalid token")

	// ErrConcurrentUpdate is returned to the loser of two racing writes to
	// the same request.
	ErrConcurrentUpdate = fmt.Errorf("%w: request was changed concurrently", ErrInvalidTransition)

	// ErrGuardianApprovalPending is returned when guardian approval is
	// enforced and has not been given yet.
	ErrGuardianApprovalPending = fmt.Errorf("%w: guardian approval pending", ErrInvalidTransition)
)

// Kind is the semantic category of an error, used by the delivery layer to
// pick a status code.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindIneligiblePair    Kind = "ineligible_pair"
	KindProfileIncomplete Kind = "profile_incomplete"
	KindDuplicateActive   Kind = "duplicate_active_request"
	KindValidation        Kind = "validation_error"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrRequestNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrIneligiblePair):
		return KindIneligiblePair
	case errors.Is(err, ErrProfileIncomplete):
		return KindProfileIncomplete
	case errors.Is(err, ErrDuplicateActiveRequest):
		return KindDuplicateActive
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrProfileAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrInvalidToken):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// EligibilityError carries the first rule that denied an interaction.
type EligibilityError struct {
	Reason DenyReason
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIneligiblePair, e.Reason)
}

func (e *EligibilityError) Is(target error) bool {
	return target == ErrIneligiblePair
}

// TransitionError names the action that is not valid from the current status.
type TransitionError struct {
	Action RequestAction
	From   RequestStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s a %s request", ErrInvalidTransition, e.Action, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ValidationError collects field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
