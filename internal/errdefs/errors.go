package errdefs

import (
	"errors"
	"fmt"

	"defense_service/internal/model"
)

var (
	ErrInvalidState        = errors.New("invalid state")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrCommitteeIncomplete = errors.New("committee incomplete")
	ErrSchedulingConflict  = errors.New("scheduling conflict")
	ErrPreconditionFailed  = errors.New("precondition failed")
	ErrValidation          = errors.New("validation error")
	ErrNotEditable         = errors.New("defense is not editable")
	ErrNotCancelable       = errors.New("defense is not cancelable")
	ErrUnauthenticated     = errors.New("unauthenticated")
)

type Code string

const (
	CodeInvalidState        Code = "INVALID_STATE"
	CodeNotFound            Code = "NOT_FOUND"
	CodeForbidden           Code = "FORBIDDEN"
	CodeCommitteeIncomplete Code = "COMMITTEE_INCOMPLETE"
	CodeSchedulingConflict  Code = "SCHEDULING_CONFLICT"
	CodePreconditionFailed  Code = "PRECONDITION_FAILED"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotEditable         Code = "NOT_EDITABLE"
	CodeNotCancelable       Code = "NOT_CANCELABLE"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeInternal            Code = "INTERNAL"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrInvalidState, CodeInvalidState},
	{ErrNotFound, CodeNotFound},
	{ErrForbidden, CodeForbidden},
	{ErrCommitteeIncomplete, CodeCommitteeIncomplete},
	{ErrSchedulingConflict, CodeSchedulingConflict},
	{ErrPreconditionFailed, CodePreconditionFailed},
	{ErrValidation, CodeValidation},
	{ErrNotEditable, CodeNotEditable},
	{ErrNotCancelable, CodeNotCancelable},
	{ErrUnauthenticated, CodeUnauthenticated},
}

// CodeOf resolves the stable code of err, looking through wrapping.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// Validation wraps ErrValidation with a reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InvalidState wraps ErrInvalidState with a reason.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// ConflictError is returned when a proposed defense window hits hard
// conflicts.
type ConflictError struct {
	Conflicts []model.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %d hard conflict(s)", ErrSchedulingConflict, len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error {
	return ErrSchedulingConflict
}

// Conflicts extracts the hard conflicts carried by err, if any.
func Conflicts(err error) []model.Conflict {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Conflicts
	}
	return nil
}
