package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Kind classifies a domain failure and carries its default HTTP mapping.
type Kind string

const (
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindForbidden           Kind = "FORBIDDEN"
	KindNotFound            Kind = "NOT_FOUND"
	KindDuplicateIdentifier Kind = "DUPLICATE_IDENTIFIER"
	KindAlreadyEnrolled     Kind = "ALREADY_ENROLLED"
	KindOfferingFull        Kind = "OFFERING_FULL"
	KindCapacityConflict    Kind = "CAPACITY_CONFLICT"
	KindScheduleConflict    Kind = "SCHEDULE_CONFLICT"
	KindTemplateOverlap     Kind = "TEMPLATE_OVERLAP"
	KindRegistrationClosed  Kind = "REGISTRATION_CLOSED"
	KindIneligibleStudent   Kind = "INELIGIBLE_STUDENT"
	KindAttendanceRequired  Kind = "ATTENDANCE_REQUIRED"
	KindPreconditionFailed  Kind = "PRECONDITION_FAILED"
	KindValidation          Kind = "VALIDATION"
	KindInternal            Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindUnauthorized:        fiber.StatusUnauthorized,
	KindForbidden:           fiber.StatusForbidden,
	KindNotFound:            fiber.StatusNotFound,
	KindDuplicateIdentifier: fiber.StatusConflict,
	KindAlreadyEnrolled:     fiber.StatusConflict,
	KindOfferingFull:        fiber.StatusConflict,
	KindCapacityConflict:    fiber.StatusConflict,
	KindScheduleConflict:    fiber.StatusConflict,
	KindTemplateOverlap:     fiber.StatusConflict,
	KindRegistrationClosed:  fiber.StatusConflict,
	KindIneligibleStudent:   fiber.StatusConflict,
	KindAttendanceRequired:  fiber.StatusBadRequest,
	KindPreconditionFailed:  fiber.StatusConflict,
	KindValidation:          fiber.StatusBadRequest,
	KindInternal:            fiber.StatusInternalServerError,
}

// Error is a domain error with a kind code and a short human message.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// E builds a domain error.
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context surfaced in the error body.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// Wrap keeps the underlying cause for logging while exposing kind and message.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: err}
}

// As extracts a domain error, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if e, ok := As(err); ok {
		return e.Kind == kind
	}
	return false
}

// FromDB translates database-level failures into domain errors: record-miss
// to NotFound, unique violations to DuplicateIdentifier, FK violations to
// NotFound. Anything else becomes Internal.
func FromDB(err error, resource string) *Error {
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return E(KindNotFound, "%s not found", resource)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Duplicate entry"), strings.Contains(msg, "1062"):
		return E(KindDuplicateIdentifier, "%s already exists", resource)
	case strings.Contains(msg, "foreign key constraint"), strings.Contains(msg, "1452"):
		return E(KindNotFound, "referenced %s does not exist", resource)
	}
	return Wrap(err, KindInternal, "unexpected database error")
}

// IsSerializationFailure detects transient conflicts worth retrying
// (MySQL deadlock 1213 and lock wait timeout 1205).
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") ||
		strings.Contains(msg, "1205") ||
		strings.Contains(msg, "Deadlock found") ||
		strings.Contains(msg, "try restarting transaction")
}
