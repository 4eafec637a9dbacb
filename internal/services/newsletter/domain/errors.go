package domain

import "errors"

var (
	// ErrNotFound indicates a subscriber, newsletter, section, or job was not found.
	ErrNotFound = errors.New("newsletter record not found")
	// ErrConflict indicates a write lost against a concurrent change or a
	// uniqueness rule.
	ErrConflict = errors.New("newsletter conflict")
	// ErrInvalidTransition indicates the requested status change is not
	// allowed from the current status.
	ErrInvalidTransition = errors.New("invalid newsletter status transition")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("newsletter store is not configured")
	// ErrInvalidEmail indicates a malformed subscriber address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrSubjectRequired indicates a newsletter without a subject in any language.
	ErrSubjectRequired = errors.New("newsletter subject is required")
	// ErrSectionsRequired indicates scheduling a newsletter that has no sections.
	ErrSectionsRequired = errors.New("newsletter needs at least one section")
	// ErrScheduleInPast indicates a schedule time before the current minute.
	ErrScheduleInPast = errors.New("schedule time is in the past")
	// ErrInvalidSection indicates malformed section input.
	ErrInvalidSection = errors.New("invalid newsletter section")
	// ErrInvalidOrder indicates a reorder request that is not a permutation of
	// the current sections.
	ErrInvalidOrder = errors.New("section order must list every section exactly once")
	// ErrContentNotFound indicates a section referencing unknown program content.
	ErrContentNotFound = errors.New("program content not found")
	// ErrConfirmationNotSent indicates the subscriber was stored but the
	// confirmation email could not be delivered.
	ErrConfirmationNotSent = errors.New("confirmation email not sent")
)
