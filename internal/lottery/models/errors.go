package models

import (
	"errors"
	"fmt"

	dErrors "lotellar/pkg/domain-errors"
)

// Error kinds surfaced by lottery operations. Every failure returned by the
// service wraps exactly one of these, so callers branch with errors.Is while
// transports use the attached dErrors code.
var (
	ErrNotFound             = errors.New("lottery not found")
	ErrAlreadyCompleted     = errors.New("lottery is already completed")
	ErrFull                 = errors.New("lottery is full")
	ErrDuplicateParticipant = errors.New("participant already joined this lottery")
	ErrAuthorizationFailed  = errors.New("authorization failed")
	ErrNotInitialized       = errors.New("registry is not initialized")
	ErrAlreadyInitialized   = errors.New("registry is already initialized")
	ErrWinnerNotParticipant = errors.New("winner is not a participant")
	ErrUnsupported          = errors.New("operation not supported by this revision")
	ErrInvalidInput         = errors.New("invalid input")
)

// kindError wraps a kind with a code and a contextual message.
func kindError(kind error, code dErrors.Code, format string, args ...any) error {
	return dErrors.Wrap(kind, code, fmt.Sprintf(format, args...))
}

// NotFound reports that no lottery with id exists.
func NotFound(id ID) error {
	return kindError(ErrNotFound, dErrors.CodeNotFound, "lottery %d", id)
}

// Unauthorized reports that identity could not be verified as the caller.
func Unauthorized(identity Address) error {
	return kindError(ErrAuthorizationFailed, dErrors.CodeUnauthorized, "caller %q", identity)
}

// Forbidden reports that a verified caller lacks the role an operation needs.
func Forbidden(identity Address, reason string) error {
	return kindError(ErrAuthorizationFailed, dErrors.CodeForbidden, "caller %q %s", identity, reason)
}

// NotInitialized reports that the registry must be initialized first.
func NotInitialized() error {
	return dErrors.Wrap(ErrNotInitialized, dErrors.CodePreconditionFailed, "initialize the registry first")
}

// AlreadyInitialized reports a refused re-initialization.
func AlreadyInitialized(count ID) error {
	return kindError(ErrAlreadyInitialized, dErrors.CodeConflict, "registry holds %d issued ids", count)
}

// Unsupported reports an operation missing from the configured revision.
func Unsupported(op string, rev Revision) error {
	return kindError(ErrUnsupported, dErrors.CodeNotImplemented, "%s on revision %s", op, rev)
}

// InvalidInput reports rejected caller input.
func InvalidInput(format string, args ...any) error {
	return kindError(ErrInvalidInput, dErrors.CodeValidation, format, args...)
}
