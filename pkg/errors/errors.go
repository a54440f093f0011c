package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrSessionNotFound  = New("SESSION_NOT_FOUND", http.StatusNotFound, "minting session not found")
	ErrSkillLoadFailed  = New("SKILL_LOAD_FAILED", http.StatusBadGateway, "failed to load mintable skills")
	ErrSkillNotEligible = New("SKILL_NOT_ELIGIBLE", http.StatusUnprocessableEntity, "skill is not eligible for minting")
	ErrNoSkillSelected  = New("NO_SKILL_SELECTED", http.StatusPreconditionFailed, "no skill selected")
	ErrEvidenceUpload   = New("EVIDENCE_UPLOAD_FAILED", http.StatusBadGateway, "failed to upload evidence")
	ErrMissingMintData  = New("MISSING_REQUIRED_DATA", http.StatusPreconditionFailed, "missing required data for minting")
	ErrMintInProgress   = New("MINT_IN_PROGRESS", http.StatusConflict, "a minting operation is already in progress")
	ErrMintFailed       = New("MINT_FAILED", http.StatusBadGateway, "credential minting failed")
	ErrMintNotFinished  = New("MINT_NOT_FINISHED", http.StatusConflict, "credential has not been minted yet")
	ErrResetRequired    = New("RESET_REQUIRED", http.StatusConflict, "previous minting attempt finished, reset the session first")
	ErrSessionBusy      = New("SESSION_BUSY", http.StatusConflict, "session is busy")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
