package types

import (
	"errors"
	"fmt"
)

// Violation reason codes. These are part of the external contract: clients
// dispatch on them, so their meaning must not change.
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidLinkType        = "INVALID_LINK_TYPE"
	CodeEntityNotFound         = "ENTITY_NOT_FOUND"
	CodeEntityArchived         = "ENTITY_ARCHIVED"
	CodeInsufficientClearance  = "INSUFFICIENT_CLEARANCE"
	CodeOrganizationMismatch   = "ORGANIZATION_MISMATCH"
	CodeDuplicatePrimaryLink   = "DUPLICATE_PRIMARY_LINK"
	CodeDuplicateAssignedLink  = "DUPLICATE_ASSIGNED_LINK"
	CodeVersionConflict        = "VERSION_CONFLICT"
	CodeLinkNotFound           = "LINK_NOT_FOUND"
	CodeLinkAlreadyDeleted     = "LINK_ALREADY_DELETED"
	CodeLinkNotDeleted         = "LINK_NOT_DELETED"
	CodeInvalidLinkIDs         = "INVALID_LINK_IDS"
	CodePositionNotFound       = "POSITION_NOT_FOUND"
	CodeMigrationFailed        = "MIGRATION_FAILED"
	CodeRateLimited            = "RATE_LIMITED"
	CodeSuggestionsUnavailable = "AI_SERVICE_UNAVAILABLE"
)

// Violation is a policy or validation failure with a stable machine-readable
// reason code. Field names the offending request field where one applies.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("%s (%s): %s", v.Code, v.Field, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// NewViolation constructs a Violation with a formatted message.
func NewViolation(code, format string, args ...any) *Violation {
	return &Violation{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsViolation unwraps err to a *Violation if one is in its chain.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Lifecycle errors distinct from policy violations. Not-found and conflict
// are separate conditions so callers can tell "refresh and retry" apart
// from "this no longer exists".
var (
	ErrLinkNotFound       = errors.New("link not found")
	ErrVersionConflict    = errors.New("link version conflict")
	ErrLinkAlreadyDeleted = errors.New("link already deleted")
	ErrLinkNotDeleted     = errors.New("link is not deleted")
	ErrStoreClosed        = errors.New("store is closed")
)

// ReasonCode maps a lifecycle error or violation to its contract code.
// Unknown errors map to VALIDATION_ERROR's generic sibling, an empty string,
// which callers treat as an internal failure.
func ReasonCode(err error) string {
	if v, ok := AsViolation(err); ok {
		return v.Code
	}
	switch {
	case errors.Is(err, ErrLinkNotFound):
		return CodeLinkNotFound
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.Is(err, ErrLinkAlreadyDeleted):
		return CodeLinkAlreadyDeleted
	case errors.Is(err, ErrLinkNotDeleted):
		return CodeLinkNotDeleted
	}
	return ""
}
