package core

// errors.go defines the typed error kinds the core surfaces and their
// mapping to user-facing messages with support codes.
//
// Every error carries enough detail to identify the offending change (row
// number, header) without exposing workbook internals. MapError converts
// any core error into a UserMessage; the web layer uses it to build
// responses and to pick HTTP status codes.

import (
	"errors"
	"fmt"
)

// NotFoundError reports an unknown resource id.
type NotFoundError struct {
	Resource string // "document", "transaction", "user", ...
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// PermissionError reports a missing or insufficient role for an operation.
type PermissionError struct {
	UserID     string
	DocumentID string
	Role       Role // resolved role, empty if none
}

func (e *PermissionError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("user %q has no role for document %q", e.UserID, e.DocumentID)
	}
	return fmt.Sprintf("role %q is insufficient for this operation on document %q", e.Role, e.DocumentID)
}

// SchemaMismatchError reports a change that references a header the document
// does not have, or omits a header the document requires.
type SchemaMismatchError struct {
	Header    string
	ChangeID  string
	RowNumber int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("column %q not found in change %q data for row %d", e.Header, e.ChangeID, e.RowNumber)
}

// ChangeConflictError reports an update/delete whose before snapshot matches
// no candidate row, even after the backward scan.
type ChangeConflictError struct {
	ChangeID  string
	RowNumber int
}

func (e *ChangeConflictError) Error() string {
	return fmt.Sprintf("row %d does not match the expected data for change %q and no earlier row matches", e.RowNumber, e.ChangeID)
}

// CoercionError reports a change value that cannot be parsed into its
// column's semantic type.
type CoercionError struct {
	Header    string
	RowNumber int
	Value     string
	Type      DataType
	Err       error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("value %q for column %q in row %d is not a valid %s value", e.Value, e.Header, e.RowNumber, typeName(e.Type))
}

func (e *CoercionError) Unwrap() error { return e.Err }

// RenderError reports a failed or timed-out external rendering step. The
// stored blob is never replaced when rendering fails.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("document rendering failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ValidationError reports malformed caller input (bad email, duplicate name,
// unsupported content type and the like).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthError reports a failed credential check.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func typeName(t DataType) string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeText:
		return "text"
	case TypeDate:
		return "date"
	case TypeFormula:
		return "formula"
	case TypeError:
		return "error"
	default:
		return string(t)
	}
}

// UserMessage is a user-friendly error with a support code. Users can quote
// the code to support staff for faster diagnosis.
type UserMessage struct {
	Code    string // Short reference code, e.g. "CHG002"
	Message string // What went wrong, in plain language
	Action  string // What the user can do about it
}

var defaultMessage = UserMessage{
	Code:    "ERR000",
	Message: "An unexpected error occurred",
	Action:  "Please try again, or contact support with this code",
}

// MapError maps a core error to its user-facing message.
//
// Codes:
//
//	RES001 - resource not found
//	PRM001 - permission denied
//	CHG001 - schema mismatch
//	CHG002 - change conflict
//	CHG003 - coercion failure
//	RND001 - rendering failure
//	VAL001 - invalid input
//	AUTH001 - failed credential check
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		notFound   *NotFoundError
		permission *PermissionError
		schema     *SchemaMismatchError
		conflict   *ChangeConflictError
		coercion   *CoercionError
		render     *RenderError
		validation *ValidationError
		auth       *AuthError
	)

	switch {
	case errors.As(err, &notFound):
		return UserMessage{
			Code:    "RES001",
			Message: err.Error(),
			Action:  "Check the id and try again",
		}
	case errors.As(err, &permission):
		return UserMessage{
			Code:    "PRM001",
			Message: "You do not have permission to perform this operation",
			Action:  "Ask the document owner to grant you access",
		}
	case errors.As(err, &schema):
		return UserMessage{
			Code:    "CHG001",
			Message: err.Error(),
			Action:  "Reload the document and resubmit your changes",
		}
	case errors.As(err, &conflict):
		return UserMessage{
			Code:    "CHG002",
			Message: err.Error(),
			Action:  "The document changed since you read it; reload and resubmit",
		}
	case errors.As(err, &coercion):
		return UserMessage{
			Code:    "CHG003",
			Message: err.Error(),
			Action:  "Dates must use the " + DateStyle + " format",
		}
	case errors.As(err, &render):
		return UserMessage{
			Code:    "RND001",
			Message: "The document could not be rendered; no changes were saved",
			Action:  "Try approving again in a few moments",
		}
	case errors.As(err, &validation):
		return UserMessage{
			Code:    "VAL001",
			Message: err.Error(),
			Action:  "Correct the input and try again",
		}
	case errors.As(err, &auth):
		return UserMessage{
			Code:    "AUTH001",
			Message: err.Error(),
			Action:  "Check your credentials and try again",
		}
	}

	return defaultMessage
}
