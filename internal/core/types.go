// Package core provides the business logic for collaborative spreadsheet
// editing: cached document views, column type inference, the change
// application engine and the transaction approval lifecycle.
// This package has no HTTP dependencies and can be used by any frontend.
package core

import (
	"time"
)

// DateFormat is the wire format for date values in change payloads and row
// data. DateStyle is the matching xlsx number format applied to date cells,
// so a rendered cell and its wire form are always the same string.
const (
	DateFormat = "02/01/2006"
	DateStyle  = "dd/mm/yyyy"
)

// DataType is the semantic type of a column, inferred once per document
// version from the first populated row of each column.
type DataType string

const (
	TypeNumeric DataType = "n"
	TypeText    DataType = "s"
	TypeDate    DataType = "d"
	TypeFormula DataType = "f"
	TypeError   DataType = "e"
)

// Derived reports whether cells of this type hold formula text that is
// regenerated by the engine rather than edited directly.
func (t DataType) Derived() bool {
	return t == TypeFormula || t == TypeError
}

// Document is a stored spreadsheet: the xlsx blob plus its metadata and the
// persisted header -> semantic type mapping. Mutations replace the blob
// wholesale; the core only borrows a Document for the duration of a cache
// load or a change application.
type Document struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	ContentType string              `json:"contentType"`
	Blob        []byte              `json:"-"`
	DataTypes   map[string]DataType `json:"-"`
}

// DocumentInfo is the listing form of a Document, without the blob.
type DocumentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	SizeBytes   int    `json:"sizeBytes"`
}

// Info returns the blob-free listing form of the document.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		ID:          d.ID,
		Name:        d.Name,
		ContentType: d.ContentType,
		SizeBytes:   len(d.Blob),
	}
}

// CellKind tags a CellValue.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindInteger
	KindFloat
	KindText
	KindDate
	KindFormula
)

// CellValue is a closed variant for a single parsed cell. Exactly one of the
// payload fields is meaningful, selected by Kind.
type CellValue struct {
	Kind    CellKind
	Int     int64
	Float   float64
	Text    string
	Date    time.Time
	Formula string
}

// Wire returns the JSON-facing form of the value: native numbers for numeric
// kinds, the fixed date format for dates, nil for empty cells.
func (v CellValue) Wire() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindDate:
		return v.Date.Format(DateFormat)
	case KindFormula:
		return v.Formula
	default:
		return nil
	}
}

// ChangeKind discriminates row-level edits.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ParseChangeKind validates a wire change type string.
func ParseChangeKind(s string) (ChangeKind, bool) {
	switch ChangeKind(s) {
	case ChangeCreate, ChangeUpdate, ChangeDelete:
		return ChangeKind(s), true
	}
	return "", false
}

// Change is one atomic row-level edit within a transaction. RowNumber counts
// data rows starting at 1, excluding the header row; the matching sheet row
// is RowNumber+1. Before is the integrity snapshot required for
// update/delete, After holds the new values for create/update. Values are
// string-serialized at the API boundary and coerced by the engine.
type Change struct {
	ID        string            `json:"id"`
	Kind      ChangeKind        `json:"changeType"`
	RowNumber int               `json:"rowNumber"`
	Before    map[string]string `json:"before,omitempty"`
	After     map[string]string `json:"after,omitempty"`
}

// ApprovalStatus is the lifecycle state of a Transaction.
type ApprovalStatus string

const (
	StatusPending          ApprovalStatus = "pending"
	StatusApproved         ApprovalStatus = "approved"
	StatusAutoApproved     ApprovalStatus = "auto_approved"
	StatusChangesRequested ApprovalStatus = "changes_requested"
	StatusRejected         ApprovalStatus = "rejected"
)

// ParseApprovalStatus validates a wire status string.
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch ApprovalStatus(s) {
	case StatusPending, StatusApproved, StatusAutoApproved, StatusChangesRequested, StatusRejected:
		return ApprovalStatus(s), true
	}
	return "", false
}

// Terminal reports whether the status permits no further transitions.
// A pending transaction is the only one that may still be acted on;
// changes_requested is re-opened only by submitting a new transaction.
func (s ApprovalStatus) Terminal() bool {
	return s != StatusPending
}

// Transaction is an approval-gated batch of Changes against one Document.
// Changes are immutable once recorded; only status, notes and approver
// change afterwards.
type Transaction struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"documentId"`
	UserID     string         `json:"userId"`
	Status     ApprovalStatus `json:"status"`
	Notes      string         `json:"notes,omitempty"`
	ApproverID string         `json:"approverId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	ApprovedAt *time.Time     `json:"approvedAt,omitempty"`
	Changes    []Change       `json:"changes"`
}

// Role is a user's effective privilege over one document.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

// ParseRole validates a wire role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleContributor, RoleViewer:
		return Role(s), true
	}
	return "", false
}

// Permission links a user to a document with a role.
type Permission struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Role       Role   `json:"role"`
}

// User is an account that can hold permissions and submit transactions.
type User struct {
	ID           string `json:"id"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	TempPassword bool   `json:"tempPassword"`
}

// LookupOperator is how a lookup field is matched against the target field.
type LookupOperator string

const (
	LookupEquals   LookupOperator = "equals"
	LookupContains LookupOperator = "contains"
)

// ParseLookupOperator validates a wire lookup operator string.
func ParseLookupOperator(s string) (LookupOperator, bool) {
	switch LookupOperator(s) {
	case LookupEquals, LookupContains:
		return LookupOperator(s), true
	}
	return "", false
}

// Lookup is a named cross-document reference: a field of one document
// resolved against a field of another.
type Lookup struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	DocumentID       string         `json:"documentId"`
	Field            string         `json:"field"`
	LookupDocumentID string         `json:"lookupDocumentId"`
	LookupField      string         `json:"lookupField"`
	Operator         LookupOperator `json:"operator"`
}

// FilterType is the value domain a saved-view filter operates on.
type FilterType string

const (
	FilterNumber FilterType = "number"
	FilterText   FilterType = "text"
	FilterDate   FilterType = "date"
)

// FilterOperator combines a filter's conditions.
type FilterOperator string

const (
	FilterAnd FilterOperator = "AND"
	FilterOr  FilterOperator = "OR"
)

// ConditionOperator is a single comparison within a filter.
type ConditionOperator string

const (
	CondEquals             ConditionOperator = "equals"
	CondNotEqual           ConditionOperator = "notEqual"
	CondContains           ConditionOperator = "contains"
	CondNotContains        ConditionOperator = "notContains"
	CondStartsWith         ConditionOperator = "startsWith"
	CondEndsWith           ConditionOperator = "endsWith"
	CondLessThan           ConditionOperator = "lessThan"
	CondLessThanOrEqual    ConditionOperator = "lessThanOrEqual"
	CondGreaterThan        ConditionOperator = "greaterThan"
	CondGreaterThanOrEqual ConditionOperator = "greaterThanOrEqual"
	CondInRange            ConditionOperator = "inRange"
	CondBlank              ConditionOperator = "blank"
	CondNotBlank           ConditionOperator = "notBlank"
	CondEmpty              ConditionOperator = "empty"
)

// Condition is one comparison inside a saved-view filter.
type Condition struct {
	ID       string            `json:"id"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// Filter restricts one field of a saved view.
type Filter struct {
	ID         string         `json:"id"`
	Field      string         `json:"field"`
	FilterType FilterType     `json:"filterType"`
	Operator   FilterOperator `json:"operator,omitempty"`
	Conditions []Condition    `json:"conditions"`
}

// SavedView is a named subset of a document's fields with filters attached.
type SavedView struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"documentId"`
	Name       string   `json:"name"`
	Fields     []string `json:"fields"`
	Filters    []Filter `json:"filters"`
}
