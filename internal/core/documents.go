package core

// documents.go covers the document lifecycle: upload with type inference,
// cached data reads, wholesale replacement, download and deletion.

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ColumnDef carries grid rendering hints for one column, derived from the
// column's semantic type. Derived columns are read-only and marked with a
// trailing asterisk.
type ColumnDef struct {
	Field      string `json:"field"`
	ColID      string `json:"colId"`
	HeaderName string `json:"headerName,omitempty"`
	Filter     string `json:"filter"`
	Editable   bool   `json:"editable"`
}

// TableData is the read surface of a document: column definitions plus one
// map per data row, keyed by header, with _rowNumber starting at 1.
type TableData struct {
	ColumnDefs []ColumnDef      `json:"columnDefs"`
	RowData    []map[string]any `json:"rowData"`
}

// CreateDocument stores an uploaded document, infers its column types and
// grants the uploader the owner role.
func (s *Service) CreateDocument(ctx context.Context, userID, name, contentType string, blob []byte) (*Document, error) {
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	existing, err := s.store.ListDocumentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range existing {
		if d.Name == name {
			return nil, &ValidationError{Message: "document name " + name + " already in use"}
		}
	}

	dataTypes, err := InferDataTypes(blob)
	if err != nil {
		return nil, &ValidationError{Message: "unreadable workbook: " + err.Error()}
	}

	doc := &Document{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Blob:        blob,
		DataTypes:   dataTypes,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	owner := &Permission{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		UserID:     userID,
		Role:       RoleOwner,
	}
	if err := s.store.CreatePermission(ctx, owner); err != nil {
		return nil, err
	}

	slog.Info("document created", "document", doc.ID, "name", name, "columns", len(dataTypes))
	return doc, nil
}

// GetDocument returns a document the caller holds any role on.
func (s *Service) GetDocument(ctx context.Context, userID, id string) (*Document, error) {
	if _, err := s.requireRole(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.getDocument(ctx, id)
}

// getDocument fetches without a permission check, for internal callers that
// have already been gated.
func (s *Service) getDocument(ctx context.Context, id string) (*Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &NotFoundError{Resource: "document", ID: id}
	}
	return doc, nil
}

// ListDocuments lists the documents the caller can reach.
func (s *Service) ListDocuments(ctx context.Context, userID string) ([]DocumentInfo, error) {
	docs, err := s.store.ListDocumentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	infos := make([]DocumentInfo, len(docs))
	for i, d := range docs {
		infos[i] = d.Info()
	}
	return infos, nil
}

// Data returns the cached tabular read of a document. The first read after
// any blob mutation re-parses; subsequent reads hit the view cache.
func (s *Service) Data(ctx context.Context, userID, id string) (*TableData, error) {
	if _, err := s.requireRole(ctx, userID, id); err != nil {
		return nil, err
	}
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := s.cache.GetOrLoad(id, func(string) (*View, error) {
		slog.Info("document not cached, parsing read-only view", "document", id)
		return ParseView(doc.Blob, doc.DataTypes)
	})
	if err != nil {
		return nil, err
	}

	data := &TableData{
		ColumnDefs: columnDefinitions(view.Headers, doc.DataTypes),
		RowData:    make([]map[string]any, 0, len(view.Rows)),
	}
	for i, cells := range view.Rows {
		row := make(map[string]any, len(view.Headers)+1)
		row["_rowNumber"] = i + 1
		for j, h := range view.Headers {
			row[h] = cells[j].Wire()
		}
		data.RowData = append(data.RowData, row)
	}
	return data, nil
}

// ReplaceDocument swaps a document's blob wholesale. The replacement must
// keep the existing name; column types are re-inferred, the document's
// transactions are dropped and the cached view is invalidated.
func (s *Service) ReplaceDocument(ctx context.Context, userID, id, name, contentType string, blob []byte) (*Document, error) {
	if _, err := s.requireRole(ctx, userID, id, RoleOwner); err != nil {
		return nil, err
	}
	doc, err := s.getDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Name != name {
		return nil, &ValidationError{Message: "replacement does not match existing document"}
	}
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	dataTypes, err := InferDataTypes(blob)
	if err != nil {
		return nil, &ValidationError{Message: "unreadable workbook: " + err.Error()}
	}

	lock := s.docLock(id)
	lock.Lock()
	defer lock.Unlock()

	doc.ContentType = contentType
	doc.Blob = blob
	doc.DataTypes = dataTypes

	if err := s.store.DeleteTransactionsForDocument(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.cache.Remove(id)

	slog.Info("document replaced", "document", id, "name", name)
	return doc, nil
}

// DeleteDocument removes a document and everything attached to it.
func (s *Service) DeleteDocument(ctx context.Context, userID, id string) error {
	if _, err := s.requireRole(ctx, userID, id, RoleOwner); err != nil {
		return err
	}
	if _, err := s.getDocument(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	return nil
}

// DownloadDocument returns the raw blob for any role holder.
func (s *Service) DownloadDocument(ctx context.Context, userID, id string) (*Document, error) {
	if _, err := s.requireRole(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.getDocument(ctx, id)
}

// ValidateContentType accepts spreadsheet media types only.
func ValidateContentType(contentType string) error {
	if !strings.HasPrefix(contentType, "application/vnd.") {
		return &ValidationError{Message: "unsupported content type " + contentType}
	}
	return nil
}

// columnDefinitions derives grid hints from the stored column types.
func columnDefinitions(headers []string, types map[string]DataType) []ColumnDef {
	defs := make([]ColumnDef, 0, len(headers))
	for j, h := range headers {
		letter, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			letter = ""
		}
		def := ColumnDef{Field: h, ColID: letter, Editable: true}
		switch types[h] {
		case TypeText:
			def.Filter = "agTextColumnFilter"
		case TypeDate:
			def.Filter = "agDateColumnFilter"
		case TypeFormula, TypeError:
			def.Filter = "agNumberColumnFilter"
			def.Editable = false
			def.HeaderName = h + "*"
		default:
			def.Filter = "agNumberColumnFilter"
		}
		defs = append(defs, def)
	}
	return defs
}
