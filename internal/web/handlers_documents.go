package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/logging"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

// handleUploadDocument stores a new document from a multipart upload.
// The form must carry the workbook under the "file" field; an optional
// "name" field overrides the uploaded filename.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	name, contentType, blob, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	doc, err := s.service.CreateDocument(r.Context(), middleware.UserID(r.Context()), name, contentType, blob)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc.Info())
}

// handleListDocuments lists the caller's reachable documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.service.ListDocuments(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetDocument returns document metadata.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.GetDocument(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Info())
}

// handleReplaceDocument swaps a document's content wholesale.
func (s *Server) handleReplaceDocument(w http.ResponseWriter, r *http.Request) {
	name, contentType, blob, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	doc, err := s.service.ReplaceDocument(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "documentID"), name, contentType, blob)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc.Info())
}

// handleDeleteDocument removes a document and everything attached to it.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if err := s.service.DeleteDocument(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("document deleted", "document", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleDocumentData returns the cached tabular read of a document.
func (s *Server) handleDocumentData(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Data(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleDownloadDocument streams the stored workbook back to the caller.
func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.DownloadDocument(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(doc.Blob)))
	w.Write(doc.Blob)
}

// readUpload extracts the workbook from a size-capped multipart form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (name, contentType string, blob []byte, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		return "", "", nil, &core.ValidationError{
			Message: fmt.Sprintf("upload exceeds the %d MB limit or is not a valid multipart form", s.cfg.Upload.MaxFileSizeMB),
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, &core.ValidationError{Message: "missing file field"}
	}
	defer file.Close()

	blob, err = io.ReadAll(file)
	if err != nil {
		return "", "", nil, &core.ValidationError{Message: "unreadable upload: " + err.Error()}
	}

	name = r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	if name == "" {
		return "", "", nil, &core.ValidationError{Message: "upload has no name"}
	}

	contentType = header.Header.Get("Content-Type")
	return name, contentType, blob, nil
}
