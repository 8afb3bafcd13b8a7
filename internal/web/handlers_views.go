package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

type savedViewRequest struct {
	DocumentID string        `json:"documentId"`
	Name       string        `json:"name"`
	Fields     []string      `json:"fields"`
	Filters    []core.Filter `json:"filters"`
}

// handleCreateSavedView stores a named field subset with filters.
func (s *Server) handleCreateSavedView(w http.ResponseWriter, r *http.Request) {
	var req savedViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	view, err := s.service.CreateSavedView(r.Context(), middleware.UserID(r.Context()),
		req.DocumentID, req.Name, req.Fields, req.Filters)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// handleGetSavedView fetches one saved view.
func (s *Server) handleGetSavedView(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetSavedView(r.Context(), chi.URLParam(r, "viewID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListSavedViews lists a document's saved views.
func (s *Server) handleListSavedViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.service.ListSavedViews(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleUpdateSavedView renames a view or swaps its fields and filters.
func (s *Server) handleUpdateSavedView(w http.ResponseWriter, r *http.Request) {
	var req savedViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	view, err := s.service.UpdateSavedView(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "viewID"), req.Name, req.Fields, req.Filters)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// handleDeleteSavedView removes a saved view.
func (s *Server) handleDeleteSavedView(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSavedView(r.Context(), chi.URLParam(r, "viewID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
