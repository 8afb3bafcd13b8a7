package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

type createLookupRequest struct {
	Name             string `json:"name"`
	DocumentID       string `json:"documentId"`
	Field            string `json:"field"`
	LookupDocumentID string `json:"lookupDocumentId"`
	LookupField      string `json:"lookupField"`
	Operator         string `json:"operator"`
}

// handleCreateLookup links a field of one document to a field of another.
func (s *Server) handleCreateLookup(w http.ResponseWriter, r *http.Request) {
	var req createLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	op, ok := core.ParseLookupOperator(req.Operator)
	if !ok {
		s.respondError(w, r, &core.ValidationError{Message: "unknown lookup operator " + req.Operator})
		return
	}

	lookup, err := s.service.CreateLookup(r.Context(), middleware.UserID(r.Context()),
		req.DocumentID, req.Name, req.Field, req.LookupDocumentID, req.LookupField, op)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, lookup)
}

// handleGetLookup fetches one lookup.
func (s *Server) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	lookup, err := s.service.GetLookup(r.Context(), chi.URLParam(r, "lookupID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookup)
}

// handleListLookups lists a document's lookups.
func (s *Server) handleListLookups(w http.ResponseWriter, r *http.Request) {
	lookups, err := s.service.ListLookups(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookups)
}

// handleDeleteLookup removes a lookup.
func (s *Server) handleDeleteLookup(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteLookup(r.Context(), chi.URLParam(r, "lookupID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
