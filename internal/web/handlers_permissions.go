package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

type grantPermissionRequest struct {
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Role       string `json:"role"`
}

type updatePermissionRequest struct {
	Role string `json:"role"`
}

// handleGrantPermission gives a user a role on a document. Owner only.
func (s *Server) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	var req grantPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	role, ok := core.ParseRole(req.Role)
	if !ok {
		s.respondError(w, r, &core.ValidationError{Message: "unknown role " + req.Role})
		return
	}

	perm, err := s.service.GrantPermission(r.Context(), middleware.UserID(r.Context()),
		req.DocumentID, req.UserID, role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, perm)
}

// handleListPermissions lists all roles on a document.
func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.service.ListPermissions(r.Context(), chi.URLParam(r, "documentID"), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

// handleUpdatePermission changes a user's role on a document. Owner only.
func (s *Server) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req updatePermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	role, ok := core.ParseRole(req.Role)
	if !ok {
		s.respondError(w, r, &core.ValidationError{Message: "unknown role " + req.Role})
		return
	}

	perm, err := s.service.UpdatePermission(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "permissionID"), role)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, perm)
}

// handleRevokePermission removes a user's role on a document. Owner only.
func (s *Server) handleRevokePermission(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RevokePermission(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "permissionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
