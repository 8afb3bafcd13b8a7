package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gridvault/gridvault/internal/core"
	"github.com/gridvault/gridvault/internal/web/middleware"
)

type createTransactionRequest struct {
	DocumentID string        `json:"documentId"`
	Changes    []core.Change `json:"changes"`
}

type updateTransactionRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// handleCreateTransaction records a change-set against a document. Owners
// are auto-approved and see the document mutated before the response.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	tx, err := s.service.CreateTransaction(r.Context(), middleware.UserID(r.Context()), req.DocumentID, req.Changes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

// handleGetTransaction fetches one transaction with its changes.
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.service.GetTransaction(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// handleListTransactions lists a document's transactions.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.service.ListTransactions(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// handleUpdateTransaction transitions a pending transaction.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &core.ValidationError{Message: "invalid request body"})
		return
	}

	status, ok := core.ParseApprovalStatus(req.Status)
	if !ok {
		s.respondError(w, r, &core.ValidationError{Message: "unknown status " + req.Status})
		return
	}

	tx, err := s.service.UpdateTransaction(r.Context(), middleware.UserID(r.Context()),
		chi.URLParam(r, "transactionID"), status, req.Notes)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// handleDeleteTransaction removes a transaction without touching the document.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTransaction(r.Context(), chi.URLParam(r, "transactionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
