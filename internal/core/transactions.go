package core

// transactions.go is the approval state machine around the change engine.
//
// A transaction created by the document's owner is auto-approved and
// applied synchronously in the same call. Any other permitted role leaves
// it pending; only an owner can then approve, reject or request changes.
// Approval and the document mutation are one atomic unit of work: if the
// engine fails, the transaction keeps its prior state and the blob is
// untouched.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CreateTransaction records a change-set against a document. The submitter
// needs the owner or contributor role; owners are auto-approved and the
// changes are applied before this call returns.
func (s *Service) CreateTransaction(ctx context.Context, userID, documentID string, changes []Change) (*Transaction, error) {
	role, err := s.requireRole(ctx, userID, documentID, RoleOwner, RoleContributor)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, &ValidationError{Message: "transaction has no changes"}
	}

	tx := &Transaction{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
		Changes:    make([]Change, len(changes)),
	}
	if role == RoleOwner {
		tx.Status = StatusAutoApproved
	}

	for i, ch := range changes {
		if _, ok := ParseChangeKind(string(ch.Kind)); !ok {
			return nil, &ValidationError{Message: "unknown change type " + string(ch.Kind)}
		}
		ch.ID = uuid.NewString()
		tx.Changes[i] = ch
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	slog.Info("transaction created", "transaction", tx.ID, "document", documentID, "status", tx.Status)

	if tx.Status == StatusAutoApproved {
		if err := s.applyTransaction(ctx, tx); err != nil {
			// Atomic unit of work: an auto-approved transaction that cannot
			// be applied is not recorded.
			if derr := s.store.DeleteTransaction(ctx, tx.ID); derr != nil {
				slog.Error("failed to discard unapplied transaction", "transaction", tx.ID, "error", derr)
			}
			return nil, err
		}
		now := time.Now().UTC()
		tx.ApprovedAt = &now
		if err := s.store.UpdateTransaction(ctx, tx); err != nil {
			return nil, err
		}
	}

	return tx, nil
}

// GetTransaction fetches one transaction with its changes.
func (s *Service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &NotFoundError{Resource: "transaction", ID: id}
	}
	return tx, nil
}

// ListTransactions lists a document's transactions.
func (s *Service) ListTransactions(ctx context.Context, documentID string) ([]*Transaction, error) {
	return s.store.ListTransactions(ctx, documentID)
}

// UpdateTransaction transitions a pending transaction. Owner only. A
// transition to approved applies the changes synchronously and records the
// caller as approver; if the engine fails, the transaction stays pending.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id string, status ApprovalStatus, notes string) (*Transaction, error) {
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, userID, tx.DocumentID, RoleOwner); err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return nil, &ValidationError{Message: "transaction " + id + " is already resolved"}
	}

	switch status {
	case StatusApproved, StatusChangesRequested, StatusRejected:
	default:
		return nil, &ValidationError{Message: "invalid target status " + string(status)}
	}

	if status == StatusApproved {
		if err := s.applyTransaction(ctx, tx); err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		tx.ApproverID = userID
		tx.ApprovedAt = &now
	}

	tx.Status = status
	if notes != "" {
		tx.Notes = notes
	}
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	slog.Info("transaction updated", "transaction", id, "status", status)
	return tx, nil
}

// DeleteTransaction removes a transaction and its changes without touching
// the document.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.GetTransaction(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteTransaction(ctx, id)
}

// applyTransaction runs the engine and commits the result: new blob
// persisted, cached view invalidated, all under the document's mutation
// lock so concurrent approvals serialize.
func (s *Service) applyTransaction(ctx context.Context, tx *Transaction) error {
	lock := s.docLock(tx.DocumentID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.getDocument(ctx, tx.DocumentID)
	if err != nil {
		return err
	}

	blob, err := s.engine.Apply(ctx, doc, tx.Changes)
	if err != nil {
		return err
	}

	doc.Blob = blob
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return err
	}
	s.cache.Remove(doc.ID)
	return nil
}
