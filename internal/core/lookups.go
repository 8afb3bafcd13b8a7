package core

// lookups.go manages named cross-document lookup definitions.

import (
	"context"

	"github.com/google/uuid"
)

// CreateLookup records a lookup from one document's field into another's.
// Both documents must be reachable by the caller.
func (s *Service) CreateLookup(ctx context.Context, userID, documentID, name, field, lookupDocumentID, lookupField string, operator LookupOperator) (*Lookup, error) {
	if _, err := s.requireRole(ctx, userID, documentID); err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, userID, lookupDocumentID); err != nil {
		return nil, err
	}
	if _, ok := ParseLookupOperator(string(operator)); !ok {
		return nil, &ValidationError{Message: "invalid lookup operator " + string(operator)}
	}

	l := &Lookup{
		ID:               uuid.NewString(),
		Name:             name,
		DocumentID:       documentID,
		Field:            field,
		LookupDocumentID: lookupDocumentID,
		LookupField:      lookupField,
		Operator:         operator,
	}
	if err := s.store.CreateLookup(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetLookup fetches one lookup definition.
func (s *Service) GetLookup(ctx context.Context, id string) (*Lookup, error) {
	l, err := s.store.GetLookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &NotFoundError{Resource: "lookup", ID: id}
	}
	return l, nil
}

// ListLookups lists a document's lookup definitions.
func (s *Service) ListLookups(ctx context.Context, documentID string) ([]*Lookup, error) {
	return s.store.ListLookups(ctx, documentID)
}

// DeleteLookup removes a lookup definition.
func (s *Service) DeleteLookup(ctx context.Context, id string) error {
	if _, err := s.GetLookup(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteLookup(ctx, id)
}
