package core

// views.go manages saved views: named field subsets with filters that a
// client can re-apply to a document's data.

import (
	"context"

	"github.com/google/uuid"
)

// CreateSavedView records a saved view over a document.
func (s *Service) CreateSavedView(ctx context.Context, userID, documentID, name string, fields []string, filters []Filter) (*SavedView, error) {
	if _, err := s.requireRole(ctx, userID, documentID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Message: "saved view needs at least one field"}
	}

	v := &SavedView{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Name:       name,
		Fields:     fields,
		Filters:    make([]Filter, len(filters)),
	}
	for i, fl := range filters {
		fl.ID = uuid.NewString()
		for k := range fl.Conditions {
			fl.Conditions[k].ID = uuid.NewString()
		}
		v.Filters[i] = fl
	}

	if err := s.store.CreateSavedView(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetSavedView fetches one saved view.
func (s *Service) GetSavedView(ctx context.Context, id string) (*SavedView, error) {
	v, err := s.store.GetSavedView(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &NotFoundError{Resource: "view", ID: id}
	}
	return v, nil
}

// ListSavedViews lists a document's saved views.
func (s *Service) ListSavedViews(ctx context.Context, documentID string) ([]*SavedView, error) {
	return s.store.ListSavedViews(ctx, documentID)
}

// UpdateSavedView replaces a saved view's name, fields and filters.
func (s *Service) UpdateSavedView(ctx context.Context, userID, id, name string, fields []string, filters []Filter) (*SavedView, error) {
	v, err := s.GetSavedView(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireRole(ctx, userID, v.DocumentID); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Message: "saved view needs at least one field"}
	}

	v.Name = name
	v.Fields = fields
	v.Filters = make([]Filter, len(filters))
	for i, fl := range filters {
		if fl.ID == "" {
			fl.ID = uuid.NewString()
		}
		for k := range fl.Conditions {
			if fl.Conditions[k].ID == "" {
				fl.Conditions[k].ID = uuid.NewString()
			}
		}
		v.Filters[i] = fl
	}

	if err := s.store.UpdateSavedView(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteSavedView removes a saved view.
func (s *Service) DeleteSavedView(ctx context.Context, id string) error {
	if _, err := s.GetSavedView(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteSavedView(ctx, id)
}
