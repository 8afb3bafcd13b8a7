package core

// permissions.go resolves roles and guards mutating operations.
//
// The guard is an explicit pre-check at the top of each entry point, taking
// the caller's id as a parameter: resolve the role, compare against the
// allowed set, fail with PermissionError before touching anything.

import (
	"context"

	"github.com/google/uuid"
)

// RoleOf resolves a user's effective role over a document. An empty role
// means the user has no access at all.
func (s *Service) RoleOf(ctx context.Context, userID, documentID string) (Role, error) {
	p, err := s.store.FindPermission(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}
	return p.Role, nil
}

// requireRole resolves and checks the caller's role. With no allowed roles
// given, any role passes; otherwise the resolved role must be listed.
func (s *Service) requireRole(ctx context.Context, userID, documentID string, allowed ...Role) (Role, error) {
	role, err := s.RoleOf(ctx, userID, documentID)
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", &PermissionError{UserID: userID, DocumentID: documentID}
	}
	if len(allowed) == 0 {
		return role, nil
	}
	for _, a := range allowed {
		if role == a {
			return role, nil
		}
	}
	return "", &PermissionError{UserID: userID, DocumentID: documentID, Role: role}
}

// GrantPermission gives a user a role on a document. Only the document's
// owner may grant, and a user can hold at most one role per document.
func (s *Service) GrantPermission(ctx context.Context, callerID, documentID, userID string, role Role) (*Permission, error) {
	if _, err := s.requireRole(ctx, callerID, documentID, RoleOwner); err != nil {
		return nil, err
	}

	existing, err := s.store.FindPermission(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ValidationError{Message: "user already has a role for this document"}
	}

	p := &Permission{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Role:       role,
	}
	if err := s.store.CreatePermission(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPermissions lists permissions filtered by document and/or user.
func (s *Service) ListPermissions(ctx context.Context, documentID, userID string) ([]*Permission, error) {
	return s.store.ListPermissions(ctx, documentID, userID)
}

// UpdatePermission changes the role of an existing permission. Owner only.
func (s *Service) UpdatePermission(ctx context.Context, callerID, id string, role Role) (*Permission, error) {
	p, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Resource: "permission", ID: id}
	}
	if _, err := s.requireRole(ctx, callerID, p.DocumentID, RoleOwner); err != nil {
		return nil, err
	}

	p.Role = role
	if err := s.store.UpdatePermission(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RevokePermission removes a permission. Owner only.
func (s *Service) RevokePermission(ctx context.Context, callerID, id string) error {
	p, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &NotFoundError{Resource: "permission", ID: id}
	}
	if _, err := s.requireRole(ctx, callerID, p.DocumentID, RoleOwner); err != nil {
		return err
	}
	return s.store.DeletePermission(ctx, id)
}
