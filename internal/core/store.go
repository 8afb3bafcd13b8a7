package core

// store.go declares the persistence collaborator the core consumes.
//
// Implementations return (nil, nil) for a lookup that finds nothing; the
// core translates that into NotFoundError where absence is an error.

import "context"

// Store is the persistence boundary for documents, users, permissions,
// transactions and the saved lookup/view definitions.
type Store interface {
	// Documents. A document's blob is exclusively owned by the store and
	// replaced wholesale by UpdateDocument.
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocumentsForUser(ctx context.Context, userID string) ([]*Document, error)
	CreateDocument(ctx context.Context, doc *Document) error
	UpdateDocument(ctx context.Context, doc *Document) error
	DeleteDocument(ctx context.Context, id string) error

	// Users.
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error

	// Permissions.
	GetPermission(ctx context.Context, id string) (*Permission, error)
	FindPermission(ctx context.Context, userID, documentID string) (*Permission, error)
	ListPermissions(ctx context.Context, documentID, userID string) ([]*Permission, error)
	CreatePermission(ctx context.Context, p *Permission) error
	UpdatePermission(ctx context.Context, p *Permission) error
	DeletePermission(ctx context.Context, id string) error

	// Transactions and their changes. Changes are written once with the
	// transaction and never updated.
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, documentID string) ([]*Transaction, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	DeleteTransactionsForDocument(ctx context.Context, documentID string) error

	// Lookups.
	GetLookup(ctx context.Context, id string) (*Lookup, error)
	ListLookups(ctx context.Context, documentID string) ([]*Lookup, error)
	CreateLookup(ctx context.Context, l *Lookup) error
	DeleteLookup(ctx context.Context, id string) error

	// Saved views.
	GetSavedView(ctx context.Context, id string) (*SavedView, error)
	ListSavedViews(ctx context.Context, documentID string) ([]*SavedView, error)
	CreateSavedView(ctx context.Context, v *SavedView) error
	UpdateSavedView(ctx context.Context, v *SavedView) error
	DeleteSavedView(ctx context.Context, id string) error
}
