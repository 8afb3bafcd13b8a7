// Package store implements the persistence boundary declared by core.Store:
// a PostgreSQL store backed by pgx for production, and an in-memory store
// for tests and ephemeral runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridvault/gridvault/internal/core"
)

// Postgres is the pgx-backed implementation of core.Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Bootstrap creates the schema if it does not exist.
func (s *Postgres) Bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            text PRIMARY KEY,
			firstname     text NOT NULL,
			lastname      text NOT NULL,
			email         text NOT NULL UNIQUE,
			password_hash text NOT NULL,
			temp_password boolean NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id           text PRIMARY KEY,
			name         text NOT NULL,
			content_type text NOT NULL,
			blob         bytea NOT NULL,
			data_types   jsonb NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id          text PRIMARY KEY,
			document_id text NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			user_id     text NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role        text NOT NULL,
			UNIQUE (document_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id          text PRIMARY KEY,
			document_id text NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			user_id     text NOT NULL REFERENCES users(id),
			status      text NOT NULL,
			notes       text NOT NULL DEFAULT '',
			approver_id text NOT NULL DEFAULT '',
			created_at  timestamptz NOT NULL,
			approved_at timestamptz
		)`,
		`CREATE TABLE IF NOT EXISTS changes (
			id             text PRIMARY KEY,
			transaction_id text NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			position       integer NOT NULL,
			change_type    text NOT NULL,
			row_number     integer NOT NULL,
			before         jsonb,
			after          jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS lookups (
			id                 text PRIMARY KEY,
			name               text NOT NULL,
			document_id        text NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			field              text NOT NULL,
			lookup_document_id text NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			lookup_field       text NOT NULL,
			operator           text NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS saved_views (
			id          text PRIMARY KEY,
			document_id text NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			name        text NOT NULL,
			fields      jsonb NOT NULL,
			filters     jsonb NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}

// --- documents ---

func (s *Postgres) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, content_type, blob, data_types FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *Postgres) ListDocumentsForUser(ctx context.Context, userID string) ([]*core.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.id, d.name, d.content_type, d.blob, d.data_types
		 FROM documents d
		 JOIN permissions p ON p.document_id = d.id
		 WHERE p.user_id = $1
		 ORDER BY d.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Postgres) CreateDocument(ctx context.Context, doc *core.Document) error {
	types, err := json.Marshal(doc.DataTypes)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, name, content_type, blob, data_types) VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Name, doc.ContentType, doc.Blob, types)
	return err
}

func (s *Postgres) UpdateDocument(ctx context.Context, doc *core.Document) error {
	types, err := json.Marshal(doc.DataTypes)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE documents SET name = $2, content_type = $3, blob = $4, data_types = $5 WHERE id = $1`,
		doc.ID, doc.Name, doc.ContentType, doc.Blob, types)
	return err
}

func (s *Postgres) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func scanDocument(row pgx.Row) (*core.Document, error) {
	var (
		doc   core.Document
		types []byte
	)
	err := row.Scan(&doc.ID, &doc.Name, &doc.ContentType, &doc.Blob, &types)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(types, &doc.DataTypes); err != nil {
		return nil, fmt.Errorf("decode data_types: %w", err)
	}
	return &doc, nil
}

// --- users ---

func (s *Postgres) GetUser(ctx context.Context, id string) (*core.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, firstname, lastname, email, password_hash, temp_password FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, firstname, lastname, email, password_hash, temp_password FROM users WHERE email = $1`, email))
}

func (s *Postgres) CreateUser(ctx context.Context, u *core.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, firstname, lastname, email, password_hash, temp_password)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Firstname, u.Lastname, u.Email, u.PasswordHash, u.TempPassword)
	return err
}

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.TempPassword)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- permissions ---

func (s *Postgres) GetPermission(ctx context.Context, id string) (*core.Permission, error) {
	return scanPermission(s.pool.QueryRow(ctx,
		`SELECT id, document_id, user_id, role FROM permissions WHERE id = $1`, id))
}

func (s *Postgres) FindPermission(ctx context.Context, userID, documentID string) (*core.Permission, error) {
	return scanPermission(s.pool.QueryRow(ctx,
		`SELECT id, document_id, user_id, role FROM permissions WHERE user_id = $1 AND document_id = $2`,
		userID, documentID))
}

func (s *Postgres) ListPermissions(ctx context.Context, documentID, userID string) ([]*core.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, user_id, role FROM permissions
		 WHERE ($1 = '' OR document_id = $1) AND ($2 = '' OR user_id = $2)`,
		documentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []*core.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *Postgres) CreatePermission(ctx context.Context, p *core.Permission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO permissions (id, document_id, user_id, role) VALUES ($1, $2, $3, $4)`,
		p.ID, p.DocumentID, p.UserID, p.Role)
	return err
}

func (s *Postgres) UpdatePermission(ctx context.Context, p *core.Permission) error {
	_, err := s.pool.Exec(ctx, `UPDATE permissions SET role = $2 WHERE id = $1`, p.ID, p.Role)
	return err
}

func (s *Postgres) DeletePermission(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	return err
}

func scanPermission(row pgx.Row) (*core.Permission, error) {
	var p core.Permission
	err := row.Scan(&p.ID, &p.DocumentID, &p.UserID, &p.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --- transactions ---

func (s *Postgres) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, document_id, user_id, status, notes, approver_id, created_at, approved_at
		 FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil || tx == nil {
		return tx, err
	}
	if err := s.loadChanges(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Postgres) ListTransactions(ctx context.Context, documentID string) ([]*core.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, user_id, status, notes, approver_id, created_at, approved_at
		 FROM transactions WHERE document_id = $1 ORDER BY created_at`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if err := s.loadChanges(ctx, tx); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func (s *Postgres) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, document_id, user_id, status, notes, approver_id, created_at, approved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.DocumentID, t.UserID, t.Status, t.Notes, t.ApproverID, t.CreatedAt, t.ApprovedAt)
	if err != nil {
		return err
	}
	for i, ch := range t.Changes {
		before, after, err := marshalSnapshots(ch)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO changes (id, transaction_id, position, change_type, row_number, before, after)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ch.ID, t.ID, i, ch.Kind, ch.RowNumber, before, after)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Postgres) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transactions SET status = $2, notes = $3, approver_id = $4, approved_at = $5 WHERE id = $1`,
		t.ID, t.Status, t.Notes, t.ApproverID, t.ApprovedAt)
	return err
}

func (s *Postgres) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

func (s *Postgres) DeleteTransactionsForDocument(ctx context.Context, documentID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE document_id = $1`, documentID)
	return err
}

func scanTransaction(row pgx.Row) (*core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.DocumentID, &t.UserID, &t.Status, &t.Notes, &t.ApproverID, &t.CreatedAt, &t.ApprovedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Postgres) loadChanges(ctx context.Context, t *core.Transaction) error {
	rows, err := s.pool.Query(ctx,
		`SELECT id, change_type, row_number, before, after FROM changes
		 WHERE transaction_id = $1 ORDER BY position`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ch            core.Change
			before, after []byte
		)
		if err := rows.Scan(&ch.ID, &ch.Kind, &ch.RowNumber, &before, &after); err != nil {
			return err
		}
		if before != nil {
			if err := json.Unmarshal(before, &ch.Before); err != nil {
				return fmt.Errorf("decode change before: %w", err)
			}
		}
		if after != nil {
			if err := json.Unmarshal(after, &ch.After); err != nil {
				return fmt.Errorf("decode change after: %w", err)
			}
		}
		t.Changes = append(t.Changes, ch)
	}
	return rows.Err()
}

func marshalSnapshots(ch core.Change) (before, after []byte, err error) {
	if ch.Before != nil {
		if before, err = json.Marshal(ch.Before); err != nil {
			return nil, nil, err
		}
	}
	if ch.After != nil {
		if after, err = json.Marshal(ch.After); err != nil {
			return nil, nil, err
		}
	}
	return before, after, nil
}

// --- lookups ---

func (s *Postgres) GetLookup(ctx context.Context, id string) (*core.Lookup, error) {
	return scanLookup(s.pool.QueryRow(ctx,
		`SELECT id, name, document_id, field, lookup_document_id, lookup_field, operator
		 FROM lookups WHERE id = $1`, id))
}

func (s *Postgres) ListLookups(ctx context.Context, documentID string) ([]*core.Lookup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, document_id, field, lookup_document_id, lookup_field, operator
		 FROM lookups WHERE document_id = $1 ORDER BY name`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []*core.Lookup
	for rows.Next() {
		l, err := scanLookup(rows)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}

func (s *Postgres) CreateLookup(ctx context.Context, l *core.Lookup) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lookups (id, name, document_id, field, lookup_document_id, lookup_field, operator)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Name, l.DocumentID, l.Field, l.LookupDocumentID, l.LookupField, l.Operator)
	return err
}

func (s *Postgres) DeleteLookup(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM lookups WHERE id = $1`, id)
	return err
}

func scanLookup(row pgx.Row) (*core.Lookup, error) {
	var l core.Lookup
	err := row.Scan(&l.ID, &l.Name, &l.DocumentID, &l.Field, &l.LookupDocumentID, &l.LookupField, &l.Operator)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// --- saved views ---

func (s *Postgres) GetSavedView(ctx context.Context, id string) (*core.SavedView, error) {
	return scanSavedView(s.pool.QueryRow(ctx,
		`SELECT id, document_id, name, fields, filters FROM saved_views WHERE id = $1`, id))
}

func (s *Postgres) ListSavedViews(ctx context.Context, documentID string) ([]*core.SavedView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, name, fields, filters FROM saved_views
		 WHERE document_id = $1 ORDER BY name`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*core.SavedView
	for rows.Next() {
		v, err := scanSavedView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (s *Postgres) CreateSavedView(ctx context.Context, v *core.SavedView) error {
	fields, filters, err := marshalViewParts(v)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO saved_views (id, document_id, name, fields, filters) VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.DocumentID, v.Name, fields, filters)
	return err
}

func (s *Postgres) UpdateSavedView(ctx context.Context, v *core.SavedView) error {
	fields, filters, err := marshalViewParts(v)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE saved_views SET name = $2, fields = $3, filters = $4 WHERE id = $1`,
		v.ID, v.Name, fields, filters)
	return err
}

func (s *Postgres) DeleteSavedView(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM saved_views WHERE id = $1`, id)
	return err
}

func scanSavedView(row pgx.Row) (*core.SavedView, error) {
	var (
		v               core.SavedView
		fields, filters []byte
	)
	err := row.Scan(&v.ID, &v.DocumentID, &v.Name, &fields, &filters)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &v.Fields); err != nil {
		return nil, fmt.Errorf("decode view fields: %w", err)
	}
	if err := json.Unmarshal(filters, &v.Filters); err != nil {
		return nil, fmt.Errorf("decode view filters: %w", err)
	}
	return &v, nil
}

func marshalViewParts(v *core.SavedView) (fields, filters []byte, err error) {
	if fields, err = json.Marshal(v.Fields); err != nil {
		return nil, nil, err
	}
	if v.Filters == nil {
		v.Filters = []core.Filter{}
	}
	if filters, err = json.Marshal(v.Filters); err != nil {
		return nil, nil, err
	}
	return fields, filters, nil
}
