package store

// memory.go is an in-memory core.Store used by tests and ephemeral runs.
// Values are copied on the way in and out so callers never alias the
// stored state.

import (
	"context"
	"sort"
	"sync"

	"github.com/gridvault/gridvault/internal/core"
)

// Memory implements core.Store over maps guarded by one mutex.
type Memory struct {
	mu           sync.Mutex
	documents    map[string]*core.Document
	users        map[string]*core.User
	permissions  map[string]*core.Permission
	transactions map[string]*core.Transaction
	lookups      map[string]*core.Lookup
	views        map[string]*core.SavedView
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		documents:    make(map[string]*core.Document),
		users:        make(map[string]*core.User),
		permissions:  make(map[string]*core.Permission),
		transactions: make(map[string]*core.Transaction),
		lookups:      make(map[string]*core.Lookup),
		views:        make(map[string]*core.SavedView),
	}
}

// --- documents ---

func (s *Memory) GetDocument(_ context.Context, id string) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, nil
	}
	return copyDocument(doc), nil
}

func (s *Memory) ListDocumentsForUser(_ context.Context, userID string) ([]*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []*core.Document
	for _, p := range s.permissions {
		if p.UserID != userID {
			continue
		}
		if doc, ok := s.documents[p.DocumentID]; ok {
			docs = append(docs, copyDocument(doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *Memory) CreateDocument(_ context.Context, doc *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (s *Memory) UpdateDocument(_ context.Context, doc *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (s *Memory) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	for pid, p := range s.permissions {
		if p.DocumentID == id {
			delete(s.permissions, pid)
		}
	}
	for tid, t := range s.transactions {
		if t.DocumentID == id {
			delete(s.transactions, tid)
		}
	}
	for lid, l := range s.lookups {
		if l.DocumentID == id || l.LookupDocumentID == id {
			delete(s.lookups, lid)
		}
	}
	for vid, v := range s.views {
		if v.DocumentID == id {
			delete(s.views, vid)
		}
	}
	return nil
}

// --- users ---

func (s *Memory) GetUser(_ context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Memory) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Memory) CreateUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// --- permissions ---

func (s *Memory) GetPermission(_ context.Context, id string) (*core.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.permissions[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Memory) FindPermission(_ context.Context, userID, documentID string) (*core.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.permissions {
		if p.UserID == userID && p.DocumentID == documentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Memory) ListPermissions(_ context.Context, documentID, userID string) ([]*core.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var perms []*core.Permission
	for _, p := range s.permissions {
		if documentID != "" && p.DocumentID != documentID {
			continue
		}
		if userID != "" && p.UserID != userID {
			continue
		}
		cp := *p
		perms = append(perms, &cp)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].ID < perms[j].ID })
	return perms, nil
}

func (s *Memory) CreatePermission(_ context.Context, p *core.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.permissions[p.ID] = &cp
	return nil
}

func (s *Memory) UpdatePermission(_ context.Context, p *core.Permission) error {
	return s.CreatePermission(context.Background(), p)
}

func (s *Memory) DeletePermission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.permissions, id)
	return nil
}

// --- transactions ---

func (s *Memory) GetTransaction(_ context.Context, id string) (*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (s *Memory) ListTransactions(_ context.Context, documentID string) ([]*core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var txs []*core.Transaction
	for _, t := range s.transactions {
		if t.DocumentID == documentID {
			txs = append(txs, copyTransaction(t))
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	return txs, nil
}

func (s *Memory) CreateTransaction(_ context.Context, t *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = copyTransaction(t)
	return nil
}

func (s *Memory) UpdateTransaction(_ context.Context, t *core.Transaction) error {
	return s.CreateTransaction(context.Background(), t)
}

func (s *Memory) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}

func (s *Memory) DeleteTransactionsForDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.transactions {
		if t.DocumentID == documentID {
			delete(s.transactions, id)
		}
	}
	return nil
}

// --- lookups ---

func (s *Memory) GetLookup(_ context.Context, id string) (*core.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookups[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *Memory) ListLookups(_ context.Context, documentID string) ([]*core.Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var lookups []*core.Lookup
	for _, l := range s.lookups {
		if l.DocumentID == documentID {
			cp := *l
			lookups = append(lookups, &cp)
		}
	}
	sort.Slice(lookups, func(i, j int) bool { return lookups[i].Name < lookups[j].Name })
	return lookups, nil
}

func (s *Memory) CreateLookup(_ context.Context, l *core.Lookup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.lookups[l.ID] = &cp
	return nil
}

func (s *Memory) DeleteLookup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lookups, id)
	return nil
}

// --- saved views ---

func (s *Memory) GetSavedView(_ context.Context, id string) (*core.SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	if !ok {
		return nil, nil
	}
	return copySavedView(v), nil
}

func (s *Memory) ListSavedViews(_ context.Context, documentID string) ([]*core.SavedView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var views []*core.SavedView
	for _, v := range s.views {
		if v.DocumentID == documentID {
			views = append(views, copySavedView(v))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

func (s *Memory) CreateSavedView(_ context.Context, v *core.SavedView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.ID] = copySavedView(v)
	return nil
}

func (s *Memory) UpdateSavedView(_ context.Context, v *core.SavedView) error {
	return s.CreateSavedView(context.Background(), v)
}

func (s *Memory) DeleteSavedView(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
	return nil
}

// --- copies ---

func copyDocument(doc *core.Document) *core.Document {
	cp := *doc
	cp.Blob = append([]byte(nil), doc.Blob...)
	cp.DataTypes = make(map[string]core.DataType, len(doc.DataTypes))
	for k, v := range doc.DataTypes {
		cp.DataTypes[k] = v
	}
	return &cp
}

func copyTransaction(t *core.Transaction) *core.Transaction {
	cp := *t
	if t.ApprovedAt != nil {
		at := *t.ApprovedAt
		cp.ApprovedAt = &at
	}
	cp.Changes = make([]core.Change, len(t.Changes))
	for i, ch := range t.Changes {
		cc := ch
		cc.Before = copyValues(ch.Before)
		cc.After = copyValues(ch.After)
		cp.Changes[i] = cc
	}
	return &cp
}

func copySavedView(v *core.SavedView) *core.SavedView {
	cp := *v
	cp.Fields = append([]string(nil), v.Fields...)
	cp.Filters = make([]core.Filter, len(v.Filters))
	for i, f := range v.Filters {
		ff := f
		ff.Conditions = append([]core.Condition(nil), f.Conditions...)
		cp.Filters[i] = ff
	}
	return &cp
}

func copyValues(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
