package mocks

import (
	"context"
	"sync"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// MockDocumentStore answers with the configured funcs and ErrNotFound otherwise.
type MockDocumentStore struct {
	GetFunc    func(ctx context.Context, collection, id string) (*ports.Document, error)
	ListFunc   func(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error)
	CreateFunc func(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error)
	UpdateFunc func(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error)
	DeleteFunc func(ctx context.Context, collection, id string) error

	mu    sync.Mutex
	Calls []string
}

func (m *MockDocumentStore) record(op string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, op)
	m.mu.Unlock()
}

func (m *MockDocumentStore) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	m.record("get")
	if m.GetFunc != nil {
		return m.GetFunc(ctx, collection, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) List(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error) {
	m.record("list")
	if m.ListFunc != nil {
		return m.ListFunc(ctx, collection, q)
	}
	return &ports.DocumentList{}, nil
}

func (m *MockDocumentStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	m.record("create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, collection, id, fields)
	}
	return &ports.Document{ID: id, Collection: collection, Fields: fields, Version: 1}, nil
}

func (m *MockDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error) {
	m.record("update")
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, collection, id, fields, expectedVersion)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection, id string) error {
	m.record("delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, collection, id)
	}
	return domain.ErrNotFound
}

// FaultyStore delegates to Next unless Fault returns an error for the call.
// Op is one of get, list, create, update, delete.
type FaultyStore struct {
	Next  ports.DocumentStore
	Fault func(op, collection, id string, fields map[string]interface{}) error
}

func (f *FaultyStore) inject(op, collection, id string, fields map[string]interface{}) error {
	if f.Fault == nil {
		return nil
	}
	return f.Fault(op, collection, id, fields)
}

func (f *FaultyStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	if err := f.inject("get", collection, id, nil); err != nil {
		return nil, err
	}
	return f.Next.Get(ctx, collection, id)
}

func (f *FaultyStore) List(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error) {
	if err := f.inject("list", collection, "", nil); err != nil {
		return nil, err
	}
	return f.Next.List(ctx, collection, q)
}

func (f *FaultyStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	if err := f.inject("create", collection, id, fields); err != nil {
		return nil, err
	}
	return f.Next.Create(ctx, collection, id, fields)
}

func (f *FaultyStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error) {
	if err := f.inject("update", collection, id, fields); err != nil {
		return nil, err
	}
	return f.Next.Update(ctx, collection, id, fields, expectedVersion)
}

func (f *FaultyStore) Delete(ctx context.Context, collection, id string) error {
	if err := f.inject("delete", collection, id, nil); err != nil {
		return err
	}
	return f.Next.Delete(ctx, collection, id)
}
