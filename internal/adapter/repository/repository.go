// Package repository maps typed domain entities onto documents in a ports.DocumentStore.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

const listAllPageSize = 500

type entity interface {
	SetMeta(id string, version int64)
}

// encode turns an entity into document fields. id and version live outside the field map.
func encode(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	delete(fields, "id")
	delete(fields, "version")
	return fields, nil
}

func decode[T any, PT interface {
	*T
	entity
}](doc *ports.Document) (*T, error) {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", doc.Collection, doc.ID, err)
	}
	PT(&v).SetMeta(doc.ID, doc.Version)
	return &v, nil
}

func decodeAll[T any, PT interface {
	*T
	entity
}](docs []*ports.Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := decode[T, PT](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// wrap tags a store failure with the operation that caused it.
func wrap(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *domain.StoreError
	var validationErr *domain.ValidationError
	if errors.As(err, &storeErr) || errors.As(err, &validationErr) {
		return err
	}
	return &domain.StoreError{Op: op, Collection: collection, ID: id, Err: err}
}

func getOne[T any, PT interface {
	*T
	entity
}](ctx context.Context, store ports.DocumentStore, collection, id string) (*T, error) {
	doc, err := store.Get(ctx, collection, id)
	if err != nil {
		return nil, wrap("get", collection, id, err)
	}
	return decode[T, PT](doc)
}

func createOne[T any, PT interface {
	*T
	entity
}](ctx context.Context, store ports.DocumentStore, collection, id string, v *T, extra map[string]interface{}) (*T, error) {
	fields, err := encode(v)
	if err != nil {
		return nil, err
	}
	for k, val := range extra {
		fields[k] = val
	}
	doc, err := store.Create(ctx, collection, id, fields)
	if err != nil {
		return nil, wrap("create", collection, id, err)
	}
	return decode[T, PT](doc)
}

func patchOne[T any, PT interface {
	*T
	entity
}](ctx context.Context, store ports.DocumentStore, collection, id string, fields map[string]interface{}, expectedVersion int64) (*T, error) {
	doc, err := store.Update(ctx, collection, id, fields, expectedVersion)
	if err != nil {
		return nil, wrap("update", collection, id, err)
	}
	return decode[T, PT](doc)
}

func deleteOne(ctx context.Context, store ports.DocumentStore, collection, id string) error {
	return wrap("delete", collection, id, store.Delete(ctx, collection, id))
}

func listPage[T any, PT interface {
	*T
	entity
}](ctx context.Context, store ports.DocumentStore, collection string, q ports.Query) (*domain.Page[T], error) {
	list, err := store.List(ctx, collection, q)
	if err != nil {
		return nil, wrap("list", collection, "", err)
	}
	items, err := decodeAll[T, PT](list.Documents)
	if err != nil {
		return nil, err
	}
	return &domain.Page[T]{Items: items, Total: list.Total}, nil
}

func listAll[T any, PT interface {
	*T
	entity
}](ctx context.Context, store ports.DocumentStore, collection string, q ports.Query) ([]*T, error) {
	q.Limit = listAllPageSize
	q.Offset = 0

	var out []*T
	for {
		page, err := listPage[T, PT](ctx, store, collection, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < q.Limit || len(out) >= page.Total {
			return out, nil
		}
		q.Offset += q.Limit
	}
}

func count(ctx context.Context, store ports.DocumentStore, collection string, filters ...ports.Filter) (int, error) {
	list, err := store.List(ctx, collection, ports.Query{Filters: filters, Limit: 1})
	if err != nil {
		return 0, wrap("list", collection, "", err)
	}
	return list.Total, nil
}

func listQuery(params domain.ListParams, searchField, statusField string) ports.Query {
	q := ports.Query{Limit: params.Limit, Offset: params.Offset}
	if params.Search != "" {
		q.Filters = append(q.Filters, ports.Contains(searchField, params.Search))
	}
	if params.Status != nil {
		q.Filters = append(q.Filters, ports.Equal(statusField, *params.Status))
	}
	return q
}
