package ports

import (
	"context"
	"time"
)

// Collection names.
const (
	CollectionUsers           = "users"
	CollectionBikes           = "bikes"
	CollectionBatteries       = "batteries"
	CollectionSwapRecords     = "swap_records"
	CollectionDailyCounters   = "daily_counters"
	CollectionPayments        = "payments"
	CollectionCompanies       = "companies"
	CollectionReconciliations = "reconciliations"
)

// AnyVersion makes Update unconditional.
const AnyVersion int64 = 0

type Document struct {
	ID         string
	Collection string
	Fields     map[string]interface{}
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type FilterOp string

const (
	OpEqual     FilterOp = "eq"
	OpContains  FilterOp = "contains"
	OpIsNotNull FilterOp = "notnull"
	OpIsNull    FilterOp = "null"
)

type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

func Equal(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// Contains matches a case-insensitive substring of a string field.
func Contains(field, substr string) Filter {
	return Filter{Field: field, Op: OpContains, Value: substr}
}

func IsNotNull(field string) Filter { return Filter{Field: field, Op: OpIsNotNull} }
func IsNull(field string) Filter    { return Filter{Field: field, Op: OpIsNull} }

// Query selects documents. Without OrderDesc results are newest first by creation.
// Limit 0 means no limit.
type Query struct {
	Filters   []Filter
	OrderDesc string
	Limit     int
	Offset    int
}

type DocumentList struct {
	Documents []*Document
	Total     int
}

// DocumentStore is a keyed store of field maps with per-document versions.
// Errors carry domain.ErrNotFound, ErrDuplicate, ErrVersionConflict or ErrUnavailable.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, q Query) (*DocumentList, error)
	// Create stores fields under id, or under a generated uuid when id is empty.
	Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*Document, error)
	// Update merges fields into the document when its version equals expectedVersion.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}
