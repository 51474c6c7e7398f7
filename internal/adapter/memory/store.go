package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
)

// Store is an in-process document store with the same semantics as the postgres adapter.
// Field maps are kept in their JSON form so filters compare like they do on JSONB.
type Store struct {
	mu     sync.RWMutex
	data   map[string]map[string]*record
	unique map[string][]string
	seq    int64
	now    func() time.Time
}

type record struct {
	fields    map[string]interface{}
	version   int64
	createdAt time.Time
	updatedAt time.Time
	seq       int64
}

type Option func(*Store)

// WithUniqueField rejects a second document in collection with the same non-null field value.
func WithUniqueField(collection, field string) Option {
	return func(s *Store) {
		s.unique[collection] = append(s.unique[collection], field)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:   make(map[string]map[string]*record),
		unique: make(map[string][]string),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFleetStore returns a store enforcing the fleet's registration number and counter keys.
func NewFleetStore(opts ...Option) *Store {
	base := []Option{
		WithUniqueField(ports.CollectionBikes, "bikeRegNum"),
		WithUniqueField(ports.CollectionBatteries, "batRegNum"),
		WithUniqueField(ports.CollectionDailyCounters, "todayDate"),
	}
	return NewStore(append(base, opts...)...)
}

var _ ports.DocumentStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.document(collection, id), nil
}

func (s *Store) List(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		id  string
		rec *record
	}
	var hits []hit
	for id, rec := range s.data[collection] {
		if matches(rec.fields, filters) {
			hits = append(hits, hit{id: id, rec: rec})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i].rec, hits[j].rec
		if q.OrderDesc != "" {
			if c := compareValues(a.fields[q.OrderDesc], b.fields[q.OrderDesc]); c != 0 {
				return c > 0
			}
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.seq > b.seq
	})

	list := &ports.DocumentList{Total: len(hits)}
	start := q.Offset
	if start > len(hits) {
		start = len(hits)
	}
	end := len(hits)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	for _, h := range hits[start:end] {
		list.Documents = append(list.Documents, h.rec.document(collection, h.id))
	}
	return list, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.data[collection]
	if !ok {
		coll = make(map[string]*record)
		s.data[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, domain.ErrDuplicate
	}
	if err := s.checkUnique(collection, id, normalized); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	s.seq++
	rec := &record{fields: normalized, version: 1, createdAt: now, updatedAt: now, seq: s.seq}
	coll[id] = rec
	return rec.document(collection, id), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	patch, err := normalize(fields)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[collection][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if expectedVersion != ports.AnyVersion && rec.version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}

	merged := cloneFields(rec.fields)
	for k, v := range patch {
		merged[k] = v
	}
	if err := s.checkUnique(collection, id, merged); err != nil {
		return nil, err
	}

	rec.fields = merged
	rec.version++
	rec.updatedAt = s.now().UTC()
	return rec.document(collection, id), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.data[collection], id)
	return nil
}

func (s *Store) checkUnique(collection, id string, fields map[string]interface{}) error {
	for _, field := range s.unique[collection] {
		value, ok := fields[field]
		if !ok || value == nil {
			continue
		}
		for otherID, other := range s.data[collection] {
			if otherID == id {
				continue
			}
			if reflect.DeepEqual(other.fields[field], value) {
				return fmt.Errorf("%w: %s=%v", domain.ErrDuplicate, field, value)
			}
		}
	}
	return nil
}

func (r *record) document(collection, id string) *ports.Document {
	return &ports.Document{
		ID:         id,
		Collection: collection,
		Fields:     cloneFields(r.fields),
		Version:    r.version,
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
}

func normalize(fields map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	if len(fields) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter value: %w", err)
	}
	return out, nil
}

func normalizeFilters(filters []ports.Filter) ([]ports.Filter, error) {
	out := make([]ports.Filter, len(filters))
	for i, f := range filters {
		out[i] = f
		if f.Op != ports.OpEqual {
			continue
		}
		v, err := normalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		out[i].Value = v
	}
	return out, nil
}

func matches(fields map[string]interface{}, filters []ports.Filter) bool {
	for _, f := range filters {
		value, present := fields[f.Field]
		switch f.Op {
		case ports.OpEqual:
			if f.Value == nil {
				if present && value != nil {
					return false
				}
				continue
			}
			if !reflect.DeepEqual(value, f.Value) {
				return false
			}
		case ports.OpContains:
			str, ok := value.(string)
			needle, _ := f.Value.(string)
			if !ok || !strings.Contains(strings.ToLower(str), strings.ToLower(needle)) {
				return false
			}
		case ports.OpIsNotNull:
			if !present || value == nil {
				return false
			}
		case ports.OpIsNull:
			if present && value != nil {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders JSON scalars; null sorts below everything.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case bv:
				return -1
			}
			return 1
		}
	}
	return 0
}

func cloneFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneFields(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
