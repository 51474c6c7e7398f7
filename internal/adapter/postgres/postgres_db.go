package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lib/pq"
)

// DocumentStore keeps every collection in one JSONB table, see migrations.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{
		db,
	}
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, data, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	query := `SELECT ` + documentColumns + `
              FROM documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(collection, s.db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return doc, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string, q ports.Query) (*ports.DocumentList, error) {
	where, args, err := buildWhere(collection, q.Filters)
	if err != nil {
		return nil, err
	}

	list := &ports.DocumentList{}
	countQuery := `SELECT count(*) FROM documents WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&list.Total); err != nil {
		return nil, mapError(err)
	}

	order := `ORDER BY created_at DESC, id DESC`
	if q.OrderDesc != "" {
		args = append(args, q.OrderDesc)
		order = fmt.Sprintf(`ORDER BY data -> $%d::text DESC NULLS LAST, created_at DESC, id DESC`, len(args))
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ` + order
	if q.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(collection, rows)
		if err != nil {
			return nil, mapError(err)
		}
		list.Documents = append(list.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

func (s *DocumentStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	data, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO documents (collection, id, data)
	VALUES ($1, $2, $3::jsonb)
    RETURNING ` + documentColumns

	doc, err := scanDocument(collection, s.db.QueryRowContext(ctx, query, collection, id, data))
	if err != nil {
		return nil, mapError(err)
	}
	return doc, nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}, expectedVersion int64) (*ports.Document, error) {
	data, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	query := `UPDATE documents
              SET data = data || $3::jsonb, version = version + 1, updated_at = now()
              WHERE collection = $1 AND id = $2 AND ($4::bigint = 0 OR version = $4::bigint)
              RETURNING ` + documentColumns

	doc, err := scanDocument(collection, s.db.QueryRowContext(ctx, query, collection, id, data, expectedVersion))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missingOrStale(ctx, collection, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return doc, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	result, err := s.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return mapError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// missingOrStale tells a missing row apart from a version mismatch after an update matched nothing.
func (s *DocumentStore) missingOrStale(ctx context.Context, collection, id string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`
	if err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&exists); err != nil {
		return mapError(err)
	}
	if exists {
		return domain.ErrVersionConflict
	}
	return domain.ErrNotFound
}

// buildWhere renders filters with field names and values bound as parameters.
func buildWhere(collection string, filters []ports.Filter) (string, []interface{}, error) {
	conds := []string{"collection = $1"}
	args := []interface{}{collection}

	for _, f := range filters {
		args = append(args, f.Field)
		fieldArg := len(args)

		switch f.Op {
		case ports.OpEqual:
			if f.Value == nil {
				conds = append(conds, fmt.Sprintf("data ->> $%d::text IS NULL", fieldArg))
				continue
			}
			raw, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
			}
			args = append(args, string(raw))
			conds = append(conds, fmt.Sprintf("data -> $%d::text = $%d::jsonb", fieldArg, len(args)))
		case ports.OpContains:
			args = append(args, fmt.Sprint(f.Value))
			conds = append(conds, fmt.Sprintf("position(lower($%d::text) in lower(data ->> $%d::text)) > 0", len(args), fieldArg))
		case ports.OpIsNotNull:
			conds = append(conds, fmt.Sprintf("data ->> $%d::text IS NOT NULL", fieldArg))
		case ports.OpIsNull:
			conds = append(conds, fmt.Sprintf("data ->> $%d::text IS NULL", fieldArg))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return strings.Join(conds, " AND "), args, nil
}

func scanDocument(collection string, row rowScanner) (*ports.Document, error) {
	doc := &ports.Document{Collection: collection}
	var raw []byte
	err := row.Scan(
		&doc.ID,
		&raw,
		&doc.Version,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, doc.ID, err)
	}
	if doc.Fields == nil {
		doc.Fields = map[string]interface{}{}
	}
	return doc, nil
}

func encodeFields(fields map[string]interface{}) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(raw), nil
}

func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, pqErr.Constraint)
		case "23502":
			return &domain.ValidationError{Field: pqErr.Column, Reason: "required field is missing"}
		case "57P01", "57P02", "57P03", "53300":
			return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}
