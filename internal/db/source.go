package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hurou927/pg-schema-explorer/internal/catalog"
)

// Source is the pgx-backed catalog.RowSource. Every call acquires its own
// connection and releases it before returning, so a Source is safe for
// concurrent use by independent requests.
type Source struct {
	pool *pgxpool.Pool
}

var _ catalog.RowSource = (*Source)(nil)

// NewSource wraps pool.
func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

// Query runs a catalog query and returns all rows keyed by column name.
// Errors are returned as reported by the driver.
func (s *Source) Query(ctx context.Context, sql string, args ...any) ([]catalog.Row, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Row, len(maps))
	for i, m := range maps {
		out[i] = catalog.Row(m)
	}
	return out, nil
}

// QueryData runs an arbitrary SELECT and returns its columns and raw values.
func (s *Source) QueryData(ctx context.Context, name, sql string) (*catalog.DataTable, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	dt := &catalog.DataTable{Name: name, Columns: make([]string, len(fields))}
	for i, fd := range fields {
		dt.Columns[i] = fd.Name
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		dt.Rows = append(dt.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dt, nil
}
