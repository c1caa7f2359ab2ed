package probe

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"

	"github.com/rs/zerolog/log"
)

// CleanupTimeout bounds teardown. Teardown runs detached from the probe's own
// deadline so an expired probe still removes its rows.
var CleanupTimeout = 10 * time.Second

// CleanupFailure records a probe row that could not be deleted.
type CleanupFailure struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Marker string `json:"marker"`
	Error  string `json:"error"`
}

type tracked struct {
	table  *catalog.Table
	column string // catalog name of the marker column
	marker string
}

// Scope holds one pooled connection for the duration of a probe and every
// row the probe may have created. Close releases both, on every exit path.
type Scope struct {
	db      *sql.DB
	conn    *sql.Conn
	d       dialect.Dialect
	created []tracked
}

// Acquire takes a dedicated connection from the pool.
func Acquire(ctx context.Context, db *sql.DB, d dialect.Dialect) (*Scope, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Scope{db: db, conn: conn, d: d}, nil
}

func (s *Scope) tableName(t *catalog.Table) string {
	return s.d.QualifiedName(t.Schema, t.Name)
}

// Track registers a row for teardown. It must be called before the insert is
// attempted: a mutation that was expected to fail may still have succeeded.
func (s *Scope) Track(t *catalog.Table, markerColumn, marker string) {
	s.created = append(s.created, tracked{table: t, column: markerColumn, marker: marker})
}

// Insert attempts to create r in t and classifies the result.
func (s *Scope) Insert(ctx context.Context, t *catalog.Table, r row) Outcome {
	cols, args := r.split()
	query := s.d.InsertQuery(s.tableName(t), cols)
	_, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		log.Debug().Str("table", t.QualifiedName()).Err(err).Msg("insert rejected")
	}
	return classify(ctx, s.d, err)
}

// ReadBack selects cols of the row carrying marker. Values come back as
// strings (NULL stays invalid) so every engine compares alike.
func (s *Scope) ReadBack(ctx context.Context, t *catalog.Table, markerColumn, marker string, cols []string) ([]sql.NullString, error) {
	query := s.d.SelectByQuery(s.tableName(t), cols, markerColumn)
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := s.conn.QueryRowContext(ctx, query, marker).Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to read back %s: %w", t.QualifiedName(), err)
	}
	return vals, nil
}

// Lookup returns the raw value of column for the row carrying marker.
func (s *Scope) Lookup(ctx context.Context, t *catalog.Table, markerColumn, marker, column string) (any, error) {
	query := s.d.SelectByQuery(s.tableName(t), []string{column}, markerColumn)
	var v any
	if err := s.conn.QueryRowContext(ctx, query, marker).Scan(&v); err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", t.QualifiedName(), column, err)
	}
	return v, nil
}

// Exists reports whether t has a row whose column equals value.
func (s *Scope) Exists(ctx context.Context, t *catalog.Table, column string, value any) (bool, error) {
	var n int
	query := s.d.CountByQuery(s.tableName(t), column)
	if err := s.conn.QueryRowContext(ctx, query, value).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close deletes tracked rows in reverse creation order (children before
// parents) and releases the connection. A failed delete is retried once on a
// fresh pooled connection, then logged and returned.
func (s *Scope) Close(ctx context.Context) []CleanupFailure {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CleanupTimeout)
	defer cancel()
	defer s.conn.Close()

	var failures []CleanupFailure
	for i := len(s.created) - 1; i >= 0; i-- {
		tr := s.created[i]
		query := s.d.DeleteByQuery(s.tableName(tr.table), tr.column)
		_, err := s.conn.ExecContext(ctx, query, tr.marker)
		if err != nil {
			_, err = s.db.ExecContext(ctx, query, tr.marker)
		}
		if err != nil {
			log.Warn().
				Str("table", tr.table.QualifiedName()).
				Str("column", tr.column).
				Str("marker", tr.marker).
				Err(err).
				Msg("probe row could not be deleted, manual cleanup required")
			failures = append(failures, CleanupFailure{
				Table:  tr.table.QualifiedName(),
				Column: tr.column,
				Marker: tr.marker,
				Error:  err.Error(),
			})
		}
	}
	s.created = nil
	return failures
}

// row is a column -> value set keyed by catalog column name.
type row map[string]any

func (r row) split() ([]string, []any) {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = r[c]
	}
	return cols, args
}
