// Package data owns the connection pool and a small SQL bridge that hands
// query results back as column-name keyed rows.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// Row is one result row keyed by column name. Values are strings, or nil for SQL NULL.
type Row map[string]any

// String returns the column value, or "" when it is NULL or absent.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Int64 parses the column value as an integer.
func (r Row) Int64(col string) (int64, error) {
	v, ok := r[col]
	if !ok || v == nil {
		return 0, fmt.Errorf("column %q is null or missing", col)
	}
	n, err := strconv.ParseInt(r.String(col), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", col, err)
	}
	return n, nil
}

// Bridge is the storage surface the services depend on.
type Bridge interface {
	// TableExists reports whether table exists; lookup errors are logged and read as false.
	TableExists(ctx context.Context, table string) bool
	// CreateTable runs the table and index statements in one transaction.
	CreateTable(ctx context.Context, createSQL string, indexSQL ...string) bool
	// QueryOne returns the first row, or nil when the query matches nothing.
	QueryOne(ctx context.Context, query string, args ...any) (Row, error)
	QueryArray(ctx context.Context, query string, args ...any) ([]Row, error)
	// Insert returns the generated key of the inserted row.
	Insert(ctx context.Context, query string, args ...any) (int64, error)
	// Update returns the number of affected rows.
	Update(ctx context.Context, query string, args ...any) (int64, error)
	Dialect() Dialect
	Close() error
}

// SQLBridge implements Bridge on a pooled sqlx connection.
type SQLBridge struct {
	db      *sqlx.DB
	dialect Dialect
	log     *slog.Logger
}

// NewSQLBridge wraps db. The bridge owns db from here on and closes it in Close.
func NewSQLBridge(db *sqlx.DB, log *slog.Logger) *SQLBridge {
	if log == nil {
		log = slog.Default()
	}
	return &SQLBridge{db: db, dialect: DialectFor(db.DriverName()), log: log}
}

// DB exposes the underlying pool.
func (b *SQLBridge) DB() *sqlx.DB { return b.db }

// Dialect returns the dialect of the underlying driver.
func (b *SQLBridge) Dialect() Dialect { return b.dialect }

// TableExists reports whether table exists. Lookup errors are logged and read as false.
func (b *SQLBridge) TableExists(ctx context.Context, table string) bool {
	var count int
	if err := b.db.GetContext(ctx, &count, b.dialect.TableExistsQuery(), table); err != nil {
		b.log.Error("failed to check table existence", "table", table, "err", err)
		return false
	}
	return count > 0
}

// CreateTable runs createSQL and then indexSQL in one transaction, rolling back on any error.
func (b *SQLBridge) CreateTable(ctx context.Context, createSQL string, indexSQL ...string) bool {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		b.log.Error("failed to begin create table transaction", "err", err)
		return false
	}
	stmts := append([]string{createSQL}, indexSQL...)
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			b.log.Error("failed to create table", "sql", stmt, "err", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				b.log.Error("failed to roll back create table", "err", rbErr)
			}
			return false
		}
	}
	if err := tx.Commit(); err != nil {
		b.log.Error("failed to commit create table", "err", err)
		return false
	}
	return true
}

// QueryOne returns the first row of query, or nil when it matches nothing.
func (b *SQLBridge) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := b.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query one: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query one: %w", err)
		}
		return nil, nil
	}
	return scanRow(rows)
}

// QueryArray returns every row of query; the slice is empty, not nil, when nothing matches.
func (b *SQLBridge) QueryArray(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := b.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query array: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query array: %w", err)
	}
	return out, nil
}

// Insert executes query and returns the generated key.
func (b *SQLBridge) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert: last insert id: %w", err)
	}
	return id, nil
}

// Update executes query and returns the number of affected rows.
func (b *SQLBridge) Update(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update: rows affected: %w", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (b *SQLBridge) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}

func scanRow(rows *sqlx.Rows) (Row, error) {
	raw := make(map[string]any)
	if err := rows.MapScan(raw); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	row := make(Row, len(raw))
	for col, v := range raw {
		row[col] = stringify(v)
	}
	return row, nil
}

// stringify renders a driver value the way it would read as text.
func stringify(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}
