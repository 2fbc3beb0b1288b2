// Package store persists the roster in SQLite and serves it back as a
// records.Provider.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/wesm/rosterview/internal/records"
)

//go:embed schema.sql
var schemaSQL string

// ErrDuplicateID is returned when a write contains the same record ID twice.
var ErrDuplicateID = errors.New("duplicate record id")

// Store is a SQLite-backed roster repository.
type Store struct {
	db     *sql.DB
	dbPath string
}

const defaultSQLiteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// asSQLiteError unwraps the driver error from err, which go-sqlite3
// returns by value.
func asSQLiteError(err error) (sqlite3.Error, bool) {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se, true
	}
	if p := (*sqlite3.Error)(nil); errors.As(err, &p) && p != nil {
		return *p, true
	}
	return sqlite3.Error{}, false
}

// isUniqueViolation reports whether err is a primary key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	se, ok := asSQLiteError(err)
	return ok && (se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique)
}

// isMissingTable reports whether err comes from querying a database whose
// schema was never initialized.
func isMissingTable(err error) bool {
	se, ok := asSQLiteError(err)
	return ok && strings.Contains(se.Error(), "no such table")
}

// Open opens or creates the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, eris.Wrap(err, "create db directory")
	}

	db, err := sql.Open("sqlite3", dbPath+defaultSQLiteParams)
	if err != nil {
		return nil, eris.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "ping database")
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// InitSchema creates the tables if they don't exist.
func (s *Store) InitSchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return eris.Wrap(err, "execute schema.sql")
	}
	return nil
}

// withTx executes fn within a database transaction. If fn returns an error,
// the transaction is rolled back; otherwise it is committed.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit")
	}
	return nil
}

// insertInChunks executes a multi-value INSERT in chunks to stay within
// SQLite's parameter limit (999).
func insertInChunks(ctx context.Context, tx *sql.Tx, totalRows, valuesPerRow int, queryPrefix string, valueBuilder func(start, end int) ([]string, []any)) error {
	const maxParams = 900
	chunkSize := max(maxParams/valuesPerRow, 1)

	for i := 0; i < totalRows; i += chunkSize {
		end := min(i+chunkSize, totalRows)
		values, args := valueBuilder(i, end)
		if _, err := tx.ExecContext(ctx, queryPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceRecords atomically replaces the whole roster with recs, keeping
// their order.
func (s *Store) ReplaceRecords(ctx context.Context, recs []records.Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return eris.Wrap(err, "clear users")
		}
		err := insertInChunks(ctx, tx, len(recs), 7,
			"INSERT INTO users (id, position, name, balance, email, registered_at, status) VALUES ",
			func(start, end int) ([]string, []any) {
				values := make([]string, 0, end-start)
				args := make([]any, 0, (end-start)*7)
				for i := start; i < end; i++ {
					r := recs[i]
					values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
					args = append(args, r.ID, i, r.Name, r.Balance, r.Email,
						r.RegisteredAt.UTC().Format(time.RFC3339), r.Status.String())
				}
				return values, args
			})
		if err != nil {
			if isUniqueViolation(err) {
				return eris.Wrap(ErrDuplicateID, "insert users")
			}
			return eris.Wrap(err, "insert users")
		}
		return nil
	})
}

// FetchAll implements records.Provider. Records come back in the order they
// were written.
func (s *Store) FetchAll(ctx context.Context) ([]records.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, balance, email, registered_at, status FROM users ORDER BY position")
	if err != nil {
		return nil, eris.Wrap(err, "query users")
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		var (
			r                  records.Record
			registered, status string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Balance, &r.Email, &registered, &status); err != nil {
			return nil, eris.Wrap(err, "scan user")
		}
		if r.RegisteredAt, err = time.Parse(time.RFC3339, registered); err != nil {
			return nil, eris.Wrapf(err, "user %d: registered_at", r.ID)
		}
		if r.Status, err = records.ParseStatus(status); err != nil {
			return nil, eris.Wrapf(err, "user %d", r.ID)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate users")
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, eris.Wrap(err, "count users")
	}
	return n, nil
}

// Stats holds database statistics.
type Stats struct {
	RecordCount  int64
	DatabaseSize int64
}

// GetStats returns statistics about the database.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	stats := &Stats{RecordCount: n}
	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}
