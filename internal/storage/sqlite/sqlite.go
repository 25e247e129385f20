// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the zero-setup alternative to MongoDB for local runs.
//
// DOCUMENTS IN A TABLE
// ────────────────────
// The service treats its store as schemaless: a stored student may lack
// any field. Every data column is therefore NULLable, and a NULL column
// reads back as a missing field. Identifiers are ObjectID hex strings
// generated here, so they look and parse exactly like MongoDB's.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.Storage.Path and creates the
// students table if it does not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	s, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already opened *sql.DB and runs the schema setup.
func NewWithDB(db *sql.DB) (*SQLite, error) {
	// CREATE TABLE IF NOT EXISTS is idempotent — safe on every startup.
	// Rows are scanned in rowid order, which is the store-native order
	// the list endpoint returns.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id      TEXT PRIMARY KEY,
			name    TEXT,
			age     INTEGER,
			city    TEXT,
			country TEXT
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent inserts a new row and returns its generated ObjectID.
//
// Placeholders (?) keep user input out of the SQL text: the driver sends
// the statement and the values separately.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (string, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, name, age, city, country) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	id := storage.NewID().Hex()
	_, err = stmt.ExecContext(ctx, id,
		student.Name, student.Age, student.Address.City, student.Address.Country)
	if err != nil {
		return "", fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return id, nil
}

// GetStudents returns the rows matching filter. A NULL age or country
// never matches a filter on that column, as with a missing document field.
func (s *SQLite) GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.StudentRecord, error) {
	query := "SELECT id, name, age, city, country FROM students WHERE 1=1"
	var args []any

	if filter.Country != "" {
		query += " AND country = ?"
		args = append(args, filter.Country)
	}
	if filter.MinAge != nil {
		query += " AND age >= ?"
		args = append(args, *filter.MinAge)
	}

	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result still encodes as [].
	records := make([]types.StudentRecord, 0)

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return records, nil
}

// GetStudentByID fetches exactly one row matched by id.
func (s *SQLite) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.StudentRecord, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, age, city, country FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.StudentRecord{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	rec, err := scanRecord(stmt.QueryRowContext(ctx, id.Hex()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudentRecord{}, storage.ErrNotFound
		}
		return types.StudentRecord{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return rec, nil
}

// UpdateStudentByID sets the supplied columns only.
//
// The WHERE clause also requires at least one supplied value to differ
// from the stored one (IS NOT is NULL-safe), so the affected-row count
// matches MongoDB's modified count: an update that changes nothing
// reports 0, just like an update of a missing id.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, update types.StudentUpdate) (int64, error) {
	query, args := buildUpdate(id, update)
	if query == "" {
		return 0, nil
	}

	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	return n, nil
}

// DeleteStudentByID removes a row by id.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id.Hex())
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

// buildUpdate returns the UPDATE statement and its arguments, or "" when
// the update carries no fields.
func buildUpdate(id primitive.ObjectID, update types.StudentUpdate) (string, []any) {
	var (
		sets, guards       []string
		setArgs, guardArgs []any
	)

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		guards = append(guards, column+" IS NOT ?")
		setArgs = append(setArgs, value)
		guardArgs = append(guardArgs, value)
	}

	if name, ok := update.Name.Get(); ok {
		set("name", name)
	}
	if age, ok := update.Age.Get(); ok {
		set("age", age)
	}
	if addr, ok := update.Address.Get(); ok {
		set("city", addr.City)
		set("country", addr.Country)
	}

	if len(sets) == 0 {
		return "", nil
	}

	query := "UPDATE students SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND (" + strings.Join(guards, " OR ") + ")"

	args := make([]any, 0, len(setArgs)+1+len(guardArgs))
	args = append(args, setArgs...)
	args = append(args, id.Hex())
	args = append(args, guardArgs...)
	return query, args
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (types.StudentRecord, error) {
	var (
		rec           types.StudentRecord
		name          sql.NullString
		age           sql.NullInt64
		city, country sql.NullString
	)

	if err := row.Scan(&rec.ID, &name, &age, &city, &country); err != nil {
		return types.StudentRecord{}, err
	}

	if name.Valid {
		rec.Name = &name.String
	}
	if age.Valid {
		v := int(age.Int64)
		rec.Age = &v
	}
	if city.Valid || country.Valid {
		rec.Address = &types.AddressRecord{}
		if city.Valid {
			rec.Address.City = &city.String
		}
		if country.Valid {
			rec.Address.Country = &country.String
		}
	}

	return rec, nil
}
