package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/planar/pkg/sketch"
)

const schema = `
CREATE TABLE IF NOT EXISTS sketches (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store is a SQLite-backed sketch repository. The zero value is not usable;
// call Open.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for an in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sketch store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sketch store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (st *Store) Close() error {
	return st.db.Close()
}

// Save writes the sketch under the given name, replacing any previous
// snapshot with that name.
func (st *Store) Save(ctx context.Context, name string, s *sketch.Sketch) error {
	if name == "" {
		return fmt.Errorf("sketch name must not be empty")
	}
	data, err := Encode(s)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx,
		`INSERT INTO sketches (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving sketch %q: %w", name, err)
	}
	return nil
}

// Load reads the named sketch back.
func (st *Store) Load(ctx context.Context, name string) (*sketch.Sketch, error) {
	var data []byte
	err := st.db.QueryRowContext(ctx,
		`SELECT data FROM sketches WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no sketch named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading sketch %q: %w", name, err)
	}
	return Decode(data)
}

// List returns the names of all stored sketches, most recently updated
// first.
func (st *Store) List(ctx context.Context) ([]string, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT name FROM sketches ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing sketches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing sketches: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the named sketch. Deleting a missing name is not an error.
func (st *Store) Delete(ctx context.Context, name string) error {
	if _, err := st.db.ExecContext(ctx,
		`DELETE FROM sketches WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting sketch %q: %w", name, err)
	}
	return nil
}
