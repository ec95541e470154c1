// Package sqlitestore persists inventory snapshots in SQLite. Each snapshot
// is stored as one row with its JSON payload.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-inherit/pkg/inventory"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    etag TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    extra TEXT,
    payload TEXT NOT NULL
);`

// timeLayout is fixed width so updated_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements inventory.Store on a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ inventory.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)
	s, err := New(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlitestore: db is required")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlitestore: schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, id string) (inventory.Snapshot, inventory.Meta, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, name, etag, created_at, updated_at, extra, payload FROM snapshots WHERE snapshot_id = ?`, id)
	meta, payload, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Snapshot{}, inventory.Meta{}, false, nil
	}
	if err != nil {
		return inventory.Snapshot{}, inventory.Meta{}, false, err
	}
	var snapshot inventory.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return inventory.Snapshot{}, inventory.Meta{}, false, fmt.Errorf("sqlitestore: decode %s: %w", id, err)
	}
	return snapshot, meta, true, nil
}

func (s *Store) Save(ctx context.Context, snapshot inventory.Snapshot, meta inventory.Meta) (inventory.Meta, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return inventory.Meta{}, err
	}
	defer tx.Rollback()

	var (
		existing inventory.Meta
		found    bool
	)
	if meta.SnapshotID != "" {
		row := tx.QueryRowContext(ctx,
			`SELECT snapshot_id, name, etag, created_at, updated_at, extra, payload FROM snapshots WHERE snapshot_id = ?`, meta.SnapshotID)
		existing, _, err = scanRow(row)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, sql.ErrNoRows):
			return inventory.Meta{}, err
		}
	}

	saved, err := inventory.PrepareSave(snapshot, meta, existing, found, s.now())
	if err != nil {
		return saved, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return inventory.Meta{}, fmt.Errorf("sqlitestore: encode snapshot: %w", err)
	}
	extra, err := encodeExtra(saved.Extra)
	if err != nil {
		return inventory.Meta{}, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO snapshots (snapshot_id, name, etag, created_at, updated_at, extra, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(snapshot_id) DO UPDATE SET
    name = excluded.name,
    etag = excluded.etag,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at,
    extra = excluded.extra,
    payload = excluded.payload`,
		saved.SnapshotID, saved.Name, saved.ETag,
		saved.CreatedAt.UTC().Format(timeLayout), saved.UpdatedAt.UTC().Format(timeLayout), extra, string(payload))
	if err != nil {
		return inventory.Meta{}, fmt.Errorf("sqlitestore: save %s: %w", saved.SnapshotID, err)
	}
	if err := tx.Commit(); err != nil {
		return inventory.Meta{}, err
	}
	return saved, nil
}

// List returns stored metadata, most recently updated first.
func (s *Store) List(ctx context.Context) ([]inventory.Meta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_id, name, etag, created_at, updated_at, extra, payload FROM snapshots ORDER BY updated_at DESC, snapshot_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.Meta
	for rows.Next() {
		meta, _, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(row scanner) (inventory.Meta, string, error) {
	var (
		meta      inventory.Meta
		createdAt string
		updatedAt string
		extra     sql.NullString
		payload   string
	)
	if err := row.Scan(&meta.SnapshotID, &meta.Name, &meta.ETag, &createdAt, &updatedAt, &extra, &payload); err != nil {
		return inventory.Meta{}, "", err
	}
	var err error
	if meta.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return inventory.Meta{}, "", fmt.Errorf("sqlitestore: parse created_at for %s: %w", meta.SnapshotID, err)
	}
	if meta.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return inventory.Meta{}, "", fmt.Errorf("sqlitestore: parse updated_at for %s: %w", meta.SnapshotID, err)
	}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &meta.Extra); err != nil {
			return inventory.Meta{}, "", fmt.Errorf("sqlitestore: decode extra for %s: %w", meta.SnapshotID, err)
		}
	}
	return meta, payload, nil
}

func encodeExtra(extra map[string]string) (sql.NullString, error) {
	if extra == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlitestore: encode extra: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
