// Package docstore provides the SQLite-backed document store for Shadow.
// Documents are JSON blobs keyed by a slash-separated path. The store
// exposes exactly what the stats engine needs: point reads, field-level
// merge writes, atomic numeric increments, and a serialized
// read-modify-write transaction.
// Uses WAL mode for concurrent reads and crash-safe writes.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/shadowlingo/shadow/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the document store at dir/documents.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "documents.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; serializing through one connection also makes
	// Merge and Increment atomic with respect to each other.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Store Contract ─────────────────────────────────────────────────────────

// Get reads the document at path. Returns domain.ErrDocumentNotFound when
// no document exists there.
func (d *DB) Get(ctx context.Context, path string) (domain.Document, error) {
	return getDoc(ctx, d.db, path)
}

// Merge upserts the document at path with field-level merge: the given
// fields replace their previous values, all other fields are preserved.
func (d *DB) Merge(ctx context.Context, path string, fields domain.Document) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		return mergeDoc(ctx, tx, path, fields)
	})
}

// Increment atomically adds delta to a numeric field, creating the document
// or the field at zero first when absent.
func (d *DB) Increment(ctx context.Context, path, field string, delta int64) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		doc, err := getDoc(ctx, tx, path)
		if err == domain.ErrDocumentNotFound {
			doc = domain.Document{}
		} else if err != nil {
			return err
		}
		doc[field] = doc.Int(field) + delta
		return putDoc(ctx, tx, path, doc)
	})
}

// RunTransaction executes fn inside one SQLite transaction. Reads through
// the Tx see a consistent snapshot and writes commit atomically; any error
// from fn rolls everything back.
func (d *DB) RunTransaction(ctx context.Context, fn func(tx domain.Tx) error) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		return fn(&storeTx{ctx: ctx, tx: tx})
	})
}

// List returns the paths of all documents under prefix, sorted.
func (d *DB) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT path FROM documents WHERE path LIKE ? || '%' ORDER BY path`, prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Delete removes the document at path. Missing paths are a no-op.
func (d *DB) Delete(ctx context.Context, path string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
	return err
}

// ─── Transaction Wrapper ────────────────────────────────────────────────────

// storeTx adapts *sql.Tx to the domain.Tx contract.
type storeTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *storeTx) Get(path string) (domain.Document, error) {
	return getDoc(t.ctx, t.tx, path)
}

func (t *storeTx) Merge(path string, fields domain.Document) error {
	return mergeDoc(t.ctx, t.tx, path, fields)
}

func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getDoc(ctx context.Context, q querier, path string) (domain.Document, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE path = ?`, path,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

func mergeDoc(ctx context.Context, q querier, path string, fields domain.Document) error {
	doc, err := getDoc(ctx, q, path)
	if err == domain.ErrDocumentNotFound {
		doc = domain.Document{}
	} else if err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	return putDoc(ctx, q, path, doc)
}

func putDoc(ctx context.Context, q querier, path string, doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO documents (path, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		path, string(data), time.Now().Unix(),
	)
	return err
}
