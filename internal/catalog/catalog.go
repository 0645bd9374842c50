// Package catalog records the tensor stores that have been materialized, so
// repeated generation runs can find and reuse them.
package catalog

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jjtimmons/music/internal/errs"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// Entry is one materialized tensor store
type Entry struct {
	ID string

	// Dataset names the source, ex: "AGO2/positive" or an inference base path
	Dataset string

	// Split is "train", "test" or "infer"
	Split string

	// Store is the path of the HDF5 file
	Store string

	Records   int
	Channels  int
	MaxLength int
	Truncated int

	CreatedAt time.Time
}

// Catalog is a sqlite backed list of Entries, one per store path
type Catalog struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// New returns a Catalog for the sqlite file at path. Init must be called
// before use.
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Init opens the database and creates its table.
func (c *Catalog) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return errs.Newf(errs.IO, "catalog.Init", "catalog path is required")
	}
	if c.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return errs.P(errs.IO, "catalog.Init", c.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errs.P(errs.IO, "catalog.Init", c.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return errs.P(errs.IO, "catalog.Init", c.path, err)
	}

	c.db = db
	return nil
}

// Put records e, replacing any entry for the same store. An empty ID is
// filled with a new random one; a zero CreatedAt with the current time.
func (c *Catalog) Put(ctx context.Context, e Entry) (Entry, error) {
	db, err := c.getDB()
	if err != nil {
		return Entry{}, err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO stores (id, dataset, split, store, records, channels, max_length, truncated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(store) DO UPDATE SET
			id = excluded.id,
			dataset = excluded.dataset,
			split = excluded.split,
			records = excluded.records,
			channels = excluded.channels,
			max_length = excluded.max_length,
			truncated = excluded.truncated,
			created_at = excluded.created_at
	`, e.ID, e.Dataset, e.Split, e.Store, e.Records, e.Channels, e.MaxLength, e.Truncated, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, errs.P(errs.IO, "catalog.Put", e.Store, err)
	}
	return e, nil
}

// Get returns the entry for a store path, false if there is none.
func (c *Catalog) Get(ctx context.Context, store string) (Entry, bool, error) {
	db, err := c.getDB()
	if err != nil {
		return Entry{}, false, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+columns+` FROM stores WHERE store = ?`, store)
	e, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, errs.P(errs.IO, "catalog.Get", store, err)
	}
	return e, true, nil
}

// List returns every entry, oldest first.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+columns+` FROM stores ORDER BY created_at, store`)
	if err != nil {
		return nil, errs.E(errs.IO, "catalog.List", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, errs.E(errs.IO, "catalog.List", err)
		}
		entries = append(entries, e)
	}
	return entries, errs.E(errs.IO, "catalog.List", rows.Err())
}

// Delete removes the entry for a store path, reporting whether there was one.
func (c *Catalog) Delete(ctx context.Context, store string) (bool, error) {
	db, err := c.getDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM stores WHERE store = ?`, store)
	if err != nil {
		return false, errs.P(errs.IO, "catalog.Delete", store, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.P(errs.IO, "catalog.Delete", store, err)
	}
	return n > 0, nil
}

// Close closes the database. The Catalog can be re-opened with Init.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Catalog) getDB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		return nil, errs.Newf(errs.IO, "catalog", "catalog is not initialized")
	}
	return c.db, nil
}

const columns = `id, dataset, split, store, records, channels, max_length, truncated, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := s.Scan(&e.ID, &e.Dataset, &e.Split, &e.Store, &e.Records, &e.Channels, &e.MaxLength, &e.Truncated, &created)
	if err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stores (
			id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			split TEXT NOT NULL,
			store TEXT PRIMARY KEY,
			records INTEGER NOT NULL,
			channels INTEGER NOT NULL,
			max_length INTEGER NOT NULL,
			truncated INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	return err
}
