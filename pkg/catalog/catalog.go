// Package catalog persists tracked folders in a SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no folder has the requested id.
	ErrNotFound = errors.New("folder not found")

	// ErrAlreadyTracked is returned when adding a path that is already tracked.
	ErrAlreadyTracked = errors.New("folder already tracked")
)

const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	path TEXT NOT NULL UNIQUE,
	folder_type TEXT NOT NULL DEFAULT 'unknown',
	folder_type_locked INTEGER NOT NULL DEFAULT 0,
	last_modified INTEGER NOT NULL DEFAULT 0,
	classified_at INTEGER NOT NULL DEFAULT 0
);
`

const selectFolders = `
SELECT id, name, path, folder_type, folder_type_locked, last_modified, classified_at
FROM folders`

// Folder is a tracked folder.
type Folder struct {
	LastModified time.Time `json:"lastModified"           yaml:"lastModified"`
	ClassifiedAt time.Time `json:"classifiedAt,omitzero"  yaml:"classifiedAt,omitempty"`
	Name         string    `json:"name"                   yaml:"name"`
	Path         string    `json:"path"                   yaml:"path"`
	FolderType   string    `json:"folderType"             yaml:"folderType"`
	ID           int64     `json:"id"                     yaml:"id"`
	Locked       bool      `json:"folderTypeLocked"       yaml:"folderTypeLocked"`
}

// NewFolder describes a folder to add to the catalog.
type NewFolder struct {
	// ClassifiedAt is when FolderType was computed. Zero means never.
	ClassifiedAt time.Time
	Name         string
	Path         string
	FolderType   string
}

// Catalog is a SQLite-backed folder store. It is safe for concurrent use.
type Catalog struct {
	db  *sql.DB
	now func() time.Time
}

// Opt configures a [Catalog].
type Opt func(*Catalog)

// WithClock sets the function used to stamp modification times.
func WithClock(now func() time.Time) Opt {
	return func(c *Catalog) {
		c.now = now
	}
}

// Open opens (creating if needed) the catalog database at path.
func Open(ctx context.Context, path string, opts ...Opt) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize catalog: %w", err)
	}

	c := &Catalog{db: db, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// List returns every tracked folder, most recently added first.
func (c *Catalog) List(ctx context.Context) ([]Folder, error) {
	rows, err := c.db.QueryContext(ctx, selectFolders+" ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("list folders: %w", err)
		}

		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	return folders, nil
}

// Get returns the folder with the given id.
func (c *Catalog) Get(ctx context.Context, id int64) (Folder, error) {
	f, err := scanFolder(c.db.QueryRowContext(ctx, selectFolders+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Folder{}, fmt.Errorf("get folder %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Folder{}, fmt.Errorf("get folder %d: %w", id, err)
	}

	return f, nil
}

// Add tracks a new folder and returns the stored row.
func (c *Catalog) Add(ctx context.Context, nf NewFolder) (Folder, error) {
	folderType := nf.FolderType
	if folderType == "" {
		folderType = "unknown"
	}

	res, err := c.db.ExecContext(ctx, `
	INSERT INTO folders (name, path, folder_type, last_modified, classified_at)
	VALUES (?, ?, ?, ?, ?)`,
		nf.Name, nf.Path, folderType, toUnix(c.now()), toUnix(nf.ClassifiedAt),
	)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return Folder{}, fmt.Errorf("add %s: %w", nf.Path, ErrAlreadyTracked)
		}

		return Folder{}, fmt.Errorf("add %s: %w", nf.Path, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Folder{}, fmt.Errorf("add %s: %w", nf.Path, err)
	}

	return c.Get(ctx, id)
}

// UpdateFolderType stores an automatically computed folder type.
//
// The write is refused, returning false, when the folder is locked, no longer
// exists, or already holds a classification newer than classifiedAt. The
// check and the write are a single statement.
func (c *Catalog) UpdateFolderType(ctx context.Context, id int64, folderType string, classifiedAt time.Time) (bool, error) {
	res, err := c.db.ExecContext(ctx, `
	UPDATE folders SET folder_type = ?, classified_at = ?, last_modified = ?
	WHERE id = ? AND folder_type_locked = 0 AND classified_at <= ?`,
		folderType, toUnix(classifiedAt), toUnix(c.now()), id, toUnix(classifiedAt),
	)
	if err != nil {
		return false, fmt.Errorf("update folder %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update folder %d: %w", id, err)
	}

	return n > 0, nil
}

// MarkClassified records that folderType was the result of a classification
// started at classifiedAt. It is refused under the same conditions as
// [Catalog.UpdateFolderType]. The modification time only moves if the stored
// type differs, which happens when an older pass wrote in the meantime.
func (c *Catalog) MarkClassified(ctx context.Context, id int64, folderType string, classifiedAt time.Time) (bool, error) {
	res, err := c.db.ExecContext(ctx, `
	UPDATE folders SET folder_type = ?, classified_at = ?,
		last_modified = CASE WHEN folder_type = ? THEN last_modified ELSE ? END
	WHERE id = ? AND folder_type_locked = 0 AND classified_at <= ?`,
		folderType, toUnix(classifiedAt), folderType, toUnix(c.now()), id, toUnix(classifiedAt),
	)
	if err != nil {
		return false, fmt.Errorf("mark folder %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark folder %d: %w", id, err)
	}

	return n > 0, nil
}

// Override sets a folder's type by hand and locks it against automatic
// reclassification. Classifications started before the override are refused
// even after the folder is unlocked again.
func (c *Catalog) Override(ctx context.Context, id int64, folderType string) error {
	now := toUnix(c.now())

	return c.exec(ctx, id, "override", `
	UPDATE folders SET folder_type = ?, folder_type_locked = 1, last_modified = ?,
		classified_at = MAX(classified_at, ?)
	WHERE id = ?`,
		folderType, now, now, id,
	)
}

// Unlock allows automatic reclassification of a folder again.
func (c *Catalog) Unlock(ctx context.Context, id int64) error {
	return c.exec(ctx, id, "unlock", `
	UPDATE folders SET folder_type_locked = 0, last_modified = ?
	WHERE id = ?`,
		toUnix(c.now()), id,
	)
}

// Remove stops tracking a folder.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	return c.exec(ctx, id, "remove", "DELETE FROM folders WHERE id = ?", id)
}

func (c *Catalog) exec(ctx context.Context, id int64, op, query string, args ...any) error {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s folder %d: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s folder %d: %w", op, id, err)
	}

	if n == 0 {
		return fmt.Errorf("%s folder %d: %w", op, id, ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(s scanner) (Folder, error) {
	var (
		f                          Folder
		locked                     int
		lastModified, classifiedAt int64
	)

	err := s.Scan(&f.ID, &f.Name, &f.Path, &f.FolderType, &locked, &lastModified, &classifiedAt)
	if err != nil {
		return Folder{}, err //nolint:wrapcheck // Wrapped by callers.
	}

	f.Locked = locked != 0
	f.LastModified = fromUnix(lastModified)
	f.ClassifiedAt = fromUnix(classifiedAt)

	return f, nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}

	return time.Unix(0, n).UTC()
}
