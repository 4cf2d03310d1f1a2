// Package store is the local replica of the read-it-later account:
// folders, bookmarks, and the outbox of pending edits waiting to be
// reconciled against the service.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"marginalia/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS folders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	folder_id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	local_only INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_folders_folder_id ON folders(folder_id);
CREATE INDEX IF NOT EXISTS idx_folders_title ON folders(title);

CREATE TABLE IF NOT EXISTS folder_edits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	folder_dbid INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	removed_folder_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_folder_edits_folder_dbid ON folder_edits(folder_dbid);
CREATE INDEX IF NOT EXISTS idx_folder_edits_title ON folder_edits(title);

CREATE TABLE IF NOT EXISTS bookmarks (
	bookmark_id INTEGER PRIMARY KEY,
	folder_id TEXT NOT NULL DEFAULT '',
	folder_dbid INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	starred INTEGER NOT NULL DEFAULT 0,
	progress REAL NOT NULL DEFAULT 0,
	progress_timestamp INTEGER NOT NULL DEFAULT 0,
	hash TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	content_available INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_bookmarks_folder_dbid ON bookmarks(folder_dbid);
CREATE INDEX IF NOT EXISTS idx_bookmarks_folder_id ON bookmarks(folder_id);
CREATE INDEX IF NOT EXISTS idx_bookmarks_starred ON bookmarks(starred);
CREATE INDEX IF NOT EXISTS idx_bookmarks_url ON bookmarks(url);

CREATE TABLE IF NOT EXISTS bookmark_edits (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	bookmark_id INTEGER NOT NULL DEFAULT 0,
	source_folder_dbid INTEGER NOT NULL DEFAULT 0,
	destination_folder_dbid INTEGER NOT NULL DEFAULT 0,
	url TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_bookmark_edits_bookmark_id ON bookmark_edits(bookmark_id);
CREATE INDEX IF NOT EXISTS idx_bookmark_edits_source ON bookmark_edits(source_folder_dbid);
CREATE INDEX IF NOT EXISTS idx_bookmark_edits_destination ON bookmark_edits(destination_folder_dbid);
`

// CommonFolderDBIDs holds the local ids of the four default folders,
// resolved once at Open.
type CommonFolderDBIDs struct {
	Unread   int64
	Liked    int64
	Archive  int64
	Orphaned int64
}

// Store is the local replica. All methods fail with ErrNoDatabase when
// called before Open or after Close. The store does not serialize
// unrelated callers; the sync engine is the only writer expected to run
// a long multi-step transcript against it.
type Store struct {
	db   *sql.DB
	path string

	// CommonFolderDBIDs is valid after Open.
	CommonFolderDBIDs CommonFolderDBIDs

	foldersChanged   events.Source[FolderChange]
	bookmarksChanged events.Source[BookmarkChange]
}

// Open opens (creating if necessary) the database at path, applies the
// schema, and seeds the four default folders on first use.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if err := s.createDefaultFolders(ctx); err != nil {
		return err
	}
	return s.resolveCommonFolderDBIDs(ctx)
}

// createDefaultFolders inserts the reserved folders if they are absent.
// They are never pushed, pulled, or deleted afterwards.
func (s *Store) createDefaultFolders(ctx context.Context) error {
	defaults := []Folder{
		{FolderID: FolderIDUnread, Title: "Home"},
		{FolderID: FolderIDLiked, Title: "Liked"},
		{FolderID: FolderIDArchive, Title: "Archive"},
		{FolderID: FolderIDOrphaned, Title: "orphaned", LocalOnly: true},
	}

	for _, f := range defaults {
		var count int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM folders WHERE folder_id = ?`, f.FolderID).Scan(&count)
		if err != nil {
			return fmt.Errorf("check default folder %q: %w", f.FolderID, err)
		}
		if count > 0 {
			continue
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO folders (folder_id, title, local_only) VALUES (?, ?, ?)`,
			f.FolderID, f.Title, boolToInt(f.LocalOnly))
		if err != nil {
			return fmt.Errorf("create default folder %q: %w", f.FolderID, err)
		}
	}
	return nil
}

func (s *Store) resolveCommonFolderDBIDs(ctx context.Context) error {
	for _, pair := range []struct {
		folderID string
		dst      *int64
	}{
		{FolderIDUnread, &s.CommonFolderDBIDs.Unread},
		{FolderIDLiked, &s.CommonFolderDBIDs.Liked},
		{FolderIDArchive, &s.CommonFolderDBIDs.Archive},
		{FolderIDOrphaned, &s.CommonFolderDBIDs.Orphaned},
	} {
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM folders WHERE folder_id = ?`, pair.folderID).Scan(pair.dst)
		if err != nil {
			return fmt.Errorf("resolve default folder %q: %w", pair.folderID, err)
		}
	}
	return nil
}

// Close closes the database. Subsequent operations fail with
// ErrNoDatabase.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DeleteAllData closes the store and removes the database file.
func (s *Store) DeleteAllData() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("remove database: %w", err)
	}
	return nil
}

// FoldersChanged is the notification source for folder mutations.
func (s *Store) FoldersChanged() *events.Source[FolderChange] {
	return &s.foldersChanged
}

// BookmarksChanged is the notification source for bookmark mutations.
func (s *Store) BookmarksChanged() *events.Source[BookmarkChange] {
	return &s.bookmarksChanged
}

func (s *Store) checkDB() error {
	if s.db == nil {
		return ErrNoDatabase
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
