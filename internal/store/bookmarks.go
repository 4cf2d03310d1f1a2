package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const bookmarkColumns = `bookmark_id, folder_id, folder_dbid, title, url, starred,
	progress, progress_timestamp, hash, description, content_available`

func scanBookmark(r rowScanner) (*Bookmark, error) {
	var b Bookmark
	var starred, content int
	err := r.Scan(&b.ID, &b.FolderID, &b.FolderDBID, &b.Title, &b.URL, &starred,
		&b.Progress, &b.ProgressTimestamp, &b.Hash, &b.Description, &content)
	if err != nil {
		return nil, err
	}
	b.Starred = starred != 0
	b.ContentAvailable = content != 0
	return &b, nil
}

// ListCurrentBookmarks returns a snapshot of bookmarks. With folderDBID
// zero all bookmarks are returned; the Liked folder id returns starred
// bookmarks across every folder; any other id scans that folder.
func (s *Store) ListCurrentBookmarks(ctx context.Context, folderDBID int64) ([]Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks ORDER BY bookmark_id`
	var args []any
	switch folderDBID {
	case 0:
	case s.CommonFolderDBIDs.Liked:
		query = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE starred = 1 ORDER BY bookmark_id`
	default:
		query = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE folder_dbid = ? ORDER BY bookmark_id`
		args = append(args, folderDBID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks, rows.Err()
}

// GetBookmarkByID looks a bookmark up by id. Returns (nil, nil) when
// absent.
func (s *Store) GetBookmarkByID(ctx context.Context, bookmarkID int64) (*Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	b, err := scanBookmark(s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE bookmark_id = ?`, bookmarkID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark %d: %w", bookmarkID, err)
	}
	return b, nil
}

// AddBookmark inserts a bookmark row. The bookmark must be attributed to
// a folder.
func (s *Store) AddBookmark(ctx context.Context, bookmark Bookmark) (*Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}
	if bookmark.FolderDBID == 0 {
		return nil, fmt.Errorf("add bookmark %d: %w", bookmark.ID, ErrFolderNotFound)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (`+bookmarkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookmark.ID, bookmark.FolderID, bookmark.FolderDBID, bookmark.Title, bookmark.URL,
		boolToInt(bookmark.Starred), bookmark.Progress, bookmark.ProgressTimestamp,
		bookmark.Hash, bookmark.Description, boolToInt(bookmark.ContentAvailable))
	if err != nil {
		return nil, fmt.Errorf("insert bookmark %d: %w", bookmark.ID, err)
	}

	s.bookmarksChanged.Notify(BookmarkChange{
		Operation:  ChangeAdd,
		BookmarkID: bookmark.ID,
		Bookmark:   &bookmark,
	})
	return &bookmark, nil
}

// AddURL records a pending bookmark add for a newly captured URL. No
// local row is created: the capture stays invisible in listings until a
// sync pushes it and pulls the service's version back.
func (s *Store) AddURL(ctx context.Context, url, title string) (*PendingBookmarkEdit, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmark_edits (kind, url, title) VALUES (?, ?, ?)`,
		string(BookmarkEditAdd), url, title)
	if err != nil {
		return nil, fmt.Errorf("pend url add: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("pend url add: %w", err)
	}

	return &PendingBookmarkEdit{
		ID:    id,
		Kind:  BookmarkEditAdd,
		URL:   url,
		Title: title,
	}, nil
}

// UpdateBookmark overwrites the bookmark row. suppressNotify skips the
// change notification for internal relayering during moves and likes.
func (s *Store) UpdateBookmark(ctx context.Context, bookmark *Bookmark, suppressNotify bool) error {
	if err := s.checkDB(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE bookmarks SET folder_id = ?, folder_dbid = ?, title = ?, url = ?, starred = ?,
			progress = ?, progress_timestamp = ?, hash = ?, description = ?, content_available = ?
		 WHERE bookmark_id = ?`,
		bookmark.FolderID, bookmark.FolderDBID, bookmark.Title, bookmark.URL,
		boolToInt(bookmark.Starred), bookmark.Progress, bookmark.ProgressTimestamp,
		bookmark.Hash, bookmark.Description, boolToInt(bookmark.ContentAvailable), bookmark.ID)
	if err != nil {
		return fmt.Errorf("update bookmark %d: %w", bookmark.ID, err)
	}

	if !suppressNotify {
		s.bookmarksChanged.Notify(BookmarkChange{
			Operation:  ChangeUpdate,
			BookmarkID: bookmark.ID,
			Bookmark:   bookmark,
		})
	}
	return nil
}

func pendingEditsForBookmark(ctx context.Context, tx *sql.Tx, bookmarkID int64) ([]PendingBookmarkEdit, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, kind, bookmark_id, source_folder_dbid, destination_folder_dbid, url, title
		 FROM bookmark_edits WHERE bookmark_id = ? ORDER BY id`, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("list edits for bookmark %d: %w", bookmarkID, err)
	}
	defer rows.Close()

	var edits []PendingBookmarkEdit
	for rows.Next() {
		e, err := scanBookmarkEdit(rows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, *e)
	}
	return edits, rows.Err()
}

func cancelEdits(ctx context.Context, tx *sql.Tx, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_edits WHERE id = ?`, id); err != nil {
			return fmt.Errorf("cancel edit %d: %w", id, err)
		}
	}
	return nil
}

// RemoveBookmark deletes a bookmark. Every pending edit for it is
// cancelled except a pending like, which survives alongside the new
// pending delete. With fromServer set no delete is pended: the removal
// originated remotely.
func (s *Store) RemoveBookmark(ctx context.Context, bookmarkID int64, fromServer bool) error {
	if err := s.checkDB(); err != nil {
		return err
	}

	var sourceFolderDBID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBookmark(tx.QueryRowContext(ctx,
			`SELECT `+bookmarkColumns+` FROM bookmarks WHERE bookmark_id = ?`, bookmarkID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("remove bookmark %d: %w", bookmarkID, ErrBookmarkNotFound)
		}
		if err != nil {
			return fmt.Errorf("get bookmark %d: %w", bookmarkID, err)
		}
		sourceFolderDBID = b.FolderDBID

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM bookmarks WHERE bookmark_id = ?`, bookmarkID); err != nil {
			return fmt.Errorf("delete bookmark %d: %w", bookmarkID, err)
		}

		existing, err := pendingEditsForBookmark(ctx, tx, bookmarkID)
		if err != nil {
			return err
		}
		if err := cancelEdits(ctx, tx, editsCancelledByDelete(existing)); err != nil {
			return err
		}

		if !fromServer {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO bookmark_edits (kind, bookmark_id, source_folder_dbid) VALUES (?, ?, ?)`,
				string(BookmarkEditDelete), bookmarkID, sourceFolderDBID)
			if err != nil {
				return fmt.Errorf("pend bookmark delete: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bookmarksChanged.Notify(BookmarkChange{
		Operation:        ChangeDelete,
		BookmarkID:       bookmarkID,
		SourceFolderDBID: sourceFolderDBID,
	})
	return nil
}

// MoveBookmark relocates a bookmark to another folder. The Liked view is
// not a physical folder and is rejected as a destination. Unless
// fromServer, any prior pending move is replaced by one new pending move
// whose source is the folder the bookmark was in immediately before this
// call.
func (s *Store) MoveBookmark(ctx context.Context, bookmarkID, destinationFolderDBID int64, fromServer bool) (*Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	var moved *Bookmark
	var sourceFolderDBID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		folder, err := scanFolder(tx.QueryRowContext(ctx,
			`SELECT `+folderColumns+` FROM folders WHERE id = ?`, destinationFolderDBID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("move bookmark %d: %w", bookmarkID, ErrFolderNotFound)
		}
		if err != nil {
			return fmt.Errorf("get folder %d: %w", destinationFolderDBID, err)
		}
		if folder.FolderID == FolderIDLiked {
			return fmt.Errorf("move bookmark %d: %w", bookmarkID, ErrInvalidDestinationFolder)
		}

		b, err := scanBookmark(tx.QueryRowContext(ctx,
			`SELECT `+bookmarkColumns+` FROM bookmarks WHERE bookmark_id = ?`, bookmarkID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("move bookmark %d: %w", bookmarkID, ErrBookmarkNotFound)
		}
		if err != nil {
			return fmt.Errorf("get bookmark %d: %w", bookmarkID, err)
		}

		sourceFolderDBID = b.FolderDBID
		// Empty until the destination itself has synced; the folder
		// phase fixes these up once the remote id is known.
		b.FolderID = folder.FolderID
		b.FolderDBID = folder.ID

		if _, err := tx.ExecContext(ctx,
			`UPDATE bookmarks SET folder_id = ?, folder_dbid = ? WHERE bookmark_id = ?`,
			b.FolderID, b.FolderDBID, b.ID); err != nil {
			return fmt.Errorf("update bookmark %d: %w", b.ID, err)
		}

		if !fromServer {
			existing, err := pendingEditsForBookmark(ctx, tx, bookmarkID)
			if err != nil {
				return err
			}
			if err := cancelEdits(ctx, tx, moveEditsToCancel(existing)); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO bookmark_edits (kind, bookmark_id, source_folder_dbid, destination_folder_dbid)
				 VALUES (?, ?, ?, ?)`,
				string(BookmarkEditMove), bookmarkID, sourceFolderDBID, destinationFolderDBID)
			if err != nil {
				return fmt.Errorf("pend bookmark move: %w", err)
			}
		}

		moved = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bookmarksChanged.Notify(BookmarkChange{
		Operation:             ChangeMove,
		BookmarkID:            bookmarkID,
		Bookmark:              moved,
		SourceFolderDBID:      sourceFolderDBID,
		DestinationFolderDBID: destinationFolderDBID,
	})
	return moved, nil
}

// LikeBookmark stars a bookmark. Starring an already-starred bookmark
// leaves the row alone but still runs the outbox collapse, so the call
// is idempotent. A missing bookmark resolves to (nil, nil) when
// ignoreMissing is set.
func (s *Store) LikeBookmark(ctx context.Context, bookmarkID int64, skipOutbox, ignoreMissing bool) (*Bookmark, error) {
	return s.setLiked(ctx, bookmarkID, BookmarkEditLike, skipOutbox, ignoreMissing)
}

// UnlikeBookmark clears a bookmark's star, collapsing against any
// pending like the same way LikeBookmark collapses against a pending
// unlike.
func (s *Store) UnlikeBookmark(ctx context.Context, bookmarkID int64, skipOutbox bool) (*Bookmark, error) {
	return s.setLiked(ctx, bookmarkID, BookmarkEditUnlike, skipOutbox, false)
}

func (s *Store) setLiked(ctx context.Context, bookmarkID int64, want BookmarkEditKind, skipOutbox, ignoreMissing bool) (*Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	var updated *Bookmark
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		b, err := scanBookmark(tx.QueryRowContext(ctx,
			`SELECT `+bookmarkColumns+` FROM bookmarks WHERE bookmark_id = ?`, bookmarkID))
		if errors.Is(err, sql.ErrNoRows) {
			if ignoreMissing {
				return nil
			}
			return fmt.Errorf("like bookmark %d: %w", bookmarkID, ErrBookmarkNotFound)
		}
		if err != nil {
			return fmt.Errorf("get bookmark %d: %w", bookmarkID, err)
		}

		starred := want == BookmarkEditLike
		if b.Starred != starred {
			b.Starred = starred
			if _, err := tx.ExecContext(ctx,
				`UPDATE bookmarks SET starred = ? WHERE bookmark_id = ?`,
				boolToInt(starred), bookmarkID); err != nil {
				return fmt.Errorf("update bookmark %d: %w", bookmarkID, err)
			}
		}
		updated = b

		existing, err := pendingEditsForBookmark(ctx, tx, bookmarkID)
		if err != nil {
			return err
		}
		cancel, write := resolveLikeEdits(existing, want)
		if err := cancelEdits(ctx, tx, cancel); err != nil {
			return err
		}
		if write && !skipOutbox {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO bookmark_edits (kind, bookmark_id, source_folder_dbid) VALUES (?, ?, ?)`,
				string(want), bookmarkID, b.FolderDBID)
			if err != nil {
				return fmt.Errorf("pend bookmark %s: %w", want, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	op := ChangeLike
	if want == BookmarkEditUnlike {
		op = ChangeUnlike
	}
	s.bookmarksChanged.Notify(BookmarkChange{
		Operation:  op,
		BookmarkID: bookmarkID,
		Bookmark:   updated,
	})
	return updated, nil
}

// UpdateReadProgress records reading progress. No outbox row is written;
// instead the bookmark's change token is replaced with a fresh random
// one so the engine's comparison against the remote hash always detects
// the change. Progress is synced by value comparison, not outbox replay.
func (s *Store) UpdateReadProgress(ctx context.Context, bookmarkID int64, progress float64) (*Bookmark, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	b, err := s.GetBookmarkByID(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("update progress for bookmark %d: %w", bookmarkID, ErrBookmarkNotFound)
	}

	b.Progress = progress
	b.ProgressTimestamp = time.Now().UnixMilli()
	b.Hash = uuid.NewString()

	if err := s.UpdateBookmark(ctx, b, false); err != nil {
		return nil, err
	}
	return b, nil
}

func scanBookmarkEdit(r rowScanner) (*PendingBookmarkEdit, error) {
	var e PendingBookmarkEdit
	var kind string
	err := r.Scan(&e.ID, &kind, &e.BookmarkID, &e.SourceFolderDBID,
		&e.DestinationFolderDBID, &e.URL, &e.Title)
	if err != nil {
		return nil, fmt.Errorf("scan bookmark edit: %w", err)
	}
	e.Kind = BookmarkEditKind(kind)
	return &e, nil
}

// GetPendingBookmarkEdits returns the bookmark outbox bucketed by kind.
// With folderDBID zero all rows are returned; otherwise only edits whose
// source or destination folder matches.
func (s *Store) GetPendingBookmarkEdits(ctx context.Context, folderDBID int64) (PendingBookmarkEdits, error) {
	var edits PendingBookmarkEdits
	if err := s.checkDB(); err != nil {
		return edits, err
	}

	query := `SELECT id, kind, bookmark_id, source_folder_dbid, destination_folder_dbid, url, title
		FROM bookmark_edits ORDER BY id`
	var args []any
	if folderDBID != 0 {
		query = `SELECT id, kind, bookmark_id, source_folder_dbid, destination_folder_dbid, url, title
			FROM bookmark_edits WHERE source_folder_dbid = ? OR destination_folder_dbid = ? ORDER BY id`
		args = append(args, folderDBID, folderDBID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return edits, fmt.Errorf("list bookmark edits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanBookmarkEdit(rows)
		if err != nil {
			return edits, err
		}
		switch e.Kind {
		case BookmarkEditAdd:
			edits.Adds = append(edits.Adds, *e)
		case BookmarkEditDelete:
			edits.Deletes = append(edits.Deletes, *e)
		case BookmarkEditMove:
			edits.Moves = append(edits.Moves, *e)
		case BookmarkEditLike:
			edits.Likes = append(edits.Likes, *e)
		case BookmarkEditUnlike:
			edits.Unlikes = append(edits.Unlikes, *e)
		}
	}
	return edits, rows.Err()
}

// GetPendingEditsForBookmark returns all outbox rows targeting one
// bookmark.
func (s *Store) GetPendingEditsForBookmark(ctx context.Context, bookmarkID int64) ([]PendingBookmarkEdit, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, bookmark_id, source_folder_dbid, destination_folder_dbid, url, title
		 FROM bookmark_edits WHERE bookmark_id = ? ORDER BY id`, bookmarkID)
	if err != nil {
		return nil, fmt.Errorf("list edits for bookmark %d: %w", bookmarkID, err)
	}
	defer rows.Close()

	var edits []PendingBookmarkEdit
	for rows.Next() {
		e, err := scanBookmarkEdit(rows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, *e)
	}
	return edits, rows.Err()
}

// DeletePendingBookmarkEdit removes one bookmark outbox row.
func (s *Store) DeletePendingBookmarkEdit(ctx context.Context, id int64) error {
	if err := s.checkDB(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bookmark_edits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete bookmark edit %d: %w", id, err)
	}
	return nil
}
