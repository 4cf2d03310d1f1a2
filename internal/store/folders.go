package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(r rowScanner) (*Folder, error) {
	var f Folder
	var localOnly int
	if err := r.Scan(&f.ID, &f.FolderID, &f.Title, &localOnly); err != nil {
		return nil, err
	}
	f.LocalOnly = localOnly != 0
	return &f, nil
}

const folderColumns = `id, folder_id, title, local_only`

// withTx runs fn inside a transaction, rolling back on error. Mutators
// use it so a failed call never leaves the outbox half-written.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListCurrentFolders returns a snapshot of all folders. The result is
// not a live collection.
func (s *Store) ListCurrentFolders(ctx context.Context) ([]Folder, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

// GetFolderByDBID looks a folder up by its local id. Returns (nil, nil)
// when absent.
func (s *Store) GetFolderByDBID(ctx context.Context, folderDBID int64) (*Folder, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	f, err := scanFolder(s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ?`, folderDBID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder %d: %w", folderDBID, err)
	}
	return f, nil
}

// GetFolderByFolderID looks a folder up by its remote identifier.
// Returns (nil, nil) when absent.
func (s *Store) GetFolderByFolderID(ctx context.Context, folderID string) (*Folder, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	f, err := scanFolder(s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE folder_id = ? LIMIT 1`, folderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get folder %q: %w", folderID, err)
	}
	return f, nil
}

// AddFolder adds a folder. A folder whose title matches a pending delete
// is resurrected with its remembered remote identity and the pending
// delete is dropped, leaving nothing to sync. Otherwise the folder is
// inserted and, unless skipOutbox, a pending add is recorded.
func (s *Store) AddFolder(ctx context.Context, folder Folder, skipOutbox bool) (*Folder, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	var added *Folder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM folders WHERE title = ?`, folder.Title).Scan(&count); err != nil {
			return fmt.Errorf("check folder title: %w", err)
		}
		if count > 0 {
			return ErrDuplicateFolderTitle
		}

		// A pending delete with the same title means the caller is
		// bringing the folder back; restore its old remote identity
		// instead of pending a fresh add.
		var pendingID int64
		var removedFolderID string
		resurrecting := true
		err := tx.QueryRowContext(ctx,
			`SELECT id, removed_folder_id FROM folder_edits WHERE title = ? AND kind = ? LIMIT 1`,
			folder.Title, string(FolderEditDelete)).Scan(&pendingID, &removedFolderID)
		if errors.Is(err, sql.ErrNoRows) {
			resurrecting = false
		} else if err != nil {
			return fmt.Errorf("check pending folder delete: %w", err)
		}

		toInsert := folder
		if resurrecting {
			toInsert.FolderID = removedFolderID
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM folder_edits WHERE id = ?`, pendingID); err != nil {
				return fmt.Errorf("drop pending folder delete: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO folders (folder_id, title, local_only) VALUES (?, ?, ?)`,
			toInsert.FolderID, toInsert.Title, boolToInt(toInsert.LocalOnly))
		if err != nil {
			return fmt.Errorf("insert folder: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("folder id: %w", err)
		}
		toInsert.ID = id
		added = &toInsert

		if !skipOutbox && !resurrecting {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO folder_edits (kind, folder_dbid, title) VALUES (?, ?, ?)`,
				string(FolderEditAdd), id, toInsert.Title)
			if err != nil {
				return fmt.Errorf("pend folder add: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.foldersChanged.Notify(FolderChange{
		Operation:  ChangeAdd,
		FolderDBID: added.ID,
		Folder:     added,
	})
	return added, nil
}

// UpdateFolder overwrites the folder row. Field updates are not tracked
// in the outbox; only adds and deletes are.
func (s *Store) UpdateFolder(ctx context.Context, folder *Folder) error {
	if err := s.checkDB(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE folders SET folder_id = ?, title = ?, local_only = ? WHERE id = ?`,
		folder.FolderID, folder.Title, boolToInt(folder.LocalOnly), folder.ID)
	if err != nil {
		return fmt.Errorf("update folder %d: %w", folder.ID, err)
	}

	s.foldersChanged.Notify(FolderChange{
		Operation:  ChangeUpdate,
		FolderDBID: folder.ID,
		Folder:     folder,
	})
	return nil
}

// RemoveFolder deletes a folder. A folder whose add was never synced has
// its pending add cancelled instead of pending a delete; otherwise,
// unless skipOutbox, a pending delete remembering the folder's remote
// identity is recorded.
func (s *Store) RemoveFolder(ctx context.Context, folderDBID int64, skipOutbox bool) error {
	if err := s.checkDB(); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		removed, err := scanFolder(tx.QueryRowContext(ctx,
			`SELECT `+folderColumns+` FROM folders WHERE id = ?`, folderDBID))
		if errors.Is(err, sql.ErrNoRows) {
			if skipOutbox {
				return nil
			}
			return ErrFolderNotFound
		}
		if err != nil {
			return fmt.Errorf("get folder %d: %w", folderDBID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM folders WHERE id = ?`, folderDBID); err != nil {
			return fmt.Errorf("delete folder %d: %w", folderDBID, err)
		}

		// An unsynced add just gets cancelled.
		res, err := tx.ExecContext(ctx,
			`DELETE FROM folder_edits WHERE folder_dbid = ?`, folderDBID)
		if err != nil {
			return fmt.Errorf("drop pending folder edits: %w", err)
		}
		cancelled, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("drop pending folder edits: %w", err)
		}

		if !skipOutbox && cancelled == 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO folder_edits (kind, folder_dbid, title, removed_folder_id) VALUES (?, ?, ?, ?)`,
				string(FolderEditDelete), folderDBID, removed.Title, removed.FolderID)
			if err != nil {
				return fmt.Errorf("pend folder delete: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.foldersChanged.Notify(FolderChange{
		Operation:  ChangeDelete,
		FolderDBID: folderDBID,
	})
	return nil
}

// GetPendingFolderEdits returns all folder outbox rows.
func (s *Store) GetPendingFolderEdits(ctx context.Context) ([]PendingFolderEdit, error) {
	if err := s.checkDB(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, folder_dbid, title, removed_folder_id FROM folder_edits ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list folder edits: %w", err)
	}
	defer rows.Close()

	var edits []PendingFolderEdit
	for rows.Next() {
		var e PendingFolderEdit
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.FolderDBID, &e.Title, &e.RemovedFolderID); err != nil {
			return nil, fmt.Errorf("scan folder edit: %w", err)
		}
		e.Kind = FolderEditKind(kind)
		edits = append(edits, e)
	}
	return edits, rows.Err()
}

// DeletePendingFolderEdit removes one folder outbox row.
func (s *Store) DeletePendingFolderEdit(ctx context.Context, id int64) error {
	if err := s.checkDB(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM folder_edits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete folder edit %d: %w", id, err)
	}
	return nil
}
