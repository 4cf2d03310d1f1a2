package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replica.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesDefaultFolders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	folders, err := s.ListCurrentFolders(ctx)
	if err != nil {
		t.Fatalf("ListCurrentFolders failed: %v", err)
	}
	if len(folders) != 4 {
		t.Fatalf("Expected 4 default folders, got %d", len(folders))
	}

	wantIDs := map[string]bool{
		FolderIDUnread:   false,
		FolderIDLiked:    false,
		FolderIDArchive:  false,
		FolderIDOrphaned: false,
	}
	for _, f := range folders {
		if _, ok := wantIDs[f.FolderID]; !ok {
			t.Errorf("Unexpected folder id %q", f.FolderID)
			continue
		}
		wantIDs[f.FolderID] = true
	}
	for id, found := range wantIDs {
		if !found {
			t.Errorf("Default folder %q missing", id)
		}
	}

	ids := s.CommonFolderDBIDs
	if ids.Unread == 0 || ids.Liked == 0 || ids.Archive == 0 || ids.Orphaned == 0 {
		t.Errorf("Expected all common folder ids resolved, got %+v", ids)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false); err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	folders, err := s.ListCurrentFolders(ctx)
	if err != nil {
		t.Fatalf("ListCurrentFolders failed: %v", err)
	}
	if len(folders) != 5 {
		t.Errorf("Expected 4 defaults plus 1 user folder after reopen, got %d", len(folders))
	}
}

func TestOperationsFailWhenClosed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := s.ListCurrentFolders(ctx); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("ListCurrentFolders: expected ErrNoDatabase, got %v", err)
	}
	if _, err := s.AddFolder(ctx, Folder{Title: "X"}, false); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("AddFolder: expected ErrNoDatabase, got %v", err)
	}
	if _, err := s.ListCurrentBookmarks(ctx, 0); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("ListCurrentBookmarks: expected ErrNoDatabase, got %v", err)
	}
	if err := s.RemoveBookmark(ctx, 1, false); !errors.Is(err, ErrNoDatabase) {
		t.Errorf("RemoveBookmark: expected ErrNoDatabase, got %v", err)
	}
}

func TestDeleteAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replica.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := s.DeleteAllData(); err != nil {
		t.Fatalf("DeleteAllData failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected database file removed, stat returned %v", err)
	}
}
