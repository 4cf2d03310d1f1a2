package store

import (
	"context"
	"errors"
	"testing"
)

func TestAddFolderPendsAdd(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	folder, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if folder.ID == 0 {
		t.Error("Expected a local id to be assigned")
	}
	if folder.Synced() {
		t.Errorf("Expected no remote id yet, got %q", folder.FolderID)
	}

	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("Expected 1 pending edit, got %d", len(edits))
	}
	if edits[0].Kind != FolderEditAdd || edits[0].FolderDBID != folder.ID || edits[0].Title != "Essays" {
		t.Errorf("Unexpected pending edit %+v", edits[0])
	}
}

func TestAddFolderSkipOutbox(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AddFolder(ctx, Folder{FolderID: "rf-9", Title: "Essays"}, true); err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 0 {
		t.Errorf("Expected no pending edits, got %+v", edits)
	}
}

func TestAddFolderDuplicateTitle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false); err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	_, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false)
	if !errors.Is(err, ErrDuplicateFolderTitle) {
		t.Fatalf("Expected ErrDuplicateFolderTitle, got %v", err)
	}

	// The failed call must not leave a second outbox row behind.
	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 1 {
		t.Errorf("Expected 1 pending edit, got %d", len(edits))
	}
}

func TestAddFolderDuplicatesDefaultTitle(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AddFolder(context.Background(), Folder{Title: "Archive"}, false); !errors.Is(err, ErrDuplicateFolderTitle) {
		t.Errorf("Expected ErrDuplicateFolderTitle against a default folder, got %v", err)
	}
}

func TestAddFolderResurrectsPendingDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	folder, err := s.AddFolder(ctx, Folder{FolderID: "rf-42", Title: "Essays"}, true)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if err := s.RemoveFolder(ctx, folder.ID, false); err != nil {
		t.Fatalf("RemoveFolder failed: %v", err)
	}

	restored, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false)
	if err != nil {
		t.Fatalf("AddFolder (resurrect) failed: %v", err)
	}
	if restored.FolderID != "rf-42" {
		t.Errorf("Expected remote id rf-42 restored, got %q", restored.FolderID)
	}

	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 0 {
		t.Errorf("Expected zero pending edits after resurrection, got %+v", edits)
	}
}

func TestRemoveFolderCancelsPendingAdd(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	folder, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if err := s.RemoveFolder(ctx, folder.ID, false); err != nil {
		t.Fatalf("RemoveFolder failed: %v", err)
	}

	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 0 {
		t.Errorf("Expected the pending add cancelled, got %+v", edits)
	}

	if f, _ := s.GetFolderByDBID(ctx, folder.ID); f != nil {
		t.Errorf("Expected folder removed, got %+v", f)
	}
}

func TestRemoveFolderPendsDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	folder, err := s.AddFolder(ctx, Folder{FolderID: "rf-7", Title: "Essays"}, true)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	if err := s.RemoveFolder(ctx, folder.ID, false); err != nil {
		t.Fatalf("RemoveFolder failed: %v", err)
	}

	edits, err := s.GetPendingFolderEdits(ctx)
	if err != nil {
		t.Fatalf("GetPendingFolderEdits failed: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("Expected 1 pending delete, got %d", len(edits))
	}
	edit := edits[0]
	if edit.Kind != FolderEditDelete || edit.RemovedFolderID != "rf-7" || edit.Title != "Essays" {
		t.Errorf("Unexpected pending delete %+v", edit)
	}
}

func TestRemoveFolderMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RemoveFolder(ctx, 9999, false); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("Expected ErrFolderNotFound, got %v", err)
	}
	// Server-originated removals of already-gone folders are a no-op.
	if err := s.RemoveFolder(ctx, 9999, true); err != nil {
		t.Errorf("Expected nil for skipOutbox removal of a missing folder, got %v", err)
	}
}

func TestGetFolderByFolderID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f, err := s.GetFolderByFolderID(ctx, FolderIDArchive)
	if err != nil {
		t.Fatalf("GetFolderByFolderID failed: %v", err)
	}
	if f == nil || f.Title != "Archive" {
		t.Errorf("Expected the Archive folder, got %+v", f)
	}

	missing, err := s.GetFolderByFolderID(ctx, "rf-nope")
	if err != nil {
		t.Fatalf("GetFolderByFolderID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for an unknown remote id, got %+v", missing)
	}
}

func TestFolderChangeNotifications(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ops []ChangeKind
	s.FoldersChanged().Subscribe(func(c FolderChange) {
		ops = append(ops, c.Operation)
	})

	folder, err := s.AddFolder(ctx, Folder{Title: "Essays"}, false)
	if err != nil {
		t.Fatalf("AddFolder failed: %v", err)
	}
	folder.Title = "Long reads"
	if err := s.UpdateFolder(ctx, folder); err != nil {
		t.Fatalf("UpdateFolder failed: %v", err)
	}
	if err := s.RemoveFolder(ctx, folder.ID, false); err != nil {
		t.Fatalf("RemoveFolder failed: %v", err)
	}

	want := []ChangeKind{ChangeAdd, ChangeUpdate, ChangeDelete}
	if len(ops) != len(want) {
		t.Fatalf("Expected %d notifications, got %v", len(want), ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("Notification %d: expected %s, got %s", i, want[i], ops[i])
		}
	}
}
