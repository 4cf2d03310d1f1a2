package sync

import (
	"context"
	"fmt"

	"marginalia/internal/remote"
	"marginalia/internal/store"
)

// syncFolders pushes the folder outbox, then pulls the remote folder
// list and makes the local set mirror it. Default folders are exempt
// throughout. A failed remote listing aborts the stage.
func (s *Syncer) syncFolders(ctx context.Context) error {
	s.status.Notify(Status{Operation: StatusFoldersStart})

	edits, err := s.store.GetPendingFolderEdits(ctx)
	if err != nil {
		return err
	}
	for _, edit := range edits {
		switch edit.Kind {
		case store.FolderEditAdd:
			s.logPushFailure("folder add", s.pushFolderAdd(ctx, edit))
		case store.FolderEditDelete:
			s.logPushFailure("folder delete", s.pushFolderDelete(ctx, edit))
		}
		if err := s.store.DeletePendingFolderEdit(ctx, edit.ID); err != nil {
			return err
		}
	}

	remoteFolders, err := s.svc.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("sync folders: %w", err)
	}

	remoteIDs := make(map[string]bool, len(remoteFolders))
	for _, rf := range remoteFolders {
		remoteIDs[rf.FolderID] = true
		s.status.Notify(Status{Operation: StatusFolder, Title: rf.Title})

		lf, err := s.store.GetFolderByFolderID(ctx, rf.FolderID)
		if err != nil {
			return err
		}
		if lf == nil {
			_, err := s.store.AddFolder(ctx, store.Folder{
				FolderID: rf.FolderID,
				Title:    rf.Title,
			}, true)
			if err != nil {
				return err
			}
			continue
		}
		// The remote title is authoritative.
		if lf.Title != rf.Title {
			lf.Title = rf.Title
			if err := s.store.UpdateFolder(ctx, lf); err != nil {
				return err
			}
		}
	}

	localFolders, err := s.store.ListCurrentFolders(ctx)
	if err != nil {
		return err
	}
	for _, lf := range localFolders {
		if store.IsDefaultFolderID(lf.FolderID) || !lf.Synced() {
			continue
		}
		// A previously synced folder the service no longer lists was
		// deleted remotely; the local removal pends nothing.
		if !remoteIDs[lf.FolderID] {
			if err := s.store.RemoveFolder(ctx, lf.ID, true); err != nil {
				return err
			}
		}
	}

	s.status.Notify(Status{Operation: StatusFoldersEnd})
	return nil
}

// pushFolderAdd creates the folder remotely and stamps the returned
// identity onto the local row. A title collision on the service means
// the folder already exists there, so its identity is adopted instead.
func (s *Syncer) pushFolderAdd(ctx context.Context, edit store.PendingFolderEdit) error {
	local, err := s.store.GetFolderByDBID(ctx, edit.FolderDBID)
	if err != nil {
		return err
	}
	if local == nil {
		// The folder vanished locally after the edit was pended;
		// nothing left to push.
		return nil
	}

	rf, err := s.svc.AddFolder(ctx, edit.Title)
	if remote.IsDuplicateFolder(err) {
		rf, err = s.findRemoteFolderByTitle(ctx, edit.Title)
	}
	if err != nil {
		return err
	}

	local.FolderID = rf.FolderID
	local.Title = rf.Title
	return s.store.UpdateFolder(ctx, local)
}

func (s *Syncer) findRemoteFolderByTitle(ctx context.Context, title string) (*remote.Folder, error) {
	folders, err := s.svc.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range folders {
		if folders[i].Title == title {
			return &folders[i], nil
		}
	}
	return nil, fmt.Errorf("folder %q reported as duplicate but not listed by the service", title)
}

// pushFolderDelete deletes the folder remotely using the identity
// remembered at local deletion time. The folder already being gone is
// fine: the intent was to delete it.
func (s *Syncer) pushFolderDelete(ctx context.Context, edit store.PendingFolderEdit) error {
	if edit.RemovedFolderID == "" {
		// The folder never made it to the service.
		return nil
	}
	err := s.svc.DeleteFolder(ctx, edit.RemovedFolderID)
	if err != nil && remote.IsUnknownFolder(err) {
		return nil
	}
	return err
}
