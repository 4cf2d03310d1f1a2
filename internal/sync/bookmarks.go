package sync

import (
	"context"
	"errors"
	"fmt"

	"marginalia/internal/remote"
	"marginalia/internal/store"
)

// syncBookmarks reconciles bookmarks folder by folder: the priority
// folder (or Unread) first, then the rest. A failed listing aborts only
// that folder's scope; the remaining scopes still run and the failures
// are joined into the returned error.
func (s *Syncer) syncBookmarks(ctx context.Context, opts Options) error {
	s.status.Notify(Status{Operation: StatusBookmarksStart})
	defer s.status.Notify(Status{Operation: StatusBookmarksEnd})

	// Every remote bookmark id observed during this run. The orphan
	// sweep only deletes what none of the scopes accounted for.
	seen := make(map[int64]bool)

	var folders []store.Folder
	if opts.SingleFolder {
		folder, err := s.singleFolderScope(ctx, opts.Folder)
		if err != nil {
			return err
		}
		folders = []store.Folder{*folder}
	} else {
		if err := s.pushBookmarkAdds(ctx); err != nil {
			return err
		}
		ordered, err := s.orderedFolderScopes(ctx, opts.Folder)
		if err != nil {
			return err
		}
		folders = ordered
	}

	remoteIDs, err := s.remoteFolderIDs(ctx, opts, folders)
	if err != nil {
		return err
	}

	var errs []error
	for i := range folders {
		folder := &folders[i]
		switch folder.FolderID {
		case store.FolderIDLiked, store.FolderIDOrphaned:
			// Liked is a filtered view, Orphaned is local quarantine;
			// neither is a remote scope.
			continue
		}
		if !store.IsDefaultFolderID(folder.FolderID) && !remoteIDs[folder.FolderID] {
			// Deleted remotely, or not pushed yet. Give up on this
			// scope for now.
			continue
		}

		s.status.Notify(Status{Operation: StatusFolder, Title: folder.Title})
		if err := s.syncBookmarksForFolder(ctx, folder, seen); err != nil {
			errs = append(errs, fmt.Errorf("folder %q: %w", folder.Title, err))
		}
	}

	if err := s.syncLikes(ctx, seen); err != nil {
		errs = append(errs, err)
	}

	if !opts.SkipOrphanCleanup && !opts.SingleFolder {
		if err := s.sweepOrphans(ctx, seen); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// singleFolderScope resolves the one folder a restricted sync covers,
// pushing its pending add first if it has never been synced.
func (s *Syncer) singleFolderScope(ctx context.Context, folderDBID int64) (*store.Folder, error) {
	folder, err := s.store.GetFolderByDBID(ctx, folderDBID)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, store.ErrFolderNotFound
	}
	if folder.Synced() {
		return folder, nil
	}

	edits, err := s.store.GetPendingFolderEdits(ctx)
	if err != nil {
		return nil, err
	}
	for _, edit := range edits {
		if edit.FolderDBID != folderDBID || edit.Kind != store.FolderEditAdd {
			continue
		}
		if err := s.pushFolderAdd(ctx, edit); err != nil {
			return nil, err
		}
		if err := s.store.DeletePendingFolderEdit(ctx, edit.ID); err != nil {
			return nil, err
		}
		return s.store.GetFolderByDBID(ctx, folderDBID)
	}
	return nil, fmt.Errorf("folder %d has no remote id and no pending add to push", folderDBID)
}

// orderedFolderScopes lists folders with the priority folder first.
// Absent an explicit priority the Unread folder leads.
func (s *Syncer) orderedFolderScopes(ctx context.Context, priorityDBID int64) ([]store.Folder, error) {
	all, err := s.store.ListCurrentFolders(ctx)
	if err != nil {
		return nil, err
	}
	if priorityDBID == 0 {
		priorityDBID = s.store.CommonFolderDBIDs.Unread
	}

	ordered := make([]store.Folder, 0, len(all))
	for _, f := range all {
		if f.ID == priorityDBID {
			ordered = append(ordered, f)
			break
		}
	}
	for _, f := range all {
		if f.ID != priorityDBID {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// remoteFolderIDs is the set of folder ids known to exist remotely. When
// the folder stage just ran, the local synced folders already mirror the
// service and a second listing is pointless.
func (s *Syncer) remoteFolderIDs(ctx context.Context, opts Options, folders []store.Folder) (map[string]bool, error) {
	ids := make(map[string]bool)
	if opts.Folders {
		for _, f := range folders {
			if f.Synced() {
				ids[f.FolderID] = true
			}
		}
		return ids, nil
	}

	remoteFolders, err := s.svc.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync bookmarks: %w", err)
	}
	for _, rf := range remoteFolders {
		ids[rf.FolderID] = true
	}
	return ids, nil
}

// pushBookmarkAdds pushes pending URL captures. The service deduplicates
// by URL, so a capture of an already-saved URL adopts the existing
// remote bookmark rather than creating another.
func (s *Syncer) pushBookmarkAdds(ctx context.Context) error {
	edits, err := s.store.GetPendingBookmarkEdits(ctx, 0)
	if err != nil {
		return err
	}
	for _, add := range edits.Adds {
		_, err := s.svc.AddBookmark(ctx, add.URL, add.Title)
		s.logPushFailure("bookmark add", err)
		if err := s.store.DeletePendingBookmarkEdit(ctx, add.ID); err != nil {
			return err
		}
	}
	return nil
}

// syncBookmarksForFolder pushes this scope's pending edits, pulls up to
// the folder's limit of remote bookmarks, and quarantines local
// bookmarks the pull did not account for.
func (s *Syncer) syncBookmarksForFolder(ctx context.Context, folder *store.Folder, seen map[int64]bool) error {
	edits, err := s.store.GetPendingBookmarkEdits(ctx, folder.ID)
	if err != nil {
		return err
	}

	for _, move := range edits.Moves {
		dest, err := s.store.GetFolderByDBID(ctx, move.DestinationFolderDBID)
		if err != nil {
			return err
		}
		if dest != nil && dest.Synced() {
			s.logPushFailure("bookmark move",
				s.svc.MoveBookmark(ctx, move.BookmarkID, dest.FolderID))
		}
		if err := s.store.DeletePendingBookmarkEdit(ctx, move.ID); err != nil {
			return err
		}
	}

	for _, del := range edits.Deletes {
		s.logPushFailure("bookmark delete", s.svc.DeleteBookmark(ctx, del.BookmarkID))
		if err := s.store.DeletePendingBookmarkEdit(ctx, del.ID); err != nil {
			return err
		}
	}

	for _, like := range edits.Likes {
		s.logPushFailure("bookmark star", s.svc.StarBookmark(ctx, like.BookmarkID))
		if err := s.store.DeletePendingBookmarkEdit(ctx, like.ID); err != nil {
			return err
		}
	}

	for _, unlike := range edits.Unlikes {
		s.logPushFailure("bookmark unstar", s.svc.UnstarBookmark(ctx, unlike.BookmarkID))
		if err := s.store.DeletePendingBookmarkEdit(ctx, unlike.ID); err != nil {
			return err
		}
	}

	list, err := s.svc.ListBookmarks(ctx, remote.ListOptions{
		FolderID: folder.FolderID,
		Limit:    s.limitFor(folder.FolderID),
	})
	if err != nil {
		return err
	}

	inPage := make(map[int64]bool, len(list.Bookmarks))
	for i := range list.Bookmarks {
		rb := &list.Bookmarks[i]
		seen[rb.BookmarkID] = true
		inPage[rb.BookmarkID] = true
		if err := s.applyRemoteBookmark(ctx, folder, rb); err != nil {
			return err
		}
	}

	// Local bookmarks attributed to this folder that the page did not
	// mention go to quarantine; the sweep decides their fate once every
	// scope has reported in.
	locals, err := s.store.ListCurrentBookmarks(ctx, folder.ID)
	if err != nil {
		return err
	}
	for _, lb := range locals {
		if inPage[lb.ID] {
			continue
		}
		if _, err := s.store.MoveBookmark(ctx, lb.ID, s.store.CommonFolderDBIDs.Orphaned, true); err != nil {
			return err
		}
	}
	return nil
}

// applyRemoteBookmark merges one pulled bookmark into the store. Remote
// values win except for fields with an outstanding local edit, and
// except for reading progress that is newer locally, which is pushed
// back instead.
func (s *Syncer) applyRemoteBookmark(ctx context.Context, folder *store.Folder, rb *remote.Bookmark) error {
	local, err := s.store.GetBookmarkByID(ctx, rb.BookmarkID)
	if err != nil {
		return err
	}
	if local == nil {
		_, err := s.store.AddBookmark(ctx, store.Bookmark{
			ID:                rb.BookmarkID,
			FolderID:          folder.FolderID,
			FolderDBID:        folder.ID,
			Title:             rb.Title,
			URL:               rb.URL,
			Description:       rb.Description,
			Starred:           rb.Starred,
			Progress:          rb.Progress,
			ProgressTimestamp: rb.ProgressTimestamp,
			Hash:              rb.Hash,
		})
		return err
	}

	pending, err := s.store.GetPendingEditsForBookmark(ctx, rb.BookmarkID)
	if err != nil {
		return err
	}
	var pendingMove, pendingLikeState bool
	for _, e := range pending {
		switch e.Kind {
		case store.BookmarkEditMove:
			pendingMove = true
		case store.BookmarkEditLike, store.BookmarkEditUnlike:
			pendingLikeState = true
		}
	}

	if local.FolderDBID != folder.ID && !pendingMove {
		local, err = s.store.MoveBookmark(ctx, rb.BookmarkID, folder.ID, true)
		if err != nil {
			return err
		}
	}

	local.Title = rb.Title
	local.URL = rb.URL
	local.Description = rb.Description
	if !pendingLikeState {
		local.Starred = rb.Starred
	}

	if local.Hash != rb.Hash && local.ProgressTimestamp > rb.ProgressTimestamp {
		// Progress changed here since the last sync; push it rather
		// than letting the stale remote value clobber it.
		updated, err := s.svc.UpdateReadProgress(ctx, remote.ProgressUpdate{
			BookmarkID:        local.ID,
			Progress:          local.Progress,
			ProgressTimestamp: local.ProgressTimestamp,
		})
		if err != nil {
			s.logPushFailure("progress update", err)
		} else {
			local.Hash = updated.Hash
		}
	} else {
		local.Progress = rb.Progress
		local.ProgressTimestamp = rb.ProgressTimestamp
		local.Hash = rb.Hash
	}

	return s.store.UpdateBookmark(ctx, local, false)
}

// syncLikes pushes any like edits left over from skipped scopes, then
// pulls the remote starred listing and applies it locally without
// touching the outbox.
func (s *Syncer) syncLikes(ctx context.Context, seen map[int64]bool) error {
	edits, err := s.store.GetPendingBookmarkEdits(ctx, 0)
	if err != nil {
		return err
	}
	for _, like := range edits.Likes {
		s.logPushFailure("bookmark star", s.svc.StarBookmark(ctx, like.BookmarkID))
		if err := s.store.DeletePendingBookmarkEdit(ctx, like.ID); err != nil {
			return err
		}
	}
	for _, unlike := range edits.Unlikes {
		s.logPushFailure("bookmark unstar", s.svc.UnstarBookmark(ctx, unlike.BookmarkID))
		if err := s.store.DeletePendingBookmarkEdit(ctx, unlike.ID); err != nil {
			return err
		}
	}

	list, err := s.svc.ListBookmarks(ctx, remote.ListOptions{
		FolderID: store.FolderIDLiked,
		Limit:    s.limitFor(store.FolderIDLiked),
	})
	if err != nil {
		return fmt.Errorf("sync likes: %w", err)
	}

	for _, rb := range list.Bookmarks {
		seen[rb.BookmarkID] = true
		if _, err := s.store.LikeBookmark(ctx, rb.BookmarkID, true, true); err != nil {
			return err
		}
	}
	return nil
}

// sweepOrphans deletes quarantined bookmarks that no scope of this run
// observed remotely. They exist nowhere but here, so nothing is lost.
func (s *Syncer) sweepOrphans(ctx context.Context, seen map[int64]bool) error {
	orphans, err := s.store.ListCurrentBookmarks(ctx, s.store.CommonFolderDBIDs.Orphaned)
	if err != nil {
		return err
	}
	for _, orphan := range orphans {
		if seen[orphan.ID] {
			continue
		}
		if err := s.store.RemoveBookmark(ctx, orphan.ID, true); err != nil {
			return err
		}
	}
	return nil
}
