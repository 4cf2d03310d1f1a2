// Package sync reconciles the local replica against the remote
// bookmarking service: pending local edits are pushed from the outbox,
// remote state is pulled back in, and bookmarks whose continued
// existence could not be confirmed are quarantined and eventually swept.
package sync

import (
	"context"
	"errors"

	"marginalia/internal/events"
	"marginalia/internal/logger"
	"marginalia/internal/remote"
	"marginalia/internal/store"
)

// ErrNoClientInformation is returned by Sync when the engine has no
// remote service credentials to work with.
var ErrNoClientInformation = errors.New("sync: no remote client information")

// StatusOperation identifies a phase transition of a sync run.
type StatusOperation string

const (
	StatusStart          StatusOperation = "start"
	StatusEnd            StatusOperation = "end"
	StatusFoldersStart   StatusOperation = "foldersStart"
	StatusFoldersEnd     StatusOperation = "foldersEnd"
	StatusFolder         StatusOperation = "folder"
	StatusBookmarksStart StatusOperation = "bookmarksStart"
	StatusBookmarksEnd   StatusOperation = "bookmarksEnd"
)

// Status is the payload of a syncstatusupdate notification. Title is
// set for StatusFolder.
type Status struct {
	Operation StatusOperation
	Title     string
}

// Options select which parts of the replica a Sync call reconciles.
type Options struct {
	// Folders and Bookmarks select the two reconciliation stages.
	Folders   bool
	Bookmarks bool

	// Folder is the local id of a folder to sync first. With
	// SingleFolder set, bookmark sync is restricted to exactly that
	// folder.
	Folder       int64
	SingleFolder bool

	// SkipOrphanCleanup leaves unmatched bookmarks quarantined in the
	// Orphaned folder instead of deleting them at the end of the run.
	SkipOrphanCleanup bool
}

// DefaultOptions syncs both stages.
func DefaultOptions() Options {
	return Options{Folders: true, Bookmarks: true}
}

// Syncer drives push/pull reconciliation between a Store and the remote
// service. A Syncer must not run two Sync calls concurrently against
// the same store, and callers must not mutate a scope while its sync is
// in flight.
type Syncer struct {
	// DefaultBookmarkLimit caps how many bookmarks are pulled per
	// folder absent an override.
	DefaultBookmarkLimit int

	// PerFolderBookmarkLimits overrides the default per remote folder
	// id, the Liked sentinel included.
	PerFolderBookmarkLimits map[string]int

	store  *store.Store
	svc    remote.Service
	log    *logger.Logger
	status events.Source[Status]
}

// New creates a Syncer over st and svc. svc may be nil, in which case
// Sync fails with ErrNoClientInformation.
func New(st *store.Store, svc remote.Service, log *logger.Logger) *Syncer {
	return &Syncer{
		DefaultBookmarkLimit: 10,
		PerFolderBookmarkLimits: map[string]int{
			store.FolderIDUnread: 250,
		},
		store: st,
		svc:   svc,
		log:   log,
	}
}

// StatusUpdates is the notification source for sync phase transitions.
func (s *Syncer) StatusUpdates() *events.Source[Status] {
	return &s.status
}

func (s *Syncer) limitFor(folderID string) int {
	if limit, ok := s.PerFolderBookmarkLimits[folderID]; ok {
		return limit
	}
	return s.DefaultBookmarkLimit
}

// Sync runs one reconciliation pass. Folder reconciliation runs before
// bookmark reconciliation so the folder-id remapping is visible to the
// bookmark scopes. A failed list fetch aborts the affected scope and is
// surfaced in the returned error; individual push failures are logged,
// their outbox rows discarded, and the run continues.
func (s *Syncer) Sync(ctx context.Context, opts Options) error {
	if s.svc == nil {
		return ErrNoClientInformation
	}

	s.status.Notify(Status{Operation: StatusStart})
	defer s.status.Notify(Status{Operation: StatusEnd})

	if opts.Folders {
		if err := s.syncFolders(ctx); err != nil {
			return err
		}
	}

	if opts.Bookmarks {
		return s.syncBookmarks(ctx, opts)
	}
	return nil
}

// logPushFailure records a discarded push. Pushes against bookmarks the
// service never knew about are expected for purely local fabrications
// and are logged at debug only.
func (s *Syncer) logPushFailure(what string, err error) {
	if err == nil {
		return
	}
	if remote.IsUnknownBookmark(err) {
		s.log.Debugf("sync: %s targeted a bookmark unknown to the service: %v", what, err)
		return
	}
	s.log.Warnf("sync: %s failed, discarding the pending edit: %v", what, err)
}
