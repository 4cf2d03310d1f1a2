package store

// Reserved remote identifiers for the four folders that always exist
// locally. They are wire-visible constants and are never pushed to or
// deleted from the service.
const (
	FolderIDUnread   = "unread"
	FolderIDLiked    = "starred"
	FolderIDArchive  = "archive"
	FolderIDOrphaned = "orphaned"
)

// IsDefaultFolderID reports whether id names one of the reserved folders.
func IsDefaultFolderID(id string) bool {
	switch id {
	case FolderIDUnread, FolderIDLiked, FolderIDArchive, FolderIDOrphaned:
		return true
	}
	return false
}

// Folder is a locally stored folder. ID is the local surrogate key;
// FolderID is the remote identifier and stays empty until the folder has
// been synced (or holds one of the reserved identifiers above).
type Folder struct {
	ID        int64
	FolderID  string
	Title     string
	LocalOnly bool
}

// Synced reports whether the folder has a remote identity.
func (f *Folder) Synced() bool {
	return f.FolderID != ""
}

// Bookmark is a locally stored bookmark. ID is the remote bookmark id
// once known; locally fabricated ids are possible until a sync confirms
// them. FolderDBID is always set; FolderID may be empty while the
// containing folder is unsynced.
type Bookmark struct {
	ID                int64
	FolderID          string
	FolderDBID        int64
	Title             string
	URL               string
	Starred           bool
	Progress          float64
	ProgressTimestamp int64
	Hash              string
	Description       string
	ContentAvailable  bool
}

// FolderEditKind is the type of a pending folder edit.
type FolderEditKind string

const (
	FolderEditAdd    FolderEditKind = "add"
	FolderEditDelete FolderEditKind = "delete"
)

// BookmarkEditKind is the type of a pending bookmark edit.
type BookmarkEditKind string

const (
	BookmarkEditAdd    BookmarkEditKind = "add"
	BookmarkEditDelete BookmarkEditKind = "delete"
	BookmarkEditMove   BookmarkEditKind = "move"
	BookmarkEditLike   BookmarkEditKind = "star"
	BookmarkEditUnlike BookmarkEditKind = "unstar"
)

// PendingFolderEdit is an outbox row for a folder mutation that has not
// been confirmed against the service. For deletes, RemovedFolderID
// remembers the folder's remote identity at deletion time.
type PendingFolderEdit struct {
	ID              int64
	Kind            FolderEditKind
	FolderDBID      int64
	Title           string
	RemovedFolderID string
}

// PendingBookmarkEdit is an outbox row for a bookmark mutation. URL and
// Title are only populated for adds; DestinationFolderDBID only for moves.
type PendingBookmarkEdit struct {
	ID                    int64
	Kind                  BookmarkEditKind
	BookmarkID            int64
	SourceFolderDBID      int64
	DestinationFolderDBID int64
	URL                   string
	Title                 string
}

// PendingBookmarkEdits buckets outbox rows by kind. Kinds with no rows
// are left nil.
type PendingBookmarkEdits struct {
	Adds    []PendingBookmarkEdit
	Deletes []PendingBookmarkEdit
	Moves   []PendingBookmarkEdit
	Likes   []PendingBookmarkEdit
	Unlikes []PendingBookmarkEdit
}

// Empty reports whether no pending edits are present in any bucket.
func (p PendingBookmarkEdits) Empty() bool {
	return len(p.Adds) == 0 && len(p.Deletes) == 0 && len(p.Moves) == 0 &&
		len(p.Likes) == 0 && len(p.Unlikes) == 0
}

// ChangeKind identifies the operation carried by a change notification.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
	ChangeMove   ChangeKind = "move"
	ChangeLike   ChangeKind = "star"
	ChangeUnlike ChangeKind = "unstar"
)

// FolderChange is the payload of a folders-changed notification. Folder
// is nil for deletes.
type FolderChange struct {
	Operation  ChangeKind
	FolderDBID int64
	Folder     *Folder
}

// BookmarkChange is the payload of a bookmarks-changed notification.
// Bookmark is nil for deletes.
type BookmarkChange struct {
	Operation             ChangeKind
	BookmarkID            int64
	Bookmark              *Bookmark
	SourceFolderDBID      int64
	DestinationFolderDBID int64
}
