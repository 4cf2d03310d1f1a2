package store

import "errors"

var (
	// ErrNoDatabase is returned by every operation invoked before Open
	// or after Close.
	ErrNoDatabase = errors.New("store: database is not open")

	// ErrDuplicateFolderTitle is returned by AddFolder when a folder
	// with the same title is currently present.
	ErrDuplicateFolderTitle = errors.New("store: folder with that title already present")

	// ErrFolderNotFound is returned when a folder lookup by local id
	// resolves to nothing.
	ErrFolderNotFound = errors.New("store: folder not found")

	// ErrInvalidDestinationFolder is returned by MoveBookmark when the
	// destination is the Liked view, which is not a physical folder.
	ErrInvalidDestinationFolder = errors.New("store: bookmarks cannot be moved into the liked view")

	// ErrBookmarkNotFound is returned when a bookmark lookup by id
	// resolves to nothing.
	ErrBookmarkNotFound = errors.New("store: bookmark not found")
)
