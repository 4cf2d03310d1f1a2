package remote

import "context"

// Service is the remote bookmarking API as consumed by the sync engine.
type Service interface {
	ListFolders(ctx context.Context) ([]Folder, error)
	AddFolder(ctx context.Context, title string) (*Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error

	ListBookmarks(ctx context.Context, opts ListOptions) (*BookmarkList, error)
	AddBookmark(ctx context.Context, url, title string) (*Bookmark, error)
	MoveBookmark(ctx context.Context, bookmarkID int64, destination string) error
	StarBookmark(ctx context.Context, bookmarkID int64) error
	UnstarBookmark(ctx context.Context, bookmarkID int64) error
	UpdateReadProgress(ctx context.Context, update ProgressUpdate) (*Bookmark, error)
	DeleteBookmark(ctx context.Context, bookmarkID int64) error
}
