package sync

import (
	"context"
	"fmt"
	"net/http"

	"marginalia/internal/remote"
)

// fakeService is an in-memory remote.Service with the same error
// surface as the real client. Tests seed its state directly and inject
// failures per operation.
type fakeService struct {
	folders   []remote.Folder
	bookmarks []remote.Bookmark

	nextFolderSeq   int
	nextBookmarkSeq int64

	listFoldersErr   error
	listBookmarksErr map[string]error
	starErr          map[int64]error
	deleteErr        map[int64]error

	calls []string
}

func newFakeService() *fakeService {
	return &fakeService{
		nextFolderSeq:    1,
		nextBookmarkSeq:  1000,
		listBookmarksErr: map[string]error{},
		starErr:          map[int64]error{},
		deleteErr:        map[int64]error{},
	}
}

func apiError(code int) error {
	return &remote.APIError{StatusCode: http.StatusBadRequest, Code: code, Message: "fake"}
}

func (f *fakeService) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeService) addRemoteFolder(title string) remote.Folder {
	rf := remote.Folder{FolderID: fmt.Sprintf("rf-%d", f.nextFolderSeq), Title: title}
	f.nextFolderSeq++
	f.folders = append(f.folders, rf)
	return rf
}

func (f *fakeService) addRemoteBookmark(b remote.Bookmark) remote.Bookmark {
	if b.BookmarkID == 0 {
		b.BookmarkID = f.nextBookmarkSeq
		f.nextBookmarkSeq++
	}
	if b.Hash == "" {
		b.Hash = fmt.Sprintf("h-%d", b.BookmarkID)
	}
	f.bookmarks = append(f.bookmarks, b)
	return b
}

func (f *fakeService) findBookmark(id int64) *remote.Bookmark {
	for i := range f.bookmarks {
		if f.bookmarks[i].BookmarkID == id {
			return &f.bookmarks[i]
		}
	}
	return nil
}

func (f *fakeService) ListFolders(_ context.Context) ([]remote.Folder, error) {
	f.record("ListFolders")
	if f.listFoldersErr != nil {
		return nil, f.listFoldersErr
	}
	out := make([]remote.Folder, len(f.folders))
	copy(out, f.folders)
	return out, nil
}

func (f *fakeService) AddFolder(_ context.Context, title string) (*remote.Folder, error) {
	f.record("AddFolder(%s)", title)
	for _, rf := range f.folders {
		if rf.Title == title {
			return nil, apiError(remote.CodeDuplicateFolder)
		}
	}
	rf := f.addRemoteFolder(title)
	return &rf, nil
}

func (f *fakeService) DeleteFolder(_ context.Context, folderID string) error {
	f.record("DeleteFolder(%s)", folderID)
	for i, rf := range f.folders {
		if rf.FolderID == folderID {
			f.folders = append(f.folders[:i], f.folders[i+1:]...)
			return nil
		}
	}
	return apiError(remote.CodeUnknownFolder)
}

func (f *fakeService) ListBookmarks(_ context.Context, opts remote.ListOptions) (*remote.BookmarkList, error) {
	f.record("ListBookmarks(%s, %d)", opts.FolderID, opts.Limit)
	if err := f.listBookmarksErr[opts.FolderID]; err != nil {
		return nil, err
	}

	var list remote.BookmarkList
	for _, b := range f.bookmarks {
		if opts.FolderID == "starred" {
			if !b.Starred {
				continue
			}
		} else if b.FolderID != opts.FolderID {
			continue
		}
		list.Bookmarks = append(list.Bookmarks, b)
		if opts.Limit > 0 && len(list.Bookmarks) == opts.Limit {
			break
		}
	}
	return &list, nil
}

func (f *fakeService) AddBookmark(_ context.Context, url, title string) (*remote.Bookmark, error) {
	f.record("AddBookmark(%s)", url)
	for _, b := range f.bookmarks {
		if b.URL == url {
			return &b, nil
		}
	}
	b := f.addRemoteBookmark(remote.Bookmark{FolderID: "unread", URL: url, Title: title})
	return &b, nil
}

func (f *fakeService) MoveBookmark(_ context.Context, bookmarkID int64, destination string) error {
	f.record("MoveBookmark(%d, %s)", bookmarkID, destination)
	b := f.findBookmark(bookmarkID)
	if b == nil {
		return apiError(remote.CodeUnknownBookmark)
	}
	b.FolderID = destination
	return nil
}

func (f *fakeService) StarBookmark(_ context.Context, bookmarkID int64) error {
	f.record("StarBookmark(%d)", bookmarkID)
	if err := f.starErr[bookmarkID]; err != nil {
		return err
	}
	b := f.findBookmark(bookmarkID)
	if b == nil {
		return apiError(remote.CodeUnknownBookmark)
	}
	b.Starred = true
	return nil
}

func (f *fakeService) UnstarBookmark(_ context.Context, bookmarkID int64) error {
	f.record("UnstarBookmark(%d)", bookmarkID)
	b := f.findBookmark(bookmarkID)
	if b == nil {
		return apiError(remote.CodeUnknownBookmark)
	}
	b.Starred = false
	return nil
}

func (f *fakeService) UpdateReadProgress(_ context.Context, update remote.ProgressUpdate) (*remote.Bookmark, error) {
	f.record("UpdateReadProgress(%d)", update.BookmarkID)
	b := f.findBookmark(update.BookmarkID)
	if b == nil {
		return nil, apiError(remote.CodeUnknownBookmark)
	}
	b.Progress = update.Progress
	b.ProgressTimestamp = update.ProgressTimestamp
	b.Hash = fmt.Sprintf("h-%d-%d", update.BookmarkID, update.ProgressTimestamp)
	out := *b
	return &out, nil
}

func (f *fakeService) DeleteBookmark(_ context.Context, bookmarkID int64) error {
	f.record("DeleteBookmark(%d)", bookmarkID)
	if err := f.deleteErr[bookmarkID]; err != nil {
		return err
	}
	for i, b := range f.bookmarks {
		if b.BookmarkID == bookmarkID {
			f.bookmarks = append(f.bookmarks[:i], f.bookmarks[i+1:]...)
			return nil
		}
	}
	return apiError(remote.CodeUnknownBookmark)
}
