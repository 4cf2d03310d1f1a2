package remote

// Folder is a folder as the service reports it.
type Folder struct {
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
}

// Bookmark is a bookmark as the service reports it. Hash is an opaque
// change token; clients detect remote changes by comparing it, not by
// inspecting fields.
type Bookmark struct {
	BookmarkID        int64   `json:"bookmark_id"`
	FolderID          string  `json:"folder_id"`
	Title             string  `json:"title"`
	URL               string  `json:"url"`
	Description       string  `json:"description"`
	Starred           bool    `json:"starred"`
	Progress          float64 `json:"progress"`
	ProgressTimestamp int64   `json:"progress_timestamp"`
	Hash              string  `json:"hash"`
}

// BookmarkList is the response of the bookmark listing endpoint.
type BookmarkList struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

// ListOptions scope a bookmark listing. Limit zero means the service
// default.
type ListOptions struct {
	FolderID string `json:"folder_id"`
	Limit    int    `json:"limit,omitempty"`
}

// ProgressUpdate pushes reading progress for one bookmark.
type ProgressUpdate struct {
	BookmarkID        int64   `json:"bookmark_id"`
	Progress          float64 `json:"progress"`
	ProgressTimestamp int64   `json:"progress_timestamp"`
}
