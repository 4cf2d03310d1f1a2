// Package remote is the HTTP client for the bookmarking service. Only
// the operations the sync engine needs are implemented; the service
// itself is an external collaborator.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Service error codes carried in error response bodies.
const (
	CodeUnknownBookmark = 1241
	CodeUnknownFolder   = 1242
	CodeUnexpected      = 1250
	CodeDuplicateFolder = 1251
)

// APIError represents an error returned by the service.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status: %d, code: %d)", e.Message, e.StatusCode, e.Code)
}

// IsUnknownBookmark reports whether err means the service does not
// recognize the bookmark. Pushes against such bookmarks are tolerated.
func IsUnknownBookmark(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeUnknownBookmark
}

// IsUnknownFolder reports whether err means the folder is already gone
// on the service (or the service failed looking it up).
func IsUnknownFolder(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeUnknownFolder || apiErr.Code == CodeUnexpected
}

// IsDuplicateFolder reports whether err means a folder with that title
// already exists on the service.
func IsDuplicateFolder(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeDuplicateFolder
}

// Client talks to the bookmarking service.
type Client struct {
	BaseURL    *url.URL
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client for the service at baseURL authenticating
// with token.
func NewClient(baseURL, token string) (*Client, error) {
	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	return &Client{
		BaseURL: parsed,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}, nil
}

// doRequest performs a POST with a JSON body and decodes the response
// into v when v is non-nil.
func (c *Client) doRequest(ctx context.Context, path string, body, v any) error {
	reqURL := c.BaseURL.JoinPath(path)

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}

	var body struct {
		Code    int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}

// ListFolders fetches the full remote folder list.
func (c *Client) ListFolders(ctx context.Context) ([]Folder, error) {
	var folders []Folder
	if err := c.doRequest(ctx, "/api/v1/folders/list", nil, &folders); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// AddFolder creates a folder remotely and returns it.
func (c *Client) AddFolder(ctx context.Context, title string) (*Folder, error) {
	var folder Folder
	body := map[string]string{"title": title}
	if err := c.doRequest(ctx, "/api/v1/folders/add", body, &folder); err != nil {
		return nil, fmt.Errorf("failed to add folder: %w", err)
	}
	return &folder, nil
}

// DeleteFolder deletes a folder by its remote identifier.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	body := map[string]string{"folder_id": folderID}
	if err := c.doRequest(ctx, "/api/v1/folders/delete", body, nil); err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", folderID, err)
	}
	return nil
}

// ListBookmarks fetches bookmarks for one folder scope.
func (c *Client) ListBookmarks(ctx context.Context, opts ListOptions) (*BookmarkList, error) {
	var list BookmarkList
	if err := c.doRequest(ctx, "/api/v1/bookmarks/list", opts, &list); err != nil {
		return nil, fmt.Errorf("failed to list bookmarks for folder %s: %w", opts.FolderID, err)
	}
	return &list, nil
}

// AddBookmark saves a URL. When the service already has a bookmark for
// the URL, it returns that bookmark instead of creating a duplicate.
func (c *Client) AddBookmark(ctx context.Context, bookmarkURL, title string) (*Bookmark, error) {
	var bookmark Bookmark
	body := map[string]string{"url": bookmarkURL, "title": title}
	if err := c.doRequest(ctx, "/api/v1/bookmarks/add", body, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to add bookmark: %w", err)
	}
	return &bookmark, nil
}

// MoveBookmark moves a bookmark into the folder named by destination.
func (c *Client) MoveBookmark(ctx context.Context, bookmarkID int64, destination string) error {
	body := map[string]any{"bookmark_id": bookmarkID, "destination": destination}
	if err := c.doRequest(ctx, "/api/v1/bookmarks/move", body, nil); err != nil {
		return fmt.Errorf("failed to move bookmark %d: %w", bookmarkID, err)
	}
	return nil
}

// StarBookmark marks a bookmark as liked.
func (c *Client) StarBookmark(ctx context.Context, bookmarkID int64) error {
	body := map[string]int64{"bookmark_id": bookmarkID}
	if err := c.doRequest(ctx, "/api/v1/bookmarks/star", body, nil); err != nil {
		return fmt.Errorf("failed to star bookmark %d: %w", bookmarkID, err)
	}
	return nil
}

// UnstarBookmark clears a bookmark's like.
func (c *Client) UnstarBookmark(ctx context.Context, bookmarkID int64) error {
	body := map[string]int64{"bookmark_id": bookmarkID}
	if err := c.doRequest(ctx, "/api/v1/bookmarks/unstar", body, nil); err != nil {
		return fmt.Errorf("failed to unstar bookmark %d: %w", bookmarkID, err)
	}
	return nil
}

// UpdateReadProgress pushes reading progress and returns the bookmark
// with its new change token.
func (c *Client) UpdateReadProgress(ctx context.Context, update ProgressUpdate) (*Bookmark, error) {
	var bookmark Bookmark
	if err := c.doRequest(ctx, "/api/v1/bookmarks/update_read_progress", update, &bookmark); err != nil {
		return nil, fmt.Errorf("failed to update progress for bookmark %d: %w", update.BookmarkID, err)
	}
	return &bookmark, nil
}

// DeleteBookmark deletes a bookmark permanently.
func (c *Client) DeleteBookmark(ctx context.Context, bookmarkID int64) error {
	body := map[string]int64{"bookmark_id": bookmarkID}
	if err := c.doRequest(ctx, "/api/v1/bookmarks/delete", body, nil); err != nil {
		return fmt.Errorf("failed to delete bookmark %d: %w", bookmarkID, err)
	}
	return nil
}
