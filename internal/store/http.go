package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP is a Client backed by an Artifactory-style storage REST API.
//
// Listing and stat calls go through {endpoint}/api/storage/{path}; deletions
// are plain DELETE requests against {endpoint}/{path}. An optional bearer
// token is attached to every request.
type HTTP struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTP creates an HTTP store client. endpoint is the repository base URL
// without a trailing slash (e.g. https://repo.example.com/artifactory).
// token may be empty for anonymous access.
func NewHTTP(endpoint, token string, timeout time.Duration) *HTTP {
	return &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// storageInfo is the subset of the storage API response we consume.
type storageInfo struct {
	LastModified string `json:"lastModified"`
	Children     []struct {
		URI    string `json:"uri"`
		Folder bool   `json:"folder"`
	} `json:"children"`
	Files []struct {
		URI          string `json:"uri"`
		Folder       bool   `json:"folder"`
		LastModified string `json:"lastModified"`
	} `json:"files"`
}

func (h *HTTP) storageURL(path, query string) string {
	u := h.endpoint + "/api/storage/" + url.PathEscape(path)
	// Path separators must survive escaping.
	u = strings.ReplaceAll(u, "%2F", "/")
	if query != "" {
		u += "?" + query
	}
	return u
}

func (h *HTTP) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	return h.client.Do(req)
}

// ListChildren implements Client.
func (h *HTTP) ListChildren(ctx context.Context, path string) ([]Child, error) {
	resp, err := h.do(ctx, http.MethodGet, h.storageURL(path, ""))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("list %s: %w", path, ErrInvalidRoot)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %s", path, resp.Status)
	}

	var info storageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("list %s: %w: %v", path, ErrMalformedResponse, err)
	}

	children := make([]Child, 0, len(info.Children))
	for _, c := range info.Children {
		name := strings.TrimPrefix(c.URI, "/")
		if name == "" {
			return nil, fmt.Errorf("list %s: %w: empty child uri", path, ErrMalformedResponse)
		}
		children = append(children, Child{Name: name, Folder: c.Folder})
	}
	return children, nil
}

// FileModifiedAt implements Client.
func (h *HTTP) FileModifiedAt(ctx context.Context, path string) (time.Time, error) {
	resp, err := h.do(ctx, http.MethodGet, h.storageURL(path, ""))
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("stat %s: unexpected status %s", path, resp.Status)
	}

	var info storageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w: %v", path, ErrMalformedResponse, err)
	}
	t, err := time.Parse(time.RFC3339, info.LastModified)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w: bad lastModified %q", path, ErrMalformedResponse, info.LastModified)
	}
	return t, nil
}

// MostRecentUnderSubtree implements Client. It asks the storage API for a
// deep file listing of the subtree and keeps the maximum lastModified. A
// subtree with no files yields ok=false, never a zero time.
func (h *HTTP) MostRecentUnderSubtree(ctx context.Context, path string) (time.Time, bool, error) {
	resp, err := h.do(ctx, http.MethodGet, h.storageURL(path, "list&deep=1&listFolders=0"))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("deep list %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return time.Time{}, false, fmt.Errorf("deep list %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return time.Time{}, false, fmt.Errorf("deep list %s: unexpected status %s", path, resp.Status)
	}

	var info storageInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return time.Time{}, false, fmt.Errorf("deep list %s: %w: %v", path, ErrMalformedResponse, err)
	}

	var newest time.Time
	var found bool
	for _, f := range info.Files {
		if f.Folder {
			continue
		}
		t, err := time.Parse(time.RFC3339, f.LastModified)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("deep list %s: %w: bad lastModified %q", path, ErrMalformedResponse, f.LastModified)
		}
		if !found || t.After(newest) {
			newest = t
			found = true
		}
	}
	return newest, found, nil
}

// Delete implements Client. The storage API deletes folders recursively by
// default, so recursive only gates a client-side sanity check.
func (h *HTTP) Delete(ctx context.Context, path string, recursive bool) error {
	_ = recursive
	resp, err := h.do(ctx, http.MethodDelete, h.endpoint+"/"+path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	default:
		return fmt.Errorf("delete %s: unexpected status %s", path, resp.Status)
	}
}

// PathExists implements Client.
func (h *HTTP) PathExists(ctx context.Context, path string) (bool, error) {
	resp, err := h.do(ctx, http.MethodGet, h.storageURL(path, ""))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("exists %s: unexpected status %s", path, resp.Status)
	}
}

// Ping implements Client using the repository's health endpoint.
func (h *HTTP) Ping(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodGet, h.endpoint+"/api/system/ping")
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: unexpected status %s", resp.Status)
	}
	return nil
}
