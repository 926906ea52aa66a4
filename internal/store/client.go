// Package store provides clients for the remote artifact repository.
//
// The Client interface is the only surface the pruning engine sees; the HTTP
// implementation talks to an Artifactory-style storage REST API, and Memory
// is a self-contained implementation used in tests.
package store

import (
	"context"
	"time"
)

// Child is one immediate entry beneath a repository folder.
type Child struct {
	Name   string
	Folder bool
}

// Client abstracts the artifact repository operations the pruning engine needs.
// Implementations must be safe for sequential use; no retries are performed at
// this layer.
type Client interface {
	// ListChildren returns the immediate children of path, one level deep.
	// Returns ErrInvalidRoot if path does not exist, ErrMalformedResponse if
	// the repository's answer cannot be parsed.
	ListChildren(ctx context.Context, path string) ([]Child, error)

	// FileModifiedAt returns the recorded last-modified instant of the file
	// at path.
	FileModifiedAt(ctx context.Context, path string) (time.Time, error)

	// MostRecentUnderSubtree returns the maximum last-modified instant among
	// every file anywhere beneath path. ok is false when the subtree contains
	// no files at all.
	MostRecentUnderSubtree(ctx context.Context, path string) (t time.Time, ok bool, err error)

	// Delete removes the entry at path. Folders require recursive=true.
	// Deleting an already-absent path returns ErrNotFound.
	Delete(ctx context.Context, path string, recursive bool) error

	// PathExists reports whether path exists in the repository.
	PathExists(ctx context.Context, path string) (bool, error)

	// Ping verifies the repository is reachable at all.
	Ping(ctx context.Context) error
}
