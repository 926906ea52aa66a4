package engine

import (
	"context"
	"path"

	"github.com/blackwell-systems/repoprune/internal/store"
)

// listEntries enumerates the immediate children of root as unresolved
// entries. Files come before folders, each group in the store's listing
// order; that discovery order is the tie-break the ranker preserves.
func listEntries(ctx context.Context, c store.Client, root string) ([]Entry, error) {
	children, err := c.ListChildren(ctx, root)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(children))
	for _, ch := range children {
		if !ch.Folder {
			entries = append(entries, Entry{Path: path.Join(root, ch.Name), Kind: KindFile})
		}
	}
	for _, ch := range children {
		if ch.Folder {
			entries = append(entries, Entry{Path: path.Join(root, ch.Name), Kind: KindFolder})
		}
	}
	return entries, nil
}
