package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/store"
)

// resolveTimes computes the effective modification instant for every entry,
// issuing exactly one store query per entry: a stat for files, a recursive
// subtree query for folders. Entries the store cannot date fail closed to
// unresolved and are returned separately; they never reach classification.
func resolveTimes(ctx context.Context, c store.Client, logger *zap.Logger, entries []Entry) (resolved, unresolved []Entry) {
	for _, e := range entries {
		switch e.Kind {
		case KindFile:
			t, err := c.FileModifiedAt(ctx, e.Path)
			if err != nil {
				logger.Warn("cannot resolve file modification time",
					zap.String("path", e.Path), zap.Error(err))
				unresolved = append(unresolved, e)
				continue
			}
			e.Modified = t
			e.Resolved = true
			resolved = append(resolved, e)

		case KindFolder:
			t, ok, err := c.MostRecentUnderSubtree(ctx, e.Path)
			if err != nil {
				logger.Warn("cannot resolve folder modification time",
					zap.String("path", e.Path), zap.Error(err))
				unresolved = append(unresolved, e)
				continue
			}
			if !ok {
				// Subtree has no files at all. An empty folder has no age.
				logger.Warn("folder contains no files, excluding from classification",
					zap.String("path", e.Path))
				unresolved = append(unresolved, e)
				continue
			}
			e.Modified = t
			e.Resolved = true
			resolved = append(resolved, e)
		}
	}
	return resolved, unresolved
}
