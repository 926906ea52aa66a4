package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/store"
)

// Deleter executes a single delete decision. Swapping the implementation at
// this boundary is what distinguishes a dry run from a live pass; the
// classification stage is identical in both modes.
type Deleter interface {
	Delete(ctx context.Context, e Entry) error
	DryRun() bool
}

// LiveDeleter deletes entries from the repository: a recursive delete for
// folders, a single-object delete for files.
type LiveDeleter struct {
	Client store.Client
}

func (d *LiveDeleter) Delete(ctx context.Context, e Entry) error {
	return d.Client.Delete(ctx, e.Path, e.Kind == KindFolder)
}

func (d *LiveDeleter) DryRun() bool { return false }

// NoopDeleter records would-delete decisions without ever contacting the
// repository.
type NoopDeleter struct{}

func (NoopDeleter) Delete(context.Context, Entry) error { return nil }

func (NoopDeleter) DryRun() bool { return true }

// prune executes every delete decision in place, filling in Outcome and Err,
// and returns the deleted and failure counts. Each deletion is independent:
// a failing delete is logged, counted, and does not stop the remaining ones.
// Deleting an already-absent entry is a soft warning, not a failure.
func prune(ctx context.Context, d Deleter, logger *zap.Logger, decisions []Decision) (deleted, failures int) {
	for i := range decisions {
		dec := &decisions[i]
		if dec.Code != DecisionDelete {
			continue
		}

		if d.DryRun() {
			dec.Outcome = OutcomeWouldDelete
			deleted++
			logger.Info("would delete",
				zap.String("path", dec.Entry.Path),
				zap.String("kind", dec.Entry.Kind.String()))
			continue
		}

		err := d.Delete(ctx, dec.Entry)
		switch {
		case err == nil:
			dec.Outcome = OutcomeDeleted
			deleted++
			logger.Info("deleted",
				zap.String("path", dec.Entry.Path),
				zap.String("kind", dec.Entry.Kind.String()))
		case errors.Is(err, store.ErrNotFound):
			// Already gone; the entry's absence is the goal state.
			dec.Outcome = OutcomeAbsent
			deleted++
			logger.Warn("entry already absent",
				zap.String("path", dec.Entry.Path))
		default:
			dec.Outcome = OutcomeFailed
			dec.Err = err.Error()
			failures++
			logger.Warn("delete failed",
				zap.String("path", dec.Entry.Path),
				zap.Error(err))
		}
	}
	return deleted, failures
}
