package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/store"
)

// Runner drives retention passes against one repository.
type Runner struct {
	store   store.Client
	deleter Deleter
	logger  *zap.Logger

	// Now supplies the classification reference instant. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

// NewRunner creates a Runner. The deleter decides dry-run vs live behavior.
func NewRunner(c store.Client, d Deleter, logger *zap.Logger) *Runner {
	return &Runner{
		store:   c,
		deleter: d,
		logger:  logger,
		Now:     time.Now,
	}
}

// Pass runs the full pipeline over one root: list, resolve, rank, classify,
// prune. The returned result is complete even when individual deletions
// failed; an error is returned only when the root itself cannot be
// processed (nonexistent root, unparsable listing).
func (r *Runner) Pass(ctx context.Context, rule Rule) (*PassResult, error) {
	log := r.logger.With(zap.String("root", rule.RootPath))

	result := &PassResult{
		Root:    rule.RootPath,
		DryRun:  r.deleter.DryRun(),
		Started: r.Now(),
	}

	entries, err := listEntries(ctx, r.store, rule.RootPath)
	if err != nil {
		return nil, fmt.Errorf("pass over %s: %w", rule.RootPath, err)
	}
	log.Debug("listed entries", zap.Int("count", len(entries)))

	resolved, unresolved := resolveTimes(ctx, r.store, log, entries)
	for _, e := range unresolved {
		result.Decisions = append(result.Decisions, Decision{
			Entry: e,
			Code:  DecisionUnclassifiable,
			Rank:  -1,
		})
	}

	ranked := rankEntries(resolved)
	decisions := Classify(ranked, rule, r.Now())
	for _, d := range decisions {
		log.Debug("classified entry",
			zap.String("path", d.Entry.Path),
			zap.String("decision", d.Code.String()),
			zap.Int("rank", d.Rank))
	}

	deleted, failures := prune(ctx, r.deleter, log, decisions)
	result.Decisions = append(result.Decisions, decisions...)

	for _, d := range decisions {
		switch d.Code {
		case DecisionSkip:
			result.Summary.Skipped++
		case DecisionProtect:
			result.Summary.Protected++
		}
	}
	result.Summary.Deleted = deleted
	result.Summary.Failures = failures
	result.Summary.Unclassifiable = len(unresolved)
	result.Finished = r.Now()

	log.Info("pass complete",
		zap.Bool("dry_run", result.DryRun),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Int("protected", result.Summary.Protected),
		zap.Int("deleted", result.Summary.Deleted),
		zap.Int("failures", result.Summary.Failures),
		zap.Int("unclassifiable", result.Summary.Unclassifiable))

	return result, nil
}

// Run processes every rule sequentially. A root that cannot be processed is
// logged and skipped; the remaining roots still run. The context is checked
// only between roots, which is the job's clean cancellation boundary.
func (r *Runner) Run(ctx context.Context, rules []Rule) ([]*PassResult, error) {
	results := make([]*PassResult, 0, len(rules))
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.Pass(ctx, rule)
		if err != nil {
			r.logger.Warn("skipping root",
				zap.String("root", rule.RootPath), zap.Error(err))
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
