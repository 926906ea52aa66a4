package journal

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/repoprune/internal/engine"
)

// PassRecord is one stored pass, as read back from the journal.
type PassRecord struct {
	ID       int64
	Root     string
	Started  time.Time
	Finished time.Time
	DryRun   bool
	Summary  engine.PassSummary
}

// DeletionRecord is one stored deletion attempt.
type DeletionRecord struct {
	Path    string
	Kind    string
	Outcome string
	Error   string
}

// RecordPass stores a completed pass and its delete decisions in one
// transaction, returning the new pass id.
func (j *Journal) RecordPass(result *engine.PassResult) (int64, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO passes
		(root, started_at, finished_at, dry_run, skipped, protected, deleted, failures, unclassifiable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.Root,
		result.Started.Format(time.RFC3339),
		result.Finished.Format(time.RFC3339),
		result.DryRun,
		result.Summary.Skipped,
		result.Summary.Protected,
		result.Summary.Deleted,
		result.Summary.Failures,
		result.Summary.Unclassifiable,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record pass for %s: %w", result.Root, err)
	}
	passID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get pass id: %w", err)
	}

	for _, d := range result.Decisions {
		if d.Code != engine.DecisionDelete {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO deletions (pass_id, path, kind, outcome, error)
			VALUES (?, ?, ?, ?, ?)
		`, passID, d.Entry.Path, d.Entry.Kind.String(), d.Outcome, d.Err)
		if err != nil {
			return 0, fmt.Errorf("failed to record deletion of %s: %w", d.Entry.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit pass record: %w", err)
	}
	return passID, nil
}

// RecentPasses returns up to limit passes, newest first. A non-empty root
// restricts results to that root.
func (j *Journal) RecentPasses(limit int, root string) ([]PassRecord, error) {
	query := `
		SELECT id, root, started_at, finished_at, dry_run, skipped, protected, deleted, failures, unclassifiable
		FROM passes
	`
	var args []any
	if root != "" {
		query += " WHERE root = ?"
		args = append(args, root)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query passes: %w", err)
	}
	defer rows.Close()

	var records []PassRecord
	for rows.Next() {
		var r PassRecord
		var started, finished string
		if err := rows.Scan(
			&r.ID, &r.Root, &started, &finished, &r.DryRun,
			&r.Summary.Skipped, &r.Summary.Protected, &r.Summary.Deleted,
			&r.Summary.Failures, &r.Summary.Unclassifiable,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pass row: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if r.Finished, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeletionsForPass returns every deletion recorded for one pass, in the
// order they were attempted.
func (j *Journal) DeletionsForPass(passID int64) ([]DeletionRecord, error) {
	rows, err := j.db.Query(`
		SELECT path, kind, outcome, COALESCE(error, '')
		FROM deletions
		WHERE pass_id = ?
		ORDER BY id
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deletions: %w", err)
	}
	defer rows.Close()

	var records []DeletionRecord
	for rows.Next() {
		var r DeletionRecord
		if err := rows.Scan(&r.Path, &r.Kind, &r.Outcome, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan deletion row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
