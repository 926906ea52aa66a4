// Package engine implements the retention classification and pruning core.
//
// A pass over one configured root runs a strict pipeline: list the root's
// immediate children, resolve an effective modification instant for each,
// rank them most recent first, classify every ranked entry as skip, protect
// or delete, then execute the delete decisions. Roots are independent; no
// state survives a pass.
package engine

import "time"

// Kind distinguishes files from folders in the repository.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Rule is one retention rule for a single root path. RootPath must be
// non-empty and contain no whitespace; both counters are non-negative.
// A Rule is immutable for the duration of a pass.
type Rule struct {
	RootPath      string
	RetentionDays int
	KeepLastN     int
}

// Entry is one immediate child of a root, tagged with its effective
// modification instant. A folder's effective instant is the maximum over
// every file anywhere in its subtree; when the subtree holds no files the
// entry stays unresolved (Resolved=false) and never reaches classification.
type Entry struct {
	Path     string
	Kind     Kind
	Modified time.Time
	Resolved bool
}

// DecisionCode is the classification outcome for one entry.
type DecisionCode int

const (
	// DecisionSkip marks an entry still inside the retention window.
	DecisionSkip DecisionCode = iota
	// DecisionProtect marks an expired entry kept because it ranks among
	// the newest KeepLastN expired entries.
	DecisionProtect
	// DecisionDelete marks an expired, unprotected entry.
	DecisionDelete
	// DecisionUnclassifiable marks an entry whose effective modification
	// instant could not be resolved. Such entries are never deleted.
	DecisionUnclassifiable
)

func (c DecisionCode) String() string {
	switch c {
	case DecisionSkip:
		return "skip"
	case DecisionProtect:
		return "protect"
	case DecisionDelete:
		return "delete"
	case DecisionUnclassifiable:
		return "unclassifiable"
	default:
		return "unknown"
	}
}

// Decision attaches a classification outcome to an entry. Rank is the
// entry's position in the most-recent-first ordering; it is -1 for
// unclassifiable entries, which are never ranked.
//
// Outcome and Err are filled in by the pruner for delete decisions:
// "deleted", "would-delete", "absent" or "failed".
type Decision struct {
	Entry   Entry
	Code    DecisionCode
	Rank    int
	Outcome string
	Err     string
}

// Pruner outcome values recorded on delete decisions.
const (
	OutcomeDeleted     = "deleted"
	OutcomeWouldDelete = "would-delete"
	OutcomeAbsent      = "absent"
	OutcomeFailed      = "failed"
)

// PassSummary aggregates the outcome of one pass over one root.
// Deleted counts live deletions, or would-delete decisions in dry-run mode.
type PassSummary struct {
	Skipped        int
	Protected      int
	Deleted        int
	Failures       int
	Unclassifiable int
}

// PassResult is the complete record of one pass over one root.
type PassResult struct {
	Root      string
	DryRun    bool
	Started   time.Time
	Finished  time.Time
	Decisions []Decision
	Summary   PassSummary
}
