// Package output renders terminal tables for repoprune: per-root pass
// summaries, per-entry decisions, and journal history. Tables use ASCII
// layout with ANSI colors when stdout is a TTY.
package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/repoprune/internal/engine"
	"github.com/blackwell-systems/repoprune/internal/journal"
)

// ANSI color codes for decision display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(s, color string) string {
	if !IsColorEnabled() {
		return s
	}
	return color + s + colorReset
}

func decisionColor(code engine.DecisionCode) string {
	switch code {
	case engine.DecisionSkip:
		return colorGray
	case engine.DecisionProtect:
		return colorGreen
	case engine.DecisionDelete:
		return colorRed
	default:
		return colorYellow
	}
}

// RenderSummaryTable renders one row per processed root with its counters.
func RenderSummaryTable(results []*engine.PassResult) string {
	if len(results) == 0 {
		return "No roots processed.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-40s %8s %9s %8s %8s %14s\n",
		"Root", "Skipped", "Protected", deletedHeader(results), "Failed", "Unclassifiable"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	for _, r := range results {
		sb.WriteString(fmt.Sprintf("%-40s %8d %9d %8d %8d %14d\n",
			truncate(r.Root, 40),
			r.Summary.Skipped,
			r.Summary.Protected,
			r.Summary.Deleted,
			r.Summary.Failures,
			r.Summary.Unclassifiable))
	}
	return sb.String()
}

// deletedHeader labels the delete column honestly in dry-run output.
func deletedHeader(results []*engine.PassResult) string {
	for _, r := range results {
		if r.DryRun {
			return "Would-Rm"
		}
	}
	return "Deleted"
}

// RenderDecisionTable renders every decision of one pass in ranked order,
// with unclassifiable entries listed first (they carry no rank).
func RenderDecisionTable(result *engine.PassResult) string {
	if len(result.Decisions) == 0 {
		return "No entries found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-44s %-7s %-15s %-14s %s\n",
		"Path", "Kind", "Modified", "Decision", "Outcome"))
	sb.WriteString(strings.Repeat("─", 96))
	sb.WriteString("\n")

	for _, d := range result.Decisions {
		modified := "unresolved"
		if d.Entry.Resolved {
			modified = humanize.Time(d.Entry.Modified)
		}
		sb.WriteString(fmt.Sprintf("%-44s %-7s %-15s %-14s %s\n",
			truncate(d.Entry.Path, 44),
			d.Entry.Kind.String(),
			modified,
			colorize(fmt.Sprintf("%-14s", d.Code.String()), decisionColor(d.Code)),
			d.Outcome))
	}
	return sb.String()
}

// RenderHistoryTable renders journal pass records, newest first.
func RenderHistoryTable(records []journal.PassRecord) string {
	if len(records) == 0 {
		return "No passes recorded yet.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-5s %-36s %-15s %-5s %8s %9s %8s %8s\n",
		"ID", "Root", "When", "Mode", "Skipped", "Protected", "Deleted", "Failed"))
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, r := range records {
		mode := "live"
		if r.DryRun {
			mode = "dry"
		}
		sb.WriteString(fmt.Sprintf("%-5d %-36s %-15s %-5s %8d %9d %8d %8d\n",
			r.ID,
			truncate(r.Root, 36),
			humanize.Time(r.Started),
			mode,
			r.Summary.Skipped,
			r.Summary.Protected,
			r.Summary.Deleted,
			r.Summary.Failures))
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
