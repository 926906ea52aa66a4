package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/repoprune/internal/engine"
)

// RuleError records one rejected rules-file line and why it was rejected.
type RuleError struct {
	Line   int
	Text   string
	Reason string
}

func (e RuleError) String() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// ParseRules reads the retention rules file. Each non-blank, non-comment
// line holds exactly three whitespace-separated fields:
//
//	<root-path> <retention-days> <keep-last-n>
//
// Malformed lines are rejected one by one and reported; they never abort
// parsing of the remaining lines. Only an unreadable file is an error.
func ParseRules(path string) ([]engine.Rule, []RuleError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open rules file %q: %w", path, err)
	}
	defer f.Close()

	var rules []engine.Rule
	var rejected []RuleError

	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, reason := parseRuleLine(line)
		if reason != "" {
			rejected = append(rejected, RuleError{Line: lineno, Text: line, Reason: reason})
			continue
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return rules, rejected, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}
	return rules, rejected, nil
}

// parseRuleLine validates one rule line. A path containing whitespace can
// never parse: it splits into extra fields and fails the field count check.
func parseRuleLine(line string) (engine.Rule, string) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return engine.Rule{}, fmt.Sprintf("expected 3 fields, got %d", len(fields))
	}

	root := strings.Trim(fields[0], "/")
	if root == "" {
		return engine.Rule{}, "empty root path"
	}

	days, err := strconv.Atoi(fields[1])
	if err != nil {
		return engine.Rule{}, fmt.Sprintf("retention days %q is not a number", fields[1])
	}
	if days < 0 {
		return engine.Rule{}, "retention days must not be negative"
	}

	keep, err := strconv.Atoi(fields[2])
	if err != nil {
		return engine.Rule{}, fmt.Sprintf("keep count %q is not a number", fields[2])
	}
	if keep < 0 {
		return engine.Rule{}, "keep count must not be negative"
	}

	return engine.Rule{RootPath: root, RetentionDays: days, KeepLastN: keep}, ""
}
