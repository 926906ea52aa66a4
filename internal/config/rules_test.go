package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.conf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	return path
}

func TestParseRules_ValidFile(t *testing.T) {
	path := writeRules(t, `
# release artifacts
libs-release-local/com/acme/app 30 2

builds/nightly 14 5
/leading/slash/trimmed/ 7 0
`)

	rules, rejected, err := ParseRules(path)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, want none", rejected)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}

	if rules[0].RootPath != "libs-release-local/com/acme/app" || rules[0].RetentionDays != 30 || rules[0].KeepLastN != 2 {
		t.Errorf("rules[0] = %+v", rules[0])
	}
	if rules[2].RootPath != "leading/slash/trimmed" {
		t.Errorf("rules[2].RootPath = %q, slashes should be trimmed", rules[2].RootPath)
	}
}

func TestParseRules_RejectAndContinue(t *testing.T) {
	path := writeRules(t, `good/path 30 2
too few
path with spaces 30 2
bad/days abc 2
bad/keep 30 xyz
negative/days -1 2
negative/keep 30 -2
another/good 7 1
`)

	rules, rejected, err := ParseRules(path)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}

	// Both good rules survive; every malformed line is rejected individually.
	if len(rules) != 2 {
		t.Errorf("got %d rules, want 2: %+v", len(rules), rules)
	}
	if rules[0].RootPath != "good/path" || rules[1].RootPath != "another/good" {
		t.Errorf("wrong surviving rules: %+v", rules)
	}
	if len(rejected) != 6 {
		t.Errorf("got %d rejections, want 6: %v", len(rejected), rejected)
	}
	for _, r := range rejected {
		if r.Reason == "" {
			t.Errorf("rejection at line %d has no reason", r.Line)
		}
	}
}

func TestParseRules_WhitespacePathFailsFieldCount(t *testing.T) {
	// A path containing whitespace splits into extra fields and is caught
	// by the field count check.
	path := writeRules(t, "my path/with space 30 2\n")

	rules, rejected, err := ParseRules(path)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("whitespace path accepted: %+v", rules)
	}
	if len(rejected) != 1 {
		t.Fatalf("got %d rejections, want 1", len(rejected))
	}
}

func TestParseRules_ZeroValuesAreValid(t *testing.T) {
	path := writeRules(t, "builds/tmp 0 0\n")

	rules, rejected, err := ParseRules(path)
	if err != nil {
		t.Fatalf("ParseRules failed: %v", err)
	}
	if len(rejected) != 0 {
		t.Errorf("rejected = %v, zero retention and keep are legal", rejected)
	}
	if len(rules) != 1 || rules[0].RetentionDays != 0 || rules[0].KeepLastN != 0 {
		t.Errorf("rules = %+v", rules)
	}
}

func TestParseRules_UnreadableFile(t *testing.T) {
	_, _, err := ParseRules(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	if err == nil {
		t.Fatal("expected an error for a missing rules file")
	}
}
