package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/store"
)

func newTestRunner(t *testing.T, mem *store.Memory, dryRun bool) *Runner {
	t.Helper()
	var deleter Deleter = &LiveDeleter{Client: mem}
	if dryRun {
		deleter = NoopDeleter{}
	}
	r := NewRunner(mem, deleter, zap.NewNop())
	r.Now = func() time.Time { return fixedNow }
	return r
}

func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n)
}

func TestPass_ReferenceScenario(t *testing.T) {
	mem := store.NewMemory()
	ages := []int{5, 10, 35, 45, 60, 90}
	for i, age := range ages {
		mem.AddFile(fmt.Sprintf("builds/app/v%d.jar", i), daysAgo(age))
	}

	r := newTestRunner(t, mem, false)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 2})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	want := PassSummary{Skipped: 2, Protected: 2, Deleted: 2}
	if res.Summary != want {
		t.Errorf("summary = %+v, want %+v", res.Summary, want)
	}

	// The two oldest entries, and only those, must be gone.
	deleted := mem.Deleted()
	if len(deleted) != 2 {
		t.Fatalf("expected 2 delete calls, got %d: %v", len(deleted), deleted)
	}
	for _, p := range []string{"builds/app/v4.jar", "builds/app/v5.jar"} {
		exists, _ := mem.PathExists(context.Background(), p)
		if exists {
			t.Errorf("%s should have been deleted", p)
		}
	}
	for _, p := range []string{"builds/app/v0.jar", "builds/app/v1.jar", "builds/app/v2.jar", "builds/app/v3.jar"} {
		exists, _ := mem.PathExists(context.Background(), p)
		if !exists {
			t.Errorf("%s should have been kept", p)
		}
	}
}

func TestPass_FolderInheritsNewestDescendant(t *testing.T) {
	mem := store.NewMemory()
	// v1 holds only old files; v2 holds an old file plus one recent file
	// nested two levels down, which keeps the whole folder in the window.
	mem.AddFile("builds/app/v1/lib/app.jar", daysAgo(60))
	mem.AddFile("builds/app/v1/app.pom", daysAgo(50))
	mem.AddFile("builds/app/v2/app.pom", daysAgo(55))
	mem.AddFile("builds/app/v2/lib/deep/app.jar", daysAgo(2))

	r := newTestRunner(t, mem, false)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	for _, d := range res.Decisions {
		switch d.Entry.Path {
		case "builds/app/v1":
			if d.Code != DecisionDelete {
				t.Errorf("v1: got %s, want delete", d.Code)
			}
			if !d.Entry.Modified.Equal(daysAgo(50)) {
				t.Errorf("v1 effective time = %v, want newest descendant %v", d.Entry.Modified, daysAgo(50))
			}
		case "builds/app/v2":
			if d.Code != DecisionSkip {
				t.Errorf("v2: got %s, want skip (recent deep descendant)", d.Code)
			}
			if !d.Entry.Modified.Equal(daysAgo(2)) {
				t.Errorf("v2 effective time = %v, want newest descendant %v", d.Entry.Modified, daysAgo(2))
			}
		}
	}

	exists, _ := mem.PathExists(context.Background(), "builds/app/v1")
	if exists {
		t.Error("v1 folder should have been deleted recursively")
	}
	exists, _ = mem.PathExists(context.Background(), "builds/app/v2/lib/deep/app.jar")
	if !exists {
		t.Error("v2 subtree must be untouched")
	}
}

func TestPass_EmptyFolderIsUnclassifiableAndNeverDeleted(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFolder("builds/app/empty")
	mem.AddFolder("builds/app/nested-empty/inner")
	mem.AddFile("builds/app/old.jar", daysAgo(90))

	r := newTestRunner(t, mem, false)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if res.Summary.Unclassifiable != 2 {
		t.Errorf("unclassifiable = %d, want 2", res.Summary.Unclassifiable)
	}
	var unclassifiable int
	for _, d := range res.Decisions {
		if d.Code == DecisionUnclassifiable {
			unclassifiable++
			if d.Rank != -1 {
				t.Errorf("%s: unclassifiable rank = %d, want -1", d.Entry.Path, d.Rank)
			}
		}
	}
	if unclassifiable != 2 {
		t.Errorf("got %d unclassifiable decisions, want 2", unclassifiable)
	}

	// Only the old file may be deleted, never the undatable folders.
	deleted := mem.Deleted()
	if len(deleted) != 1 || deleted[0] != "builds/app/old.jar" {
		t.Errorf("delete calls = %v, want only the expired file", deleted)
	}
}

func TestPass_DryRunNeverCallsDelete(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/app/old1.jar", daysAgo(60))
	mem.AddFile("builds/app/old2.jar", daysAgo(90))

	r := newTestRunner(t, mem, true)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if calls := mem.Deleted(); len(calls) != 0 {
		t.Errorf("dry-run issued delete calls: %v", calls)
	}
	if res.Summary.Deleted != 2 {
		t.Errorf("would-delete count = %d, want 2", res.Summary.Deleted)
	}
	for _, d := range res.Decisions {
		if d.Code == DecisionDelete && d.Outcome != OutcomeWouldDelete {
			t.Errorf("%s: outcome = %q, want %q", d.Entry.Path, d.Outcome, OutcomeWouldDelete)
		}
	}
}

func TestPass_LiveCallsDeleteExactlyOncePerDecision(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/app/old1.jar", daysAgo(60))
	mem.AddFile("builds/app/old2.jar", daysAgo(90))
	mem.AddFile("builds/app/recent.jar", daysAgo(1))

	r := newTestRunner(t, mem, false)
	_, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	calls := mem.Deleted()
	if len(calls) != 2 {
		t.Fatalf("delete calls = %v, want exactly one per delete decision", calls)
	}
	seen := make(map[string]int)
	for _, p := range calls {
		seen[p]++
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("%s deleted %d times", p, n)
		}
	}
}

func TestPass_DeleteFailureIsIsolated(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/app/a.jar", daysAgo(40))
	mem.AddFile("builds/app/b.jar", daysAgo(50))
	mem.AddFile("builds/app/c.jar", daysAgo(60))
	mem.FailDeleteWith("builds/app/b.jar", errors.New("permission denied"))

	r := newTestRunner(t, mem, false)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("a failing delete must not fail the pass: %v", err)
	}

	if res.Summary.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", res.Summary.Deleted)
	}
	if res.Summary.Failures != 1 {
		t.Errorf("failures = %d, want 1", res.Summary.Failures)
	}
	for _, d := range res.Decisions {
		if d.Entry.Path == "builds/app/b.jar" {
			if d.Outcome != OutcomeFailed {
				t.Errorf("b.jar outcome = %q, want %q", d.Outcome, OutcomeFailed)
			}
			if d.Err == "" {
				t.Error("b.jar decision should carry the error text")
			}
		}
	}

	// The failing entry must not stop the entries after it in rank order.
	exists, _ := mem.PathExists(context.Background(), "builds/app/c.jar")
	if exists {
		t.Error("c.jar should have been deleted despite the earlier failure")
	}
}

func TestPass_AbsentEntryIsSoftWarning(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/app/gone.jar", daysAgo(60))
	// Simulate the entry vanishing between listing and deletion.
	mem.FailDeleteWith("builds/app/gone.jar", fmt.Errorf("delete: %w", store.ErrNotFound))

	r := newTestRunner(t, mem, false)
	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("an absent entry must not fail the pass: %v", err)
	}

	if res.Summary.Failures != 0 {
		t.Errorf("failures = %d, want 0 for already-absent entry", res.Summary.Failures)
	}
	for _, d := range res.Decisions {
		if d.Entry.Path == "builds/app/gone.jar" && d.Outcome != OutcomeAbsent {
			t.Errorf("outcome = %q, want %q", d.Outcome, OutcomeAbsent)
		}
	}
}

func TestPass_InvalidRoot(t *testing.T) {
	mem := store.NewMemory()

	r := newTestRunner(t, mem, false)
	_, err := r.Pass(context.Background(), Rule{RootPath: "does/not/exist", RetentionDays: 30, KeepLastN: 0})
	if err == nil {
		t.Fatal("expected an error for a nonexistent root")
	}
	if !errors.Is(err, store.ErrInvalidRoot) {
		t.Errorf("error = %v, want ErrInvalidRoot", err)
	}
}

func TestRun_BadRootDoesNotAffectOthers(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/good/old.jar", daysAgo(60))

	r := newTestRunner(t, mem, false)
	rules := []Rule{
		{RootPath: "builds/missing", RetentionDays: 30, KeepLastN: 0},
		{RootPath: "builds/good", RetentionDays: 30, KeepLastN: 0},
	}

	results, err := r.Run(context.Background(), rules)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (bad root skipped)", len(results))
	}
	if results[0].Root != "builds/good" {
		t.Errorf("processed root = %s, want builds/good", results[0].Root)
	}
	if results[0].Summary.Deleted != 1 {
		t.Errorf("good root deleted = %d, want 1", results[0].Summary.Deleted)
	}
}

func TestRun_StopsBetweenRootsOnCancel(t *testing.T) {
	mem := store.NewMemory()
	mem.AddFile("builds/a/old.jar", daysAgo(60))
	mem.AddFile("builds/b/old.jar", daysAgo(60))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, mem, false)
	results, err := r.Run(ctx, []Rule{
		{RootPath: "builds/a", RetentionDays: 30, KeepLastN: 0},
		{RootPath: "builds/b", RetentionDays: 30, KeepLastN: 0},
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(results) != 0 {
		t.Errorf("no roots should run after cancellation, got %d", len(results))
	}
	if calls := mem.Deleted(); len(calls) != 0 {
		t.Errorf("no deletions should have committed, got %v", calls)
	}
}

func TestPass_UnresolvableFileIsExcluded(t *testing.T) {
	// A file that the store lists but cannot stat fails closed.
	mem := store.NewMemory()
	mem.AddFile("builds/app/ok.jar", daysAgo(60))
	mem.AddFile("builds/app/bad.jar", daysAgo(60))

	failing := &statFailingClient{Memory: mem, failPath: "builds/app/bad.jar"}
	r := NewRunner(failing, &LiveDeleter{Client: failing}, zap.NewNop())
	r.Now = func() time.Time { return fixedNow }

	res, err := r.Pass(context.Background(), Rule{RootPath: "builds/app", RetentionDays: 30, KeepLastN: 0})
	if err != nil {
		t.Fatalf("Pass failed: %v", err)
	}

	if res.Summary.Unclassifiable != 1 {
		t.Errorf("unclassifiable = %d, want 1", res.Summary.Unclassifiable)
	}
	if res.Summary.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", res.Summary.Deleted)
	}
	for _, p := range mem.Deleted() {
		if p == "builds/app/bad.jar" {
			t.Error("an undatable entry must never be deleted")
		}
	}
}

// statFailingClient wraps Memory and refuses to date one path.
type statFailingClient struct {
	*store.Memory
	failPath string
}

func (c *statFailingClient) FileModifiedAt(ctx context.Context, path string) (time.Time, error) {
	if path == c.failPath {
		return time.Time{}, errors.New("stat: backend error")
	}
	return c.Memory.FileModifiedAt(ctx, path)
}
