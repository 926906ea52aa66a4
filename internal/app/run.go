package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/repoprune/internal/config"
	"github.com/blackwell-systems/repoprune/internal/engine"
	"github.com/blackwell-systems/repoprune/internal/output"
)

var (
	runFlagDryRun  bool
	runFlagYes     bool
	runFlagDetails bool
	runFlagRules   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one retention pass over every configured root",
	Long: `Run one classification-and-prune pass over every rule in the rules file.

For each root, entries are listed one level deep, aged by their effective
modification time (folders inherit the newest descendant file), ranked most
recent first, and classified:
  skip      still inside the retention window
  protect   expired, but among the newest N expired entries
  delete    expired and unprotected

Live passes delete every entry classified delete; --dry-run reports the
same decisions without contacting the repository's delete endpoint.

Failed deletions are counted and reported but never abort the pass, and a
root that cannot be listed is skipped without affecting other roots. The
command exits non-zero only for fatal errors: an unreadable config or
rules file, or an unreachable repository.

Examples:
  # Preview only
  repoprune run --dry-run

  # Live pass without the confirmation prompt
  repoprune run --yes

  # Show the per-entry decision tables
  repoprune run --dry-run --details`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runFlagDryRun, "dry-run", false, "report would-be deletions without deleting")
	runCmd.Flags().BoolVar(&runFlagYes, "yes", false, "skip the confirmation prompt")
	runCmd.Flags().BoolVar(&runFlagDetails, "details", false, "print per-entry decision tables")
	runCmd.Flags().StringVar(&runFlagRules, "rules", "", "rules file path (default: from config)")

	RootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	rulesPath := cfg.Rules
	if runFlagRules != "" {
		rulesPath = runFlagRules
	}
	rules, rejected, err := loadRules(rulesPath, logger)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Printf("No valid rules in %s (%d rejected); nothing to do.\n", rulesPath, len(rejected))
		return nil
	}

	client, err := openStore(cfg)
	if err != nil {
		return err
	}
	// Reachability is the one store condition treated as fatal.
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("repository unreachable: %w", err)
	}

	dryRun := runFlagDryRun || cfg.DryRun
	if !dryRun && !runFlagYes {
		if !confirm(fmt.Sprintf("About to run a LIVE pass over %d root(s). Continue?", len(rules))) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		// History is a convenience; a broken journal must not block pruning.
		logger.Warn("journal unavailable, pass will not be recorded", zap.Error(err))
		jrnl = nil
	} else {
		defer jrnl.Close()
	}

	var deleter engine.Deleter = &engine.LiveDeleter{Client: client}
	if dryRun {
		deleter = engine.NoopDeleter{}
	}
	runner := engine.NewRunner(client, deleter, logger)

	logger.Info("cleanup job starting",
		zap.Int("rules", len(rules)), zap.Bool("dry_run", dryRun))

	results, err := runner.Run(cmd.Context(), rules)
	if err != nil {
		return fmt.Errorf("job interrupted: %w", err)
	}

	for _, res := range results {
		if jrnl == nil {
			continue
		}
		if _, err := jrnl.RecordPass(res); err != nil {
			logger.Warn("failed to record pass", zap.String("root", res.Root), zap.Error(err))
		}
	}

	logger.Info("cleanup job complete", zap.Int("roots", len(results)))

	fmt.Println()
	fmt.Print(output.RenderSummaryTable(results))
	if runFlagDetails {
		for _, res := range results {
			fmt.Printf("\n%s:\n", res.Root)
			fmt.Print(output.RenderDecisionTable(res))
		}
	}
	if skipped := len(rules) - len(results); skipped > 0 {
		fmt.Printf("\n%d root(s) could not be processed; see warnings above.\n", skipped)
	}
	return nil
}

// loadRules parses the rules file and surfaces every rejected line as a
// warning. Rejected rules never stop the valid ones from running.
func loadRules(path string, logger *zap.Logger) ([]engine.Rule, []config.RuleError, error) {
	rules, rejected, err := config.ParseRules(path)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range rejected {
		logger.Warn("rejected rule",
			zap.Int("line", r.Line), zap.String("rule", r.Text), zap.String("reason", r.Reason))
	}
	return rules, rejected, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
