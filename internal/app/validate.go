package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repoprune/internal/config"
)

var validateFlagRules string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the rules file and repository connectivity",
	Long: `Parse the rules file, report a verdict for every rule, and ping the
repository. Each rule's root path is checked for existence; a missing root
is reported but does not fail validation, since the run command skips such
roots the same way.

Examples:
  repoprune validate
  repoprune validate --rules ./rules.conf`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateFlagRules, "rules", "", "rules file path (default: from config)")
	RootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rulesPath := cfg.Rules
	if validateFlagRules != "" {
		rulesPath = validateFlagRules
	}

	rules, rejected, err := config.ParseRules(rulesPath)
	if err != nil {
		return err
	}

	for _, r := range rejected {
		fmt.Printf("✗ %s\n", r)
	}

	client, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("repository unreachable: %w", err)
	}
	fmt.Printf("✓ repository reachable at %s\n", cfg.Store.Endpoint)

	for _, rule := range rules {
		exists, err := client.PathExists(cmd.Context(), rule.RootPath)
		switch {
		case err != nil:
			fmt.Printf("? %s: existence check failed: %v\n", rule.RootPath, err)
		case !exists:
			fmt.Printf("✗ %s: root does not exist (rule would be skipped)\n", rule.RootPath)
		default:
			fmt.Printf("✓ %s: retain %d day(s), keep last %d\n",
				rule.RootPath, rule.RetentionDays, rule.KeepLastN)
		}
	}

	fmt.Printf("\n%d valid rule(s), %d rejected.\n", len(rules), len(rejected))
	return nil
}
