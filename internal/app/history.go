package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repoprune/internal/output"
)

var (
	historyFlagLimit   int
	historyFlagRoot    string
	historyFlagDetails bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent retention passes from the journal",
	Long: `Show recent passes recorded in the local journal, newest first.

Examples:
  repoprune history
  repoprune history --root builds/nightly
  repoprune history --limit 5 --details`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 20, "maximum number of passes to show")
	historyCmd.Flags().StringVar(&historyFlagRoot, "root", "", "only show passes for this root")
	historyCmd.Flags().BoolVar(&historyFlagDetails, "details", false, "show the deletions of each pass")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jrnl, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	records, err := jrnl.RecentPasses(historyFlagLimit, historyFlagRoot)
	if err != nil {
		return err
	}
	fmt.Print(output.RenderHistoryTable(records))

	if !historyFlagDetails {
		return nil
	}
	for _, rec := range records {
		deletions, err := jrnl.DeletionsForPass(rec.ID)
		if err != nil {
			return err
		}
		if len(deletions) == 0 {
			continue
		}
		fmt.Printf("\nPass %d (%s):\n", rec.ID, rec.Root)
		for _, d := range deletions {
			line := fmt.Sprintf("  %-10s %-7s %s", d.Outcome, d.Kind, d.Path)
			if d.Error != "" {
				line += "  (" + d.Error + ")"
			}
			fmt.Println(line)
		}
	}
	return nil
}
