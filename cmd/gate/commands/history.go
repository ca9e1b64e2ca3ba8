package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	sqlreg "releasegate/pkg/registry/sql"
	"releasegate/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored registry snapshots (sql backend only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return fmt.Errorf("application not initialized")
		}
		repo, ok := Gate.Backend.(*sqlreg.Repository)
		if !ok {
			return fmt.Errorf("%w: backend %s keeps no history, use registry.backend=sql", types.ErrInvalidInput, Gate.Backend.Name())
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 1 {
			return fmt.Errorf("%w: --limit must be >= 1", types.ErrInvalidInput)
		}
		snaps, err := repo.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "SNAPSHOT\tCREATED\tENTRIES\n")
		for _, s := range snaps {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Count)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Maximum number of snapshots to list")
	rootCmd.AddCommand(historyCmd)
}
