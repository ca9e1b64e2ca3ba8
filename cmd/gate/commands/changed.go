package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var changedVerbose bool

var changedCmd = &cobra.Command{
	Use:   "changed",
	Short: "Print the packages whose content differs from the registry",
	Long:  `Print one package path per line, in discovery order. Packages without a registry entry count as changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		det, err := Gate.Detector(ctx)
		if err != nil {
			return err
		}
		results, err := det.Scan(ctx, Gate.BaseDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		changed := 0
		for _, r := range results {
			if !r.Status.IsChanged() {
				continue
			}
			changed++
			if changedVerbose {
				fmt.Fprintf(out, "%s\t%s\n", r.Package.RelPath, r.Status)
			} else {
				fmt.Fprintln(out, r.Package.RelPath)
			}
		}
		Gate.Logger.Debug("scan finished", zap.Int("packages", len(results)), zap.Int("changed", changed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changedCmd)
	changedCmd.Flags().BoolVarP(&changedVerbose, "verbose", "v", false, "also print new/changed status")
}
