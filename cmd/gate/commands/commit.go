package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var commitCmd = &cobra.Command{
	Use:   "commit <pkg>...",
	Short: "Record the current digests of the given packages in the registry",
	Long:  `Compute fresh digests for every given package and write them to the registry in one step. If any digest fails nothing is written.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return fmt.Errorf("application not initialized")
		}

		reg, err := Gate.Committer().Commit(cmd.Context(), Gate.BaseDir, args)
		if err != nil {
			return fmt.Errorf("failed to commit digests: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, p := range args {
			if d, ok := reg.Get(relArg(p)); ok {
				fmt.Fprintf(out, "%s\t%s\n", relArg(p), d)
			}
		}
		Gate.Logger.Info("registry updated",
			zap.String("backend", Gate.Backend.Name()),
			zap.Int("packages", len(args)),
			zap.Int("entries", reg.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
}
