package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"releasegate/pkg/precheck"
)

var precheckCmd = &cobra.Command{
	Use:         "precheck <pkg>...",
	Short:       "Verify that packages ship their required documentation",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationLocal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := localConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, pkg := range args {
			if err := precheck.Execute(pkg, cfg.Precheck.Artifacts...); err != nil {
				fmt.Fprintf(out, "❌ %s\n", pkg)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "✅ %s\n", pkg)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(precheckCmd)
}
