package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"releasegate/pkg/contract"
)

var validateCmd = &cobra.Command{
	Use:         "validate <file>...",
	Short:       "Check API description documents for the x-display convention",
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{annotationLocal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := localConfig()
		if err != nil {
			return err
		}

		collect, _ := cmd.Flags().GetBool("all")
		validate := contract.ValidateFile
		if collect || cfg.Validate.Collect {
			validate = contract.ValidateFileAll
		}

		out := cmd.OutOrStdout()
		var errs []error
		for _, file := range args {
			if err := validate(file); err != nil {
				fmt.Fprintf(out, "❌ %s\n", file)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "✅ %s\n", file)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("all", false, "report every violation instead of stopping at the first")
}
