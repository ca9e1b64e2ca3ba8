package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"releasegate/pkg/discovery"
	"releasegate/pkg/manifest"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List every package under the base directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return fmt.Errorf("application not initialized")
		}

		pkgs, err := discovery.FindPackages(Gate.BaseDir, Gate.Discovery)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "PACKAGE\tNAME\tVERSION\tCONTRACTS\n")
		for _, p := range pkgs {
			name, err := manifest.PackageName(p.Path)
			if err != nil {
				name = "?"
			}
			version, err := manifest.ReadVersion(p.Path)
			if err != nil {
				version = "?"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.RelPath, name, version, len(p.Contracts))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}
