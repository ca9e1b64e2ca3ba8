package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"releasegate/pkg/manifest"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Read or change package manifest versions",
}

// newVersionCmd 为每种变更生成一个子命令
func newVersionCmd(use, short string, fn func(pkgDir string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:         use + " <pkg>...",
		Short:       short,
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationLocal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var errs []error
			for _, pkg := range args {
				v, err := fn(pkg)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", pkg, err))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", pkg, v)
			}
			return errors.Join(errs...)
		},
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.AddCommand(
		newVersionCmd("show", "Print the current version", manifest.ReadVersion),
		newVersionCmd("bump", "Increment the patch number", manifest.BumpPatch),
		newVersionCmd("snapshot-add", "Append the -SNAPSHOT suffix", manifest.AddPrereleaseSuffix),
		newVersionCmd("snapshot-remove", "Remove the -SNAPSHOT suffix", manifest.RemovePrereleaseSuffix),
	)
}
