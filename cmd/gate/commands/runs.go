package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"releasegate/pkg/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded gate runs",
}

var runsLastCmd = &cobra.Command{
	Use:         "last",
	Short:       "Show the most recent run",
	Annotations: map[string]string{annotationLocal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		report, id, err := runJournal().Last()
		if errors.Is(err, journal.ErrNoRuns) {
			fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
			return nil
		}
		if err != nil {
			return err
		}

		return journal.Print(cmd.OutOrStdout(), id, report)
	},
}

var runsShowCmd = &cobra.Command{
	Use:         "show <id>",
	Short:       "Show a recorded run by ID",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationLocal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := runJournal().Get(args[0])
		if err != nil {
			return err
		}
		return journal.Print(cmd.OutOrStdout(), args[0], report)
	},
}

// runJournal 不依赖注册表后端
func runJournal() *journal.Journal {
	if Gate != nil {
		return Gate.Journal
	}
	return journal.New(viper.GetString("base_dir"))
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLastCmd, runsShowCmd)
}
