package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"releasegate/pkg/journal"
)

// ErrRunFailed 表示至少有一个包没有通过
var ErrRunFailed = errors.New("one or more packages failed the gate")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full gate over every changed package",
	Long: `For every changed package: check the documentation artifacts, validate its API contracts and
update the manifest version. Digests of the packages that passed are then recorded in one step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		p, err := Gate.Pipeline()
		if err != nil {
			return err
		}

		report, runErr := p.Run(ctx, Gate.BaseDir)

		// 无论成功与否都写入运行记录
		id, err := Gate.Journal.Put(report)
		if err != nil {
			Gate.Logger.Warn("failed to record run", zap.Error(err))
		} else {
			Gate.Logger.Debug("run recorded", zap.String("id", id))
		}

		printReport(cmd.OutOrStdout(), report)
		if runErr != nil {
			return runErr
		}
		if !report.OK() {
			return ErrRunFailed
		}
		return nil
	},
}

func printReport(out io.Writer, r *journal.Report) {
	if len(r.Packages) == 0 {
		fmt.Fprintln(out, "nothing changed")
		return
	}
	for _, p := range r.Packages {
		if p.Passed {
			fmt.Fprintf(out, "✅ %s\t%s -> %s\n", p.Path, p.OldVersion, p.NewVersion)
			continue
		}
		fmt.Fprintf(out, "❌ %s\t[%s] %s\n", p.Path, p.Stage, p.Error)
	}
	if r.Aborted {
		fmt.Fprintln(out, "⚠️  aborted after the first failure")
	}
	fmt.Fprintf(out, "committed %d of %d changed package(s)\n", len(r.Committed), len(r.Packages))
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("mode", "", "version change: bump, snapshot-add, snapshot-remove or none")
	flags.Bool("fail-fast", false, "stop at the first failing package")
	flags.Bool("all", false, "report every contract violation instead of stopping at the first")
	_ = viper.BindPFlag("version.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("pipeline.fail_fast", flags.Lookup("fail-fast"))
	_ = viper.BindPFlag("validate.collect", flags.Lookup("all"))
}
