package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"releasegate/pkg/app"
	"releasegate/pkg/config"
)

// 不需要注册表后端的命令 (只读本地文件)
const annotationLocal = "gate/local"

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	Gate *app.App
)

var rootCmd = &cobra.Command{
	Use:           "gate",
	Short:         "Release gate for multi-package repositories",
	Long:          `gate finds the packages that changed since the last recorded run, checks their docs and API contracts, bumps their versions and records fresh content digests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationLocal] == "true" {
			return nil
		}
		// 测试里可能已经注入了 Gate
		if Gate != nil {
			return nil
		}

		var err error
		Gate, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize gate: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if Gate == nil {
			return nil
		}
		if err := Gate.Close(); err != nil {
			Gate.Logger.Warn("close backend failed", zap.Error(err))
		}
		_ = Gate.Logger.Sync()
		return nil
	},
}

// Execute 是入口
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// 1. 全局参数 --config
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./gate.yaml, ./.gate/gate.yaml or $HOME/.gate/gate.yaml)")

	// 2. 其余全局参数绑定到 Viper，既可以写在 yaml 里，也可以用命令行覆盖
	flags := rootCmd.PersistentFlags()
	flags.String("base-dir", "", "repository root used as the registry key base")
	flags.String("backend", "", "registry backend: file, s3, redis or sql")
	flags.Int("workers", 0, "number of packages fingerprinted concurrently")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	mustBind("base_dir", "base-dir")
	mustBind("registry.backend", "backend")
	mustBind("detect.workers", "workers")
	mustBind("log.level", "log-level")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
}

// localConfig 给不初始化 App 的命令读取配置
func localConfig() (*config.Config, error) {
	if Gate != nil {
		return Gate.Config, nil
	}
	return config.Current()
}
