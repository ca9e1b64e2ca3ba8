package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
// 返回实际使用的配置文件 (没有找到时为空串)
func Load(cfgFile string) (string, error) {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		// 搜索顺序：当前目录 -> ./.gate -> ~/.gate
		viper.AddConfigPath(".")
		viper.AddConfigPath(".gate")
		viper.AddConfigPath(filepath.Join(home, ".gate"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("gate") // 找 gate.yaml
	}

	// 3. 读取环境变量 (GATE_REGISTRY_BACKEND 等)
	viper.SetEnvPrefix("GATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错 (还有默认值和环境变量)，格式错误才算
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("fatal error config file: %w", err)
	}
	return viper.ConfigFileUsed(), nil
}

func setDefaults() {
	viper.SetDefault("base_dir", ".")

	// 注册表后端
	viper.SetDefault("registry.backend", "file")
	viper.SetDefault("registry.file", "") // 空表示 <base_dir>/gate.properties
	viper.SetDefault("registry.s3.region", "us-east-1")
	viper.SetDefault("registry.s3.key", "gate/registry.properties")
	viper.SetDefault("registry.redis.url", "redis://localhost:6379/0")
	viper.SetDefault("registry.redis.key", "gate:registry")
	viper.SetDefault("registry.sql.driver", "sqlite")
	viper.SetDefault("registry.sql.dsn", filepath.Join(".gate", "registry.db"))

	// 检测与流水线
	viper.SetDefault("detect.workers", 1)
	viper.SetDefault("detect.legacy_digest", false)
	viper.SetDefault("detect.track_contracts", false)
	viper.SetDefault("discovery.ignore", []string{".git"})
	viper.SetDefault("precheck.artifacts", []string{"Package.md"})
	viper.SetDefault("version.mode", "bump")
	viper.SetDefault("pipeline.fail_fast", false)
	viper.SetDefault("validate.collect", false)

	// 日志
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
}
