// Package config loads gate settings from gate.yaml, GATE_* environment variables and flags.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"releasegate/pkg/types"
)

// Config 是 Viper 中全部配置的强类型视图
type Config struct {
	BaseDir   string          `mapstructure:"base_dir"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Detect    DetectConfig    `mapstructure:"detect"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Precheck  PrecheckConfig  `mapstructure:"precheck"`
	Version   VersionConfig   `mapstructure:"version"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Validate  ValidateConfig  `mapstructure:"validate"`
	Log       LogConfig       `mapstructure:"log"`
}

type RegistryConfig struct {
	Backend string      `mapstructure:"backend"` // file | s3 | redis | sql
	File    string      `mapstructure:"file"`
	S3      S3Config    `mapstructure:"s3"`
	Redis   RedisConfig `mapstructure:"redis"`
	SQL     SQLConfig   `mapstructure:"sql"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type SQLConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type DetectConfig struct {
	Workers        int  `mapstructure:"workers"`
	LegacyDigest   bool `mapstructure:"legacy_digest"`
	TrackContracts bool `mapstructure:"track_contracts"`
}

type DiscoveryConfig struct {
	Ignore []string `mapstructure:"ignore"`
}

type PrecheckConfig struct {
	Artifacts []string `mapstructure:"artifacts"`
}

type VersionConfig struct {
	Mode string `mapstructure:"mode"`
}

type PipelineConfig struct {
	FailFast bool `mapstructure:"fail_fast"`
}

type ValidateConfig struct {
	Collect bool `mapstructure:"collect"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// Current 把当前 Viper 状态解码为 Config 并做基本校验
func Current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decode config: %w", types.ErrInvalidInput, err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check 检查取值范围
func (c *Config) Check() error {
	if c.BaseDir == "" {
		return fmt.Errorf("%w: base_dir is empty", types.ErrInvalidInput)
	}
	switch c.Registry.Backend {
	case "file", "s3", "redis", "sql":
	default:
		return fmt.Errorf("%w: unsupported registry backend %q", types.ErrInvalidInput, c.Registry.Backend)
	}
	if c.Detect.Workers < 1 {
		return fmt.Errorf("%w: detect.workers must be >= 1, got %d", types.ErrInvalidInput, c.Detect.Workers)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unsupported log format %q", types.ErrInvalidInput, c.Log.Format)
	}
	return nil
}
