package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"releasegate/pkg/config"
	"releasegate/pkg/types"
)

// NewLogger 根据配置构造 zap Logger
// console: 开发格式 (人类可读)，json: 生产格式
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q: %w", types.ErrInvalidInput, cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("%w: unsupported log format %q", types.ErrInvalidInput, cfg.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// 标准输出留给命令结果
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
