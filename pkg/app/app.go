// Package app assembles the gate's services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"releasegate/pkg/config"
	"releasegate/pkg/detect"
	"releasegate/pkg/discovery"
	"releasegate/pkg/fingerprint"
	"releasegate/pkg/ignore"
	"releasegate/pkg/journal"
	"releasegate/pkg/pipeline"
	"releasegate/pkg/registry"
	"releasegate/pkg/registry/cache"
	"releasegate/pkg/registry/file"
	"releasegate/pkg/registry/s3"
	sqlreg "releasegate/pkg/registry/sql"
	"releasegate/pkg/types"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
type App struct {
	Config    *config.Config
	BaseDir   string // 绝对路径，注册表 Key 的基准目录
	Backend   registry.Backend
	Engine    *fingerprint.Engine
	Discovery discovery.Options
	Journal   *journal.Journal
	Logger    *zap.Logger

	closers []func() error
}

// NewApp 从当前 Viper 配置组装 App
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.Current()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, logger)
}

// New 是工厂函数，负责按配置组装各个组件
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 1. 基准目录 (Single Source of Truth)
	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: base_dir %s: %w", types.ErrInvalidInput, cfg.BaseDir, err)
	}

	// 2. 注册表后端
	backend, closer, err := initBackend(ctx, cfg, baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init registry backend: %w", err)
	}

	a := &App{
		Config:    cfg,
		BaseDir:   baseDir,
		Backend:   backend,
		Discovery: discovery.Options{Prune: ignore.CompileRules(cfg.Discovery.Ignore...)},
		Journal:   journal.New(baseDir),
		Logger:    logger,
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	// 3. 排除策略: 默认规则 + .gateignore (旧版摘要沿用旧的前缀规则)
	loadPolicy := ignore.LoadPolicy
	if cfg.Detect.LegacyDigest {
		loadPolicy = ignore.LoadLegacyPolicy
	}
	policy, err := loadPolicy(baseDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}
	// baseDir 本身是包时，注册表文件不能算进它的摘要
	if f, ok := backend.(*file.Adapter); ok && filepath.Dir(f.Path()) == baseDir {
		policy = policy.With(ignore.Named(filepath.Base(f.Path())))
	}
	a.Engine = &fingerprint.Engine{Policy: policy, Legacy: cfg.Detect.LegacyDigest}

	logger.Debug("app initialized",
		zap.String("base_dir", baseDir),
		zap.String("backend", backend.Name()),
		zap.Int("workers", cfg.Detect.Workers))
	return a, nil
}

// initBackend 按 registry.backend 选择实现
func initBackend(ctx context.Context, cfg *config.Config, baseDir string) (registry.Backend, func() error, error) {
	rc := cfg.Registry
	switch rc.Backend {
	case "file", "":
		if rc.File != "" {
			path := rc.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			return file.NewAt(path), nil, nil
		}
		return file.New(baseDir), nil, nil

	case "s3":
		a, err := s3.NewAdapter(ctx, s3.Config{
			Endpoint:        rc.S3.Endpoint,
			Region:          rc.S3.Region,
			Bucket:          rc.S3.Bucket,
			Key:             rc.S3.Key,
			AccessKeyID:     rc.S3.AccessKeyID,
			SecretAccessKey: rc.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil

	case "redis":
		s, err := cache.NewRedisStore(cache.Config{RedisURL: rc.Redis.URL, Key: rc.Redis.Key})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "sql":
		dsn := rc.SQL.DSN
		if rc.SQL.Driver == "sqlite" && dsn != "" && !filepath.IsAbs(dsn) && !isURI(dsn) {
			dsn = filepath.Join(baseDir, dsn)
		}
		r, err := sqlreg.Open(ctx, sqlreg.Config{Driver: rc.SQL.Driver, DSN: dsn})
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: unsupported registry backend %q", types.ErrInvalidInput, rc.Backend)
	}
}

func isURI(dsn string) bool {
	return len(dsn) >= 5 && dsn[:5] == "file:"
}

// Detector 加载注册表并返回检测器
func (a *App) Detector(ctx context.Context) (*detect.Detector, error) {
	reg, err := registry.Load(ctx, a.Backend)
	if err != nil {
		return nil, err
	}
	return detect.New(reg, a.Engine,
		detect.WithWorkers(a.Config.Detect.Workers),
		detect.WithDiscovery(a.Discovery)), nil
}

// Committer 返回写回注册表的提交器
func (a *App) Committer() *detect.Committer {
	c := detect.NewCommitter(a.Backend, a.Engine, a.Config.Detect.Workers)
	c.TrackContracts = a.Config.Detect.TrackContracts
	return c
}

// Pipeline 按配置构造流水线
func (a *App) Pipeline() (*pipeline.Pipeline, error) {
	mode, err := pipeline.ParseMode(a.Config.Version.Mode)
	if err != nil {
		return nil, err
	}
	opts := pipeline.Options{
		Mode:           mode,
		Artifacts:      a.Config.Precheck.Artifacts,
		Workers:        a.Config.Detect.Workers,
		FailFast:       a.Config.Pipeline.FailFast,
		Collect:        a.Config.Validate.Collect,
		TrackContracts: a.Config.Detect.TrackContracts,
	}
	return pipeline.New(a.Backend, a.Engine, opts,
		pipeline.WithLogger(a.Logger),
		pipeline.WithDiscovery(a.Discovery)), nil
}

// Close 释放后端连接
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
