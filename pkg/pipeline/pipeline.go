// Package pipeline sequences detection, prechecks, validation, versioning and registry commits.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"releasegate/pkg/contract"
	"releasegate/pkg/detect"
	"releasegate/pkg/discovery"
	"releasegate/pkg/fingerprint"
	"releasegate/pkg/journal"
	"releasegate/pkg/precheck"
	"releasegate/pkg/registry"
)

// Options 控制一次运行的策略
type Options struct {
	Mode      Mode
	Artifacts []string // 预检产物，空表示 Package.md
	Workers   int

	// FailFast: 任意包失败立即中止 (已通过的包仍会提交)
	FailFast bool
	// Collect: 校验时收集全部违规而不是遇到第一个就停止
	Collect bool
	// TrackContracts: 记录文档摘要，只校验发生变化的文档
	TrackContracts bool
}

// Pipeline 是 gate run 的驱动器
type Pipeline struct {
	backend   registry.Backend
	engine    *fingerprint.Engine
	discovery discovery.Options
	opts      Options
	logger    *zap.Logger
	now       func() time.Time
}

// Option 定制 Pipeline
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithDiscovery(opts discovery.Options) Option {
	return func(p *Pipeline) { p.discovery = opts }
}

// WithClock 替换时间来源 (测试用)
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New 构造 Pipeline
func New(backend registry.Backend, engine *fingerprint.Engine, opts Options, options ...Option) *Pipeline {
	if opts.Mode == "" {
		opts.Mode = ModeBump
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	p := &Pipeline{
		backend:   backend,
		engine:    engine,
		discovery: discovery.DefaultOptions(),
		opts:      opts,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Run 执行一次完整流程:
// 1. 找出变更包  2. 逐包预检、校验文档、修改版本
// 3. 只为全部通过的包一次性提交新摘要 (在版本修改之后计算)
// 单个包失败记录在报告中; 只有加载/扫描/提交失败才返回 error。
func (p *Pipeline) Run(ctx context.Context, baseDir string) (*journal.Report, error) {
	report := &journal.Report{
		BaseDir:   baseDir,
		Mode:      string(p.opts.Mode),
		StartedAt: p.now().Unix(),
		Committed: []string{},
	}
	finish := func(err error) (*journal.Report, error) {
		report.Finished = p.now().Unix()
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	reg, err := registry.Load(ctx, p.backend)
	if err != nil {
		return finish(err)
	}

	det := detect.New(reg, p.engine, detect.WithWorkers(p.opts.Workers), detect.WithDiscovery(p.discovery))
	results, err := det.Scan(ctx, baseDir)
	if err != nil {
		return finish(err)
	}

	var passed []string
	for _, r := range results {
		if !r.Status.IsChanged() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		res := p.process(det, baseDir, r)
		report.Packages = append(report.Packages, res)

		if res.Passed {
			passed = append(passed, r.Package.RelPath)
			p.logger.Info("package passed",
				zap.String("package", res.Path),
				zap.String("old_version", res.OldVersion),
				zap.String("new_version", res.NewVersion))
			continue
		}

		p.logger.Warn("package failed",
			zap.String("package", res.Path),
			zap.String("stage", string(res.Stage)),
			zap.String("error", res.Error))
		if p.opts.FailFast {
			report.Aborted = true
			break
		}
	}

	if len(passed) == 0 {
		return finish(nil)
	}

	c := detect.NewCommitter(p.backend, p.engine, p.opts.Workers)
	c.TrackContracts = p.opts.TrackContracts
	committed, err := c.Commit(ctx, baseDir, passed)
	if err != nil {
		// 注册表未被修改
		for i := range report.Packages {
			if report.Packages[i].Passed {
				report.Packages[i].Passed = false
				report.Packages[i].Stage = journal.StageCommit
				report.Packages[i].Error = err.Error()
			}
		}
		return finish(fmt.Errorf("commit digests: %w", err))
	}

	report.Committed = passed
	for i := range report.Packages {
		if d, ok := committed.Get(report.Packages[i].Path); ok && report.Packages[i].Passed {
			report.Packages[i].Digest = d
		}
	}
	p.logger.Info("registry updated",
		zap.String("backend", p.backend.Name()),
		zap.Int("committed", len(passed)))
	return finish(nil)
}

// process 处理单个变更包，失败时返回的结果带有所在步骤
func (p *Pipeline) process(det *detect.Detector, baseDir string, r detect.Result) journal.PackageResult {
	pkg := r.Package
	res := journal.PackageResult{Path: pkg.RelPath, Status: r.Status.String()}
	fail := func(stage journal.Stage, err error) journal.PackageResult {
		res.Stage = stage
		res.Error = err.Error()
		return res
	}

	// 1. 预检
	if err := precheck.Execute(pkg.Path, p.opts.Artifacts...); err != nil {
		return fail(journal.StagePrecheck, err)
	}

	// 2. 文档校验
	contracts := pkg.Contracts
	if p.opts.TrackContracts {
		changed, err := det.ChangedContracts(baseDir, pkg)
		if err != nil {
			return fail(journal.StageValidate, err)
		}
		contracts = changed
	}
	for _, file := range contracts {
		validate := contract.ValidateFile
		if p.opts.Collect {
			validate = contract.ValidateFileAll
		}
		if err := validate(file); err != nil {
			return fail(journal.StageValidate, err)
		}
		res.Contracts = append(res.Contracts, path.Join(pkg.RelPath, filepath.Base(file)))
	}

	// 3. 版本号
	old, next, err := p.opts.Mode.Apply(pkg.Path)
	res.OldVersion = old
	if err != nil {
		return fail(journal.StageVersion, err)
	}
	res.NewVersion = next

	res.Passed = true
	return res
}
