// Package detect classifies discovered packages as changed or unchanged against the registry.
package detect

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"releasegate/pkg/discovery"
	"releasegate/pkg/fingerprint"
	"releasegate/pkg/registry"
	"releasegate/pkg/types"
)

// Status 是单个包的分类结果
type Status int

const (
	StatusUnchanged Status = iota
	StatusChanged          // 有历史摘要，但内容变了
	StatusNew              // 注册表里没有记录 (保守地视为变更)
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusChanged:
		return "changed"
	case StatusNew:
		return "new"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// IsChanged: new 和 changed 都需要进入后续流程
func (s Status) IsChanged() bool { return s != StatusUnchanged }

// Result 是一次分类的完整信息
type Result struct {
	Package discovery.Package
	Status  Status
	Old     types.Digest // 注册表中的旧摘要 (new 时为空)
	Current types.Digest // 本次计算的摘要 (new 时为空，不需要计算)
}

// Detector 组合指纹引擎与注册表
type Detector struct {
	reg       *registry.Registry
	engine    *fingerprint.Engine
	discovery discovery.Options
	workers   int
}

// Option 用于定制 Detector
type Option func(*Detector)

// WithWorkers 设置并发计算摘要的包数量 (每个摘要本身仍然是顺序遍历)
func WithWorkers(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithDiscovery 替换包扫描选项
func WithDiscovery(opts discovery.Options) Option {
	return func(d *Detector) { d.discovery = opts }
}

// New 构造 Detector
func New(reg *registry.Registry, engine *fingerprint.Engine, opts ...Option) *Detector {
	d := &Detector{
		reg:       reg,
		engine:    engine,
		discovery: discovery.DefaultOptions(),
		workers:   1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify 对单个包分类
func (d *Detector) Classify(ctx context.Context, pkg discovery.Package) (Result, error) {
	res := Result{Package: pkg}

	old, ok := d.reg.Get(pkg.RelPath)
	if !ok {
		// 首次出现的包一律视为变更，避免静默跳过
		res.Status = StatusNew
		return res, nil
	}
	res.Old = old

	if err := ctx.Err(); err != nil {
		return res, err
	}
	current, err := d.engine.Digest(pkg.Path)
	if err != nil {
		return res, fmt.Errorf("fingerprint %s: %w", pkg.RelPath, err)
	}
	res.Current = current

	if current.Equal(old) {
		res.Status = StatusUnchanged
	} else {
		res.Status = StatusChanged
	}
	return res, nil
}

// ClassifyAll 对一组包分类，结果顺序与输入一致
func (d *Detector) ClassifyAll(ctx context.Context, pkgs []discovery.Package) ([]Result, error) {
	results := make([]Result, len(pkgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, pkg := range pkgs {
		g.Go(func() error {
			res, err := d.Classify(ctx, pkg)
			if err != nil {
				return err
			}
			// 每个 goroutine 只写自己的下标，结果天然保持发现顺序
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Scan 发现 baseDir 下的全部包并分类
func (d *Detector) Scan(ctx context.Context, baseDir string) ([]Result, error) {
	pkgs, err := discovery.FindPackages(baseDir, d.discovery)
	if err != nil {
		return nil, err
	}
	return d.ClassifyAll(ctx, pkgs)
}

// FindChanged 返回 baseDir 下发生变化的包 (发现顺序，已去重)
func (d *Detector) FindChanged(ctx context.Context, baseDir string) ([]discovery.Package, error) {
	results, err := d.Scan(ctx, baseDir)
	if err != nil {
		return nil, err
	}

	var changed []discovery.Package
	seen := make(map[string]bool)
	for _, r := range results {
		if !r.Status.IsChanged() || seen[r.Package.Path] {
			continue
		}
		seen[r.Package.Path] = true
		changed = append(changed, r.Package)
	}
	return changed, nil
}

// ChangedContracts 返回包内内容发生变化的 API 描述文档
// 注册表 Key 为文档相对 baseDir 的路径
func (d *Detector) ChangedContracts(baseDir string, pkg discovery.Package) ([]string, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, baseDir, err)
	}

	var changed []string
	for _, file := range pkg.Contracts {
		rel, err := types.NewRelPath(root, file)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, file, err)
		}
		old, ok := d.reg.Get(rel.String())
		if !ok {
			changed = append(changed, file)
			continue
		}
		current, err := fingerprint.FileDigest(file)
		if err != nil {
			return nil, err
		}
		if !current.Equal(old) {
			changed = append(changed, file)
		}
	}
	return changed, nil
}
