package detect

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"releasegate/pkg/discovery"
	"releasegate/pkg/fingerprint"
	"releasegate/pkg/ignore"
	"releasegate/pkg/registry"
	"releasegate/pkg/types"
)

// Committer 把新摘要写回注册表
type Committer struct {
	backend registry.Backend
	engine  *fingerprint.Engine
	workers int

	// TrackContracts 为 true 时，同时记录包内每个 API 描述文档的单文件摘要
	// (供 Detector.ChangedContracts 使用)
	TrackContracts bool
}

// NewCommitter 构造 Committer，workers <= 0 时按 1 处理
func NewCommitter(backend registry.Backend, engine *fingerprint.Engine, workers int) *Committer {
	if workers <= 0 {
		workers = 1
	}
	return &Committer{backend: backend, engine: engine, workers: workers}
}

// Commit 为 pkgPaths 计算新摘要并持久化
// 1. 加载注册表  2. 先算完全部摘要  3. 任何一个失败 -> 直接返回，不写入
// 4. 全部成功后 upsert 并一次性整体覆盖写回
func (c *Committer) Commit(ctx context.Context, baseDir string, pkgPaths []string) (*registry.Registry, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, baseDir, err)
	}

	reg, err := registry.Load(ctx, c.backend)
	if err != nil {
		return nil, err
	}

	// 每个包的结果: 包摘要 + (可选) 文档摘要
	results := make([]map[string]types.Digest, len(pkgPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, p := range pkgPaths {
		g.Go(func() error {
			abs := p
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(root, p)
			}
			rel, err := types.NewRelPath(root, abs)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, p, err)
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := c.engine.Digest(abs)
			if err != nil {
				return fmt.Errorf("fingerprint %s: %w", rel, err)
			}
			out := map[string]types.Digest{rel.String(): d}

			if c.TrackContracts {
				files, err := discovery.FindContracts(abs)
				if err != nil {
					return err
				}
				for _, f := range files {
					fd, err := fingerprint.FileDigest(f)
					if err != nil {
						return err
					}
					fr, err := types.NewRelPath(root, f)
					if err != nil {
						return fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, f, err)
					}
					out[fr.String()] = fd
				}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// 没有任何写入发生
		return nil, err
	}

	for _, out := range results {
		for k, d := range out {
			reg.Put(k, d)
		}
	}
	if err := registry.Persist(ctx, c.backend, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Commit 是 Committer 的便捷形式 (单 worker，不记录文档摘要)
func Commit(ctx context.Context, backend registry.Backend, baseDir string, pkgPaths []string, policy *ignore.Policy) (*registry.Registry, error) {
	return NewCommitter(backend, fingerprint.NewEngine(policy), 1).Commit(ctx, baseDir, pkgPaths)
}
