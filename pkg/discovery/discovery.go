// Package discovery finds the packages of a monorepo by scanning for manifest files.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"releasegate/pkg/ignore"
	"releasegate/pkg/types"
)

// ManifestName 是标识包根目录的清单文件名
const ManifestName = "Ballerina.toml"

// ContractExtensions 是 API 描述文档可识别的扩展名
var ContractExtensions = []string{".yaml", ".yml", ".json"}

// Package 代表一次扫描中发现的包
type Package struct {
	Path      string   // 包根目录的绝对路径
	RelPath   string   // 相对 baseDir 的路径 ("/" 分隔)，注册表的 Key
	Manifest  string   // 清单文件绝对路径
	Contracts []string // 包根目录下的 API 描述文档 (绝对路径，已排序)
}

// Options 控制扫描行为
type Options struct {
	// Prune 命中的目录不会被深入遍历 (路径相对 baseDir)
	Prune *ignore.Matcher
}

// DefaultOptions 只跳过 .git
func DefaultOptions() Options {
	return Options{Prune: ignore.CompileRules(".git")}
}

// FindPackages 遍历 baseDir，收集所有包含清单文件的目录
// 顺序 = 遍历顺序 (字典序)，重复路径只保留第一次出现
func FindPackages(baseDir string, opts Options) ([]Package, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, baseDir, err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrInvalidInput, baseDir)
	}

	var pkgs []Package
	seen := make(map[string]bool)

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return types.IOErrorf(err, "walk %s", path)
		}

		if d.IsDir() {
			if path != root {
				rel, _ := types.NewRelPath(root, path)
				if opts.Prune.Matches(rel.String()) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if d.Name() != ManifestName {
			return nil
		}

		dir := filepath.Dir(path)
		if seen[dir] {
			return nil
		}
		seen[dir] = true

		pkg, err := newPackage(root, dir)
		if err != nil {
			return err
		}
		pkgs = append(pkgs, pkg)
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}
	return pkgs, nil
}

// Open 把单个目录当作包打开 (要求存在清单文件)
func Open(baseDir, pkgDir string) (Package, error) {
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return Package{}, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, baseDir, err)
	}
	dir, err := filepath.Abs(pkgDir)
	if err != nil {
		return Package{}, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, pkgDir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
		return Package{}, fmt.Errorf("%w: %s has no %s", types.ErrInvalidInput, pkgDir, ManifestName)
	}
	return newPackage(root, dir)
}

func newPackage(root, dir string) (Package, error) {
	rel, err := types.NewRelPath(root, dir)
	if err != nil {
		return Package{}, fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, dir, err)
	}
	contracts, err := FindContracts(dir)
	if err != nil {
		return Package{}, err
	}
	return Package{
		Path:      dir,
		RelPath:   rel.String(),
		Manifest:  filepath.Join(dir, ManifestName),
		Contracts: contracts,
	}, nil
}

// FindContracts 列出包根目录下 (不递归) 的 API 描述文档
func FindContracts(pkgDir string) ([]string, error) {
	entries, err := os.ReadDir(pkgDir)
	if err != nil {
		return nil, types.IOErrorf(err, "list %s", pkgDir)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsContract(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(pkgDir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// IsContract 判断文件名是否为可识别的 API 描述文档
func IsContract(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range ContractExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
