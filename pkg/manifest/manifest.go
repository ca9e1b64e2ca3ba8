// Package manifest reads and rewrites the version field of a package manifest.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"releasegate/pkg/discovery"
	"releasegate/pkg/types"
)

const (
	packageTable = "package"
	versionKey   = "version"
	nameKey      = "name"
)

// Manifest 是清单文件的内存表示
// 整张表以通用 map 形式保存，写回时除版本号外的值原样保留 (顺序与格式不保证)。
type Manifest struct {
	path  string
	table map[string]any
	pkg   map[string]any
}

// Load 读取并解码清单
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: manifest %s does not exist", types.ErrInvalidInput, path)
		}
		return nil, types.IOErrorf(err, "read manifest %s", path)
	}

	var table map[string]any
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: decode manifest %s: %w", types.ErrInvalidInput, path, err)
	}

	pkg, ok := table[packageTable].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: manifest %s has no [%s] table", types.ErrInvalidInput, path, packageTable)
	}
	if _, ok := pkg[versionKey].(string); !ok {
		return nil, fmt.Errorf("%w: manifest %s has no string %s.%s", types.ErrInvalidInput, path, packageTable, versionKey)
	}

	return &Manifest{path: path, table: table, pkg: pkg}, nil
}

// Path 返回清单文件路径
func (m *Manifest) Path() string { return m.path }

// Version 返回 package.version
func (m *Manifest) Version() string {
	v, _ := m.pkg[versionKey].(string)
	return v
}

// Name 返回 package.name，没有时为空串
func (m *Manifest) Name() string {
	n, _ := m.pkg[nameKey].(string)
	return n
}

// SetVersion 只替换 package 表中的 version 键
func (m *Manifest) SetVersion(v string) {
	m.pkg[versionKey] = v
}

// Save 把整张表序列化后原子写回
func (m *Manifest) Save() error {
	data, err := toml.Marshal(m.table)
	if err != nil {
		return fmt.Errorf("%w: encode manifest %s: %w", types.ErrInvalidInput, m.path, err)
	}
	return writeFileAtomic(m.path, data)
}

// writeFileAtomic 写临时文件再 Rename，失败时原文件不受影响
func writeFileAtomic(path string, data []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return types.IOErrorf(err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return types.IOErrorf(err, "write %s", tmp.Name())
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return types.IOErrorf(err, "chmod %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return types.IOErrorf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return types.IOErrorf(err, "replace manifest %s", path)
	}
	return nil
}

// --- 以包目录为参数的文件级操作 ---

func manifestPath(pkgDir string) string {
	return filepath.Join(pkgDir, discovery.ManifestName)
}

// mutate 加载清单，对版本号做变换后写回，返回新版本
func mutate(pkgDir string, fn func(string) (string, error)) (string, error) {
	m, err := Load(manifestPath(pkgDir))
	if err != nil {
		return "", err
	}
	next, err := fn(m.Version())
	if err != nil {
		return "", fmt.Errorf("%s: %w", m.path, err)
	}
	m.SetVersion(next)
	if err := m.Save(); err != nil {
		return "", err
	}
	return next, nil
}

// ReadVersion 返回包的当前版本
func ReadVersion(pkgDir string) (string, error) {
	m, err := Load(manifestPath(pkgDir))
	if err != nil {
		return "", err
	}
	return m.Version(), nil
}

// PackageName 返回 package.name，未声明时退回到目录名
func PackageName(pkgDir string) (string, error) {
	m, err := Load(manifestPath(pkgDir))
	if err != nil {
		return "", err
	}
	if n := m.Name(); n != "" {
		return n, nil
	}
	abs, err := filepath.Abs(pkgDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrInvalidInput, pkgDir, err)
	}
	return filepath.Base(abs), nil
}

// BumpPatch 把 patch 加一，原本带后缀的版本仍然带后缀
func BumpPatch(pkgDir string) (string, error) {
	return mutate(pkgDir, func(v string) (string, error) {
		sv, err := ParseSemVer(v)
		if err != nil {
			return "", err
		}
		next, err := sv.BumpPatch()
		if err != nil {
			return "", err
		}
		return next.String(), nil
	})
}

// AddPrereleaseSuffix 直接拼接后缀，不校验数字格式
func AddPrereleaseSuffix(pkgDir string) (string, error) {
	return mutate(pkgDir, func(v string) (string, error) {
		return v + Suffix, nil
	})
}

// RemovePrereleaseSuffix 删除版本号中出现的全部后缀
func RemovePrereleaseSuffix(pkgDir string) (string, error) {
	return mutate(pkgDir, func(v string) (string, error) {
		return strings.ReplaceAll(v, Suffix, ""), nil
	})
}
