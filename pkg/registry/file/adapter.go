package file

import (
	"context"
	"os"
	"path/filepath"

	"releasegate/pkg/registry"
	"releasegate/pkg/types"
)

// DefaultName 是注册表文件在 baseDir 下的固定文件名
const DefaultName = "gate.properties"

// Adapter 实现了 registry.Backend 接口，数据存放在本地文件
type Adapter struct {
	path string
}

// New 返回位于 baseDir/gate.properties 的文件后端
func New(baseDir string) *Adapter {
	return &Adapter{path: filepath.Join(baseDir, DefaultName)}
}

// NewAt 使用指定的文件路径
func NewAt(path string) *Adapter {
	return &Adapter{path: path}
}

func (a *Adapter) Name() string { return "file:" + a.path }

// Path 返回注册表文件的物理路径
func (a *Adapter) Path() string { return a.path }

// Load 读取注册表，文件不存在视为空注册表
func (a *Adapter) Load(ctx context.Context) (map[string]types.Digest, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return map[string]types.Digest{}, nil
	}
	if err != nil {
		return nil, types.IOErrorf(err, "read registry %s", a.path)
	}
	return registry.Decode(data)
}

// Store 整体覆盖写入
// 先写临时文件再 Rename，保证要么是旧文件，要么是完整的新文件。
func (a *Adapter) Store(ctx context.Context, entries map[string]types.Digest) error {
	data, err := registry.Encode(entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.IOErrorf(err, "create %s", dir)
	}

	tempFile, err := os.CreateTemp(dir, ".gate-registry-*")
	if err != nil {
		return types.IOErrorf(err, "create temp file in %s", dir)
	}
	// 如果成功 Rename 了，这个删除是无害的
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return types.IOErrorf(err, "write %s", tempFile.Name())
	}
	if err := tempFile.Close(); err != nil {
		return types.IOErrorf(err, "close %s", tempFile.Name())
	}

	if err := os.Rename(tempFile.Name(), a.path); err != nil {
		return types.IOErrorf(err, "replace registry %s", a.path)
	}
	return nil
}
