// Package journal keeps a content-addressed history of gate runs.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"releasegate/pkg/types"
)

var (
	ErrNotFound = errors.New("report not found")
	ErrNoRuns   = errors.New("no runs recorded")
)

// Dir 是 baseDir 下的数据目录，以 "." 开头，不参与任何包的指纹
const Dir = ".gate"

const lastRef = "LAST"

// Journal 把报告按 ID 分片存放在 <baseDir>/.gate/runs 下
type Journal struct {
	root string // 比如: /repo/.gate/runs
}

// New 返回 baseDir 对应的 Journal
func New(baseDir string) *Journal {
	return &Journal{root: filepath.Join(baseDir, Dir, "runs")}
}

// Root 返回存储目录
func (j *Journal) Root() string { return j.root }

// layout: ID "aabbcc..." -> root/aa/bbcc...
func (j *Journal) layout(id string) string {
	if len(id) < 2 {
		return filepath.Join(j.root, id)
	}
	return filepath.Join(j.root, id[:2], id[2:])
}

// Put 写入报告并把 LAST 指向它，返回报告 ID
func (j *Journal) Put(r *Report) (string, error) {
	data, id, err := Encode(r)
	if err != nil {
		return "", err
	}

	target := j.layout(id)
	// 1. 幂等: 相同内容只写一次
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := writeAtomic(target, data); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", types.IOErrorf(err, "stat %s", target)
	}

	// 2. 更新 LAST
	if err := writeAtomic(filepath.Join(j.root, lastRef), []byte(id+"\n")); err != nil {
		return "", err
	}
	return id, nil
}

// validID: ID 必须是完整的 SHA-256 hex，防止 "../" 之类的路径逃出 runs 目录
func validID(id string) bool {
	if len(id) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// Get 按 ID 读取报告
func (j *Journal) Get(id string) (*Report, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: malformed run id %q", types.ErrInvalidInput, id)
	}
	data, err := os.ReadFile(j.layout(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, types.IOErrorf(err, "read report %s", id)
	}
	return Decode(data)
}

// LastID 返回最近一次报告的 ID
func (j *Journal) LastID() (string, error) {
	data, err := os.ReadFile(filepath.Join(j.root, lastRef))
	if os.IsNotExist(err) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", types.IOErrorf(err, "read %s", lastRef)
	}
	return strings.TrimSpace(string(data)), nil
}

// Last 返回最近一次报告及其 ID
func (j *Journal) Last() (*Report, string, error) {
	id, err := j.LastID()
	if err != nil {
		return nil, "", err
	}
	r, err := j.Get(id)
	if err != nil {
		return nil, "", err
	}
	return r, id, nil
}

// writeAtomic 先写临时文件再 Rename，保证要么不存在，要么完整
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.IOErrorf(err, "create %s", dir)
	}
	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return types.IOErrorf(err, "create temp file in %s", dir)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return types.IOErrorf(err, "write %s", tempFile.Name())
	}
	if err := tempFile.Close(); err != nil {
		return types.IOErrorf(err, "close %s", tempFile.Name())
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		return types.IOErrorf(err, "rename to %s", path)
	}
	return nil
}
