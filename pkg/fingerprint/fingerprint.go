// Package fingerprint computes reproducible content digests of package trees.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"

	"releasegate/pkg/ignore"
	"releasegate/pkg/types"
)

// Engine 计算目录树的内容指纹
type Engine struct {
	// Policy 决定哪些条目不参与哈希，nil 表示全部参与
	Policy *ignore.Policy

	// Legacy 为 true 时只串联文件内容 (与旧版注册表里的摘要兼容)。
	// 默认在每个文件内容前写入 "相对路径\x00大小\x00"，这样重命名、新增空文件也会改变摘要。
	Legacy bool
}

// NewEngine 使用给定策略构造引擎
func NewEngine(policy *ignore.Policy) *Engine {
	return &Engine{Policy: policy}
}

// Digest 是 NewEngine(policy).Digest(root) 的简写
func Digest(root string, policy *ignore.Policy) (types.Digest, error) {
	return NewEngine(policy).Digest(root)
}

// Digest 计算 root 目录的指纹
// 每一层都按名字字节序排序后再串联，因此结果与文件系统返回条目的顺序无关。
func (e *Engine) Digest(root string) (types.Digest, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s does not exist", types.ErrInvalidInput, root)
		}
		return "", types.IOErrorf(err, "stat %s", root)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", types.ErrInvalidInput, root)
	}

	h := md5.New()
	if err := e.hashDir(h, root, ""); err != nil {
		return "", err
	}
	return types.Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// FileDigest 计算单个文件内容的 MD5
func FileDigest(file string) (types.Digest, error) {
	h := md5.New()
	if err := hashFile(h, file); err != nil {
		return "", err
	}
	return types.Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// hashDir 递归处理一层目录
// rel 是相对于被哈希根目录的路径，供策略里的路径规则使用
func (e *Engine) hashDir(h hash.Hash, dir, rel string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.IOErrorf(err, "list %s", dir)
	}

	// os.ReadDir 已经排序，这里显式再排一次，不依赖实现细节
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		name := entry.Name()
		childRel := path.Join(rel, name)
		if e.Policy.Excludes(childRel, name) {
			continue
		}

		full := filepath.Join(dir, name)
		// 跟随符号链接判断真实类型
		fi, err := os.Stat(full)
		if err != nil {
			return types.IOErrorf(err, "stat %s", full)
		}

		if fi.IsDir() {
			if e.Policy.ExcludesDir(childRel, name) {
				continue
			}
			if err := e.hashDir(h, full, childRel); err != nil {
				return err
			}
			continue
		}

		if !e.Legacy {
			io.WriteString(h, childRel)
			h.Write([]byte{0})
			io.WriteString(h, strconv.FormatInt(fi.Size(), 10))
			h.Write([]byte{0})
		}
		if err := hashFile(h, full); err != nil {
			return err
		}
	}
	return nil
}

// hashFile 把单个文件写入 hasher，函数返回即关闭句柄
func hashFile(h hash.Hash, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return types.IOErrorf(err, "open %s", file)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return types.IOErrorf(err, "read %s", file)
	}
	return nil
}
