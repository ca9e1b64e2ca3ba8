// pkg/types/common.go
package types

import (
	"path/filepath"
	"strings"
)

// Digest 是一个包目录树的内容指纹 (MD5 Hex String)
// 值对象，不可变
type Digest string

func (d Digest) String() string { return string(d) }

func (d Digest) IsZero() bool { return d == "" }

// IsValid 简单的长度 + 字符集检查 (128 bit -> 32 个 hex 字符)
func (d Digest) IsValid() bool {
	if len(d) != 32 {
		return false
	}
	for _, c := range strings.ToLower(string(d)) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Equal 大小写不敏感比较 (旧的注册表可能存的是大写 hex)
func (d Digest) Equal(other Digest) bool {
	return strings.EqualFold(string(d), string(other))
}

// RelPath 是相对于注册表根目录的包路径，统一使用 "/" 分隔
// 它是注册表的 Key
type RelPath string

func (p RelPath) String() string { return string(p) }

// NewRelPath 计算 target 相对 base 的路径并清洗
func NewRelPath(base, target string) (RelPath, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return RelPath(CleanPath(rel)), nil
}

// CleanPath 统一路径格式 (去掉 ./ 和多余的分隔符，转成 "/")
func CleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
