package types

import (
	"errors"
	"fmt"
)

// 错误分类 (Error Kinds)
// 所有组件都用 %w 包装这些哨兵错误，调用方通过 errors.Is 判断类别
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrIO             = errors.New("io error")
	ErrInvalidVersion = errors.New("invalid version")
	ErrValidation     = errors.New("validation failed")
	ErrPrecheck       = errors.New("precheck failed")
)

// 契约文档的作用域
const (
	ScopeDocument   = "Document"
	ScopeInfo       = "Info"
	ScopePaths      = "Paths"
	ScopeComponents = "Components"
)

// ValidationError 描述契约文档违反元数据约定的位置
type ValidationError struct {
	Scope    string // Info / Paths / Components / Document
	File     string // 源文件路径
	Rule     string // 违反的具体规则
	Location string // 可选: "GET /pets"、"parameter limit" 等
}

func (e *ValidationError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s in '%s' (%s): %s", e.Rule, e.Scope, e.Location, e.File)
	}
	return fmt.Sprintf("%s in '%s': %s", e.Rule, e.Scope, e.File)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PrecheckError 表示必需的文档产物缺失或为空
type PrecheckError struct {
	Artifact string
	Package  string
	Reason   string // "doesn't exist" / "is empty"
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("%s %s in package %s", e.Artifact, e.Reason, e.Package)
}

func (e *PrecheckError) Unwrap() error { return ErrPrecheck }

// IOErrorf 用 ErrIO 包装底层错误，同时保留原始错误链
func IOErrorf(cause error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, fmt.Sprintf(format, args...), cause)
}
