package journal

import "releasegate/pkg/types"

// Stage 标记一个包在流水线中停下来的步骤
type Stage string

const (
	StagePrecheck Stage = "precheck"
	StageValidate Stage = "validate"
	StageVersion  Stage = "version"
	StageCommit   Stage = "commit"
)

// Report 是一次 gate run 的完整记录
type Report struct {
	BaseDir   string `cbor:"b"`
	Mode      string `cbor:"m"`  // 版本变更模式
	StartedAt int64  `cbor:"ts"` // Unix 秒
	Finished  int64  `cbor:"te"`

	Packages  []PackageResult `cbor:"p"`
	Committed []string        `cbor:"c"` // 已写入注册表的包 (相对路径)

	// Aborted 为 true 表示 fail-fast 中途停止
	Aborted bool   `cbor:"x"`
	Error   string `cbor:"e,omitempty"`
}

// PackageResult 记录单个变更包的处理结果
type PackageResult struct {
	Path       string       `cbor:"p"` // 相对 baseDir
	Status     string       `cbor:"s"` // new / changed
	Passed     bool         `cbor:"ok"`
	Stage      Stage        `cbor:"st,omitempty"` // 失败时所在步骤
	Error      string       `cbor:"e,omitempty"`
	OldVersion string       `cbor:"ov,omitempty"`
	NewVersion string       `cbor:"nv,omitempty"`
	Digest     types.Digest `cbor:"d,omitempty"` // 提交后的摘要
	Contracts  []string     `cbor:"k,omitempty"` // 已校验的 API 文档
}

// Failed 返回未通过的包
func (r *Report) Failed() []PackageResult {
	var out []PackageResult
	for _, p := range r.Packages {
		if !p.Passed {
			out = append(out, p)
		}
	}
	return out
}

// OK: 没有包失败且没有中止
func (r *Report) OK() bool {
	return !r.Aborted && r.Error == "" && len(r.Failed()) == 0
}
