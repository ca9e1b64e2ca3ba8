package commands

import (
	"path/filepath"

	"releasegate/pkg/types"
)

// relArg 把命令行给出的包路径转成注册表 Key
// 相对路径按 base dir 解释，与 Committer 保持一致
func relArg(p string) string {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(Gate.BaseDir, p)
	}
	rel, err := types.NewRelPath(Gate.BaseDir, abs)
	if err != nil {
		return types.CleanPath(p)
	}
	return rel.String()
}
