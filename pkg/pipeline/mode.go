package pipeline

import (
	"fmt"

	"releasegate/pkg/manifest"
	"releasegate/pkg/types"
)

// Mode 决定通过检查的包如何修改版本号
type Mode string

const (
	ModeBump           Mode = "bump"
	ModeSnapshotAdd    Mode = "snapshot-add"
	ModeSnapshotRemove Mode = "snapshot-remove"
	ModeNone           Mode = "none"
)

// ParseMode 解析配置中的字符串，空串等同于 bump
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeBump, nil
	case ModeBump, ModeSnapshotAdd, ModeSnapshotRemove, ModeNone:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown version mode %q", types.ErrInvalidInput, s)
	}
}

// Apply 对 pkgDir 执行版本变更，返回 (旧版本, 新版本)
func (m Mode) Apply(pkgDir string) (string, string, error) {
	old, err := manifest.ReadVersion(pkgDir)
	if err != nil {
		return "", "", err
	}

	var next string
	switch m {
	case ModeBump:
		next, err = manifest.BumpPatch(pkgDir)
	case ModeSnapshotAdd:
		next, err = manifest.AddPrereleaseSuffix(pkgDir)
	case ModeSnapshotRemove:
		next, err = manifest.RemovePrereleaseSuffix(pkgDir)
	case ModeNone:
		next = old
	default:
		err = fmt.Errorf("%w: unknown version mode %q", types.ErrInvalidInput, string(m))
	}
	if err != nil {
		return old, "", err
	}
	return old, next, nil
}
