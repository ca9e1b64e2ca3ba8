package manifest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"releasegate/pkg/types"
)

// Suffix 是唯一识别的预发布后缀
const Suffix = "-SNAPSHOT"

// SemVer 是 major.minor.patch 加一个预发布标记
type SemVer struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease bool
}

// ParseSemVer 解析 "1.2.3" 或 "1.2.3-SNAPSHOT"
// 去掉后缀后必须恰好是三段非负整数，否则返回 ErrInvalidVersion，不做任何默认填充。
func ParseSemVer(s string) (SemVer, error) {
	core, pre := strings.CutSuffix(s, Suffix)

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("%w: %q must have exactly three numeric components", types.ErrInvalidVersion, s)
	}

	var nums [3]int
	for i, p := range parts {
		// Atoi 接受 "+1"，这里只允许纯数字
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return SemVer{}, fmt.Errorf("%w: %q component %q is not a number", types.ErrInvalidVersion, s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return SemVer{}, fmt.Errorf("%w: %q component %q: %w", types.ErrInvalidVersion, s, p, err)
		}
		nums[i] = n
	}

	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

func (v SemVer) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease {
		s += Suffix
	}
	return s
}

// BumpPatch 返回 patch+1 的版本，预发布标记保持不变
// patch 已经是 int 最大值时返回 ErrInvalidVersion
func (v SemVer) BumpPatch() (SemVer, error) {
	if v.Patch == math.MaxInt {
		return v, fmt.Errorf("%w: patch component of %s cannot be incremented", types.ErrInvalidVersion, v)
	}
	v.Patch++
	return v, nil
}
