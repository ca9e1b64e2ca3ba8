// Package precheck verifies that a package carries its required documentation artifacts.
package precheck

import (
	"fmt"
	"os"
	"path/filepath"

	"releasegate/pkg/types"
)

// DefaultArtifact 是每个包必须提供的说明文档
const DefaultArtifact = "Package.md"

const (
	reasonMissing = "doesn't exist"
	reasonEmpty   = "is empty"
)

// Execute 检查 pkgPath 下的每个产物都存在且非空
// 没有传入 artifacts 时检查 DefaultArtifact。只读，不做任何修改。
func Execute(pkgPath string, artifacts ...string) error {
	info, err := os.Stat(pkgPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: package %s is not a directory", types.ErrInvalidInput, pkgPath)
	}

	if len(artifacts) == 0 {
		artifacts = []string{DefaultArtifact}
	}

	for _, name := range artifacts {
		fi, err := os.Stat(filepath.Join(pkgPath, name))
		switch {
		case os.IsNotExist(err):
			return &types.PrecheckError{Artifact: name, Package: pkgPath, Reason: reasonMissing}
		case err != nil:
			return types.IOErrorf(err, "stat %s in package %s", name, pkgPath)
		case fi.IsDir():
			return &types.PrecheckError{Artifact: name, Package: pkgPath, Reason: "is a directory"}
		case fi.Size() == 0:
			return &types.PrecheckError{Artifact: name, Package: pkgPath, Reason: reasonEmpty}
		}
	}
	return nil
}
