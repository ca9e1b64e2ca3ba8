package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"releasegate/pkg/ignore"
	"releasegate/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestFindPackages(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "connectors/slack/Ballerina.toml", "")
	touch(t, root, "connectors/slack/openapi.yaml", "")
	touch(t, root, "connectors/slack/spec.JSON", "")
	touch(t, root, "connectors/slack/docs/nested.yaml", "") // 不递归
	touch(t, root, "connectors/github/Ballerina.toml", "")
	touch(t, root, "connectors/github/README.md", "")
	touch(t, root, "services/echo/Ballerina.toml", "")
	touch(t, root, "services/echo/Ballerina.toml.bak", "") // 名字必须精确匹配
	touch(t, root, ".git/modules/x/Ballerina.toml", "")    // 被剪枝
	touch(t, root, "tools/readme.txt", "")

	pkgs, err := FindPackages(root, DefaultOptions())
	require.NoError(t, err)

	var rels []string
	for _, p := range pkgs {
		rels = append(rels, p.RelPath)
	}
	// 字典序遍历
	assert.Equal(t, []string{"connectors/github", "connectors/slack", "services/echo"}, rels)

	slack := pkgs[1]
	absRoot, _ := filepath.Abs(root)
	assert.Equal(t, filepath.Join(absRoot, "connectors", "slack"), slack.Path)
	assert.Equal(t, filepath.Join(slack.Path, ManifestName), slack.Manifest)
	assert.Equal(t, []string{
		filepath.Join(slack.Path, "openapi.yaml"),
		filepath.Join(slack.Path, "spec.JSON"),
	}, slack.Contracts)

	assert.Empty(t, pkgs[0].Contracts)
}

func TestFindPackages_RootPackage(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Ballerina.toml", "")

	pkgs, err := FindPackages(root, Options{})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, ".", pkgs[0].RelPath)
}

func TestFindPackages_CustomPrune(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a/Ballerina.toml", "")
	touch(t, root, "examples/b/Ballerina.toml", "")

	pkgs, err := FindPackages(root, Options{Prune: ignore.CompileRules("examples")})
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "a", pkgs[0].RelPath)
}

func TestFindPackages_InvalidInput(t *testing.T) {
	_, err := FindPackages(filepath.Join(t.TempDir(), "missing"), DefaultOptions())
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "svc/Ballerina.toml", "")
	touch(t, root, "svc/api.yml", "")

	pkg, err := Open(root, filepath.Join(root, "svc"))
	require.NoError(t, err)
	assert.Equal(t, "svc", pkg.RelPath)
	assert.Len(t, pkg.Contracts, 1)

	_, err = Open(root, filepath.Join(root, "nothing"))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestIsContract(t *testing.T) {
	assert.True(t, IsContract("openapi.yaml"))
	assert.True(t, IsContract("openapi.yml"))
	assert.True(t, IsContract("openapi.json"))
	assert.False(t, IsContract("Ballerina.toml"))
	assert.False(t, IsContract("yaml"))
}
