package detect

import (
	"os"
	"path/filepath"
	"testing"

	"releasegate/pkg/discovery"
	"releasegate/pkg/fingerprint"
	"releasegate/pkg/ignore"
	"releasegate/pkg/types"

	"github.com/stretchr/testify/require"
)

// writeFile 创建文件 (自动创建父目录)
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

// newMonorepo 搭建一个包含三个包的仓库
func newMonorepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "connectors/github/Ballerina.toml", "[package]\nversion = \"0.1.0\"\n")
	writeFile(t, root, "connectors/github/main.bal", "// github\n")
	writeFile(t, root, "connectors/github/openapi.yaml", "openapi: 3.0.0\n")
	writeFile(t, root, "connectors/slack/Ballerina.toml", "[package]\nversion = \"1.0.0\"\n")
	writeFile(t, root, "connectors/slack/main.bal", "// slack\n")
	writeFile(t, root, "services/echo/Ballerina.toml", "[package]\nversion = \"2.0.0\"\n")
	return root
}

func newEngine() *fingerprint.Engine {
	return fingerprint.NewEngine(ignore.DefaultPolicy())
}

func mustDigest(t *testing.T, dir string) types.Digest {
	t.Helper()
	d, err := newEngine().Digest(dir)
	require.NoError(t, err)
	return d
}

func mustOpen(t *testing.T, root, rel string) discovery.Package {
	t.Helper()
	pkg, err := discovery.Open(root, filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return pkg
}
