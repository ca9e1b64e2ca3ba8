package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"releasegate/pkg/fingerprint"
	"releasegate/pkg/ignore"
	"releasegate/pkg/journal"
	"releasegate/pkg/manifest"
	"releasegate/pkg/registry"
	"releasegate/pkg/registry/file"
	"releasegate/pkg/types"
)

const goodContract = `openapi: 3.0.1
info:
  title: Echo
  x-display:
    label: Echo
    icon: icon.png
paths:
  /echo:
    post:
      x-display:
        label: Echo message
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

// addPackage 创建一个能通过全部检查的包
func addPackage(t *testing.T, root, rel, version string) {
	t.Helper()
	writeFile(t, root, rel+"/Ballerina.toml", "[package]\nname = \"pkg\"\nversion = \""+version+"\"\n")
	writeFile(t, root, rel+"/Package.md", "# docs\n")
	writeFile(t, root, rel+"/main.bal", "// "+rel+"\n")
	writeFile(t, root, rel+"/openapi.yaml", goodContract)
}

func newPipeline(root string, opts Options) (*Pipeline, *file.Adapter) {
	backend := file.New(root)
	engine := fingerprint.NewEngine(ignore.DefaultPolicy())
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	return New(backend, engine, opts, WithLogger(zap.NewNop()), WithClock(clock)), backend
}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "echo", "0.1.0")

	p, backend := newPipeline(root, Options{})
	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, report.OK())

	require.Len(t, report.Packages, 1)
	res := report.Packages[0]
	assert.Equal(t, "echo", res.Path)
	assert.Equal(t, "new", res.Status)
	assert.Equal(t, "0.1.0", res.OldVersion)
	assert.Equal(t, "0.1.1", res.NewVersion)
	assert.Equal(t, []string{"echo/openapi.yaml"}, res.Contracts)

	v, err := manifest.ReadVersion(filepath.Join(root, "echo"))
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", v)

	// 注册表只有一条，且等于版本修改后的最新摘要
	reg, err := registry.Load(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	want, err := fingerprint.Digest(filepath.Join(root, "echo"), ignore.DefaultPolicy())
	require.NoError(t, err)
	got, _ := reg.Get("echo")
	assert.Equal(t, want, got)
	assert.Equal(t, want, res.Digest)
	assert.Equal(t, []string{"echo"}, report.Committed)

	// 第二次运行: 没有变更
	report, err = p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, report.Packages)
	assert.Empty(t, report.Committed)
}

func TestRun_PerPackageFailures(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "a-good", "1.0.0")
	addPackage(t, root, "b-nodocs", "1.0.0")
	require.NoError(t, os.Remove(filepath.Join(root, "b-nodocs", "Package.md")))
	addPackage(t, root, "c-badcontract", "1.0.0")
	writeFile(t, root, "c-badcontract/openapi.yaml", "openapi: 3.0.0\ninfo:\n  title: t\n")
	addPackage(t, root, "d-badversion", "1.0")

	p, backend := newPipeline(root, Options{Mode: ModeBump})
	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.False(t, report.Aborted)

	require.Len(t, report.Packages, 4)
	stages := map[string]journal.Stage{}
	for _, r := range report.Packages {
		stages[r.Path] = r.Stage
	}
	assert.Equal(t, map[string]journal.Stage{
		"a-good":        "",
		"b-nodocs":      journal.StagePrecheck,
		"c-badcontract": journal.StageValidate,
		"d-badversion":  journal.StageVersion,
	}, stages)

	// 只有通过的包被提交
	reg, err := registry.Load(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-good"}, reg.Keys())

	// 失败包的版本未被修改
	v, err := manifest.ReadVersion(filepath.Join(root, "c-badcontract"))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v)
}

func TestRun_FailFast(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "a", "1.0.0")
	addPackage(t, root, "b", "1.0.0")
	require.NoError(t, os.Remove(filepath.Join(root, "b", "Package.md")))
	addPackage(t, root, "c", "1.0.0")

	p, backend := newPipeline(root, Options{FailFast: true, Mode: ModeNone})
	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, report.Aborted)
	assert.Len(t, report.Packages, 2, "c is never processed")

	reg, err := registry.Load(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, reg.Keys())
}

func TestRun_CollectViolations(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "x", "1.0.0")
	writeFile(t, root, "x/openapi.yaml", "openapi: 3.0.0\ninfo:\n  title: t\npaths:\n  /a:\n    get: {}\n")

	p, _ := newPipeline(root, Options{Collect: true})
	report, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Packages, 1)
	assert.Contains(t, report.Packages[0].Error, "'Info'")
	assert.Contains(t, report.Packages[0].Error, "'Paths'")
}

func TestRun_CommitFailureLeavesRegistry(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "a", "1.0.0")

	p, _ := newPipeline(root, Options{Mode: ModeNone})
	p.backend = failingBackend{}
	report, err := p.Run(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, journal.StageCommit, report.Packages[0].Stage)
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Load(ctx context.Context) (map[string]types.Digest, error) {
	return map[string]types.Digest{}, nil
}
func (failingBackend) Store(ctx context.Context, entries map[string]types.Digest) error {
	return types.IOErrorf(os.ErrPermission, "store")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBump, m)

	m, err = ParseMode("snapshot-remove")
	require.NoError(t, err)
	assert.Equal(t, ModeSnapshotRemove, m)

	_, err = ParseMode("major")
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestMode_Apply(t *testing.T) {
	root := t.TempDir()
	addPackage(t, root, "p", "2.3.4")
	dir := filepath.Join(root, "p")

	old, next, err := ModeSnapshotAdd.Apply(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.3.4", old)
	assert.Equal(t, "2.3.4-SNAPSHOT", next)

	_, next, err = ModeBump.Apply(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.3.5-SNAPSHOT", next)

	_, next, err = ModeSnapshotRemove.Apply(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.3.5", next)

	_, next, err = ModeNone.Apply(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.3.5", next)
}
