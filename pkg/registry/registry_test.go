package registry

import (
	"context"
	"errors"
	"testing"

	"releasegate/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBackend 是一个内存后端，统计 Store 调用次数
type memBackend struct {
	entries  map[string]types.Digest
	stores   int
	storeErr error
}

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) Load(ctx context.Context) (map[string]types.Digest, error) {
	out := make(map[string]types.Digest, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *memBackend) Store(ctx context.Context, entries map[string]types.Digest) error {
	m.stores++
	if m.storeErr != nil {
		return m.storeErr
	}
	m.entries = entries
	return nil
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Len())

	_, ok := r.Get("connectors/github")
	assert.False(t, ok)

	r.Put("connectors/github", "aaaa")
	r.Put("./connectors/slack", "bbbb") // 路径会被清洗

	d, ok := r.Get("connectors/github")
	assert.True(t, ok)
	assert.Equal(t, types.Digest("aaaa"), d)

	d, ok = r.Get("connectors/slack")
	assert.True(t, ok)
	assert.Equal(t, types.Digest("bbbb"), d)

	// upsert
	r.Put("connectors/github", "cccc")
	d, _ = r.Get("connectors/github")
	assert.Equal(t, types.Digest("cccc"), d)

	assert.Equal(t, []string{"connectors/github", "connectors/slack"}, r.Keys())

	// Entries 是副本
	snap := r.Entries()
	snap["x"] = "y"
	assert.Equal(t, 2, r.Len())
}

func TestLoadPersist(t *testing.T) {
	ctx := context.Background()
	b := &memBackend{entries: map[string]types.Digest{"a": "1111"}}

	r, err := Load(ctx, b)
	require.NoError(t, err)
	d, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, types.Digest("1111"), d)

	r.Put("b", "2222")
	require.NoError(t, Persist(ctx, b, r))
	assert.Equal(t, 1, b.stores)
	assert.Equal(t, map[string]types.Digest{"a": "1111", "b": "2222"}, b.entries)
}

func TestPersist_BackendError(t *testing.T) {
	b := &memBackend{storeErr: errors.New("disk full")}
	err := Persist(context.Background(), b, New())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "mem")
}

func TestNilBackend(t *testing.T) {
	_, err := Load(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilBackend)
	assert.ErrorIs(t, Persist(context.Background(), nil, New()), ErrNilBackend)
}

func TestCodec_RoundTrip(t *testing.T) {
	entries := map[string]types.Digest{
		"connectors/slack":    "0f343b0931126a20f133d67c2b018a3b",
		"connectors/github":   "5eb63bbbe01eeed093cb22bb8f5acdc3",
		"services/with space": "d41d8cd98f00b204e9800998ecf8427e",
	}

	data, err := Encode(entries)
	require.NoError(t, err)

	// 按 Key 排序，每行 key=value
	assert.Contains(t, string(data), "connectors/github=5eb63bbbe01eeed093cb22bb8f5acdc3\n")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestDecode_JavaStyle(t *testing.T) {
	// 旧工具写出的文件：带时间戳注释，冒号被转义
	data := []byte("#Mon Jan 01 00:00:00 UTC 2024\n" +
		"openapi/github=5EB63BBBE01EEED093CB22BB8F5ACDC3\n" +
		"\n" +
		"! another comment\n" +
		"services/a\\:b=d41d8cd98f00b204e9800998ecf8427e\n")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, types.Digest("5EB63BBBE01EEED093CB22BB8F5ACDC3"), got["openapi/github"])
	assert.Equal(t, types.Digest("d41d8cd98f00b204e9800998ecf8427e"), got["services/a:b"])
}
