package registry

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/magiconair/properties"

	"releasegate/pkg/types"
)

// 注册表文件格式: 每行一条 "relative/path=digest"
// 兼容 Java properties 语法 (注释、转义、续行)，因此老的注册表文件可以直接读取。

// Decode 解析注册表文本
func Decode(data []byte) (map[string]types.Digest, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed registry: %w", types.ErrInvalidInput, err)
	}
	entries := make(map[string]types.Digest, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		entries[types.CleanPath(k)] = types.Digest(v)
	}
	return entries, nil
}

// Encode 按 Key 排序输出注册表文本
func Encode(entries map[string]types.Digest) ([]byte, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := properties.NewProperties()
	p.DisableExpansion = true
	p.WriteSeparator = "="
	for _, k := range keys {
		if _, _, err := p.Set(k, entries[k].String()); err != nil {
			return nil, fmt.Errorf("encode registry entry %s: %w", k, err)
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
