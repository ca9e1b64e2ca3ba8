package contract

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"releasegate/pkg/types"
)

const extensionPrefix = "x-"

// Load 读取并解析 YAML / JSON 文档
// 读取失败返回 ErrIO; 无法解析或缺少 openapi/swagger 字段返回 Document 作用域的 ValidationError。
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.IOErrorf(err, "read contract %s", path)
	}
	return Parse(path, data)
}

// Parse 从内存中的字节解析文档，source 只用于错误信息
func Parse(source string, data []byte) (*Document, error) {
	docErr := func(format string, args ...any) error {
		return &types.ValidationError{
			Scope: types.ScopeDocument,
			File:  source,
			Rule:  fmt.Sprintf(format, args...),
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, docErr("parse error: %v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, docErr("parse error: empty document")
	}
	top := resolve(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, docErr("parse error: top level is not a mapping")
	}

	doc := &Document{Source: source}

	version, ok := scalar(lookup(top, "openapi"))
	if !ok {
		version, ok = scalar(lookup(top, "swagger"))
	}
	if !ok || version == "" {
		return nil, docErr("parse error: missing 'openapi' or 'swagger' version field")
	}
	doc.Version = version

	if n := lookup(top, "info"); isMapping(n) {
		info := &Info{}
		info.Title, _ = scalar(lookup(n, "title"))
		exts, err := extensions(n)
		if err != nil {
			return nil, docErr("info: %v", err)
		}
		info.Extensions = exts
		doc.Info = info
	}

	if n := lookup(top, "paths"); isMapping(n) {
		items, err := pathItems(n)
		if err != nil {
			return nil, docErr("paths: %v", err)
		}
		doc.Paths = items
	}

	if n := lookup(top, "components"); isMapping(n) {
		comp := &Components{}
		if params := lookup(n, "parameters"); isMapping(params) {
			list, err := parameters(params)
			if err != nil {
				return nil, docErr("components: %v", err)
			}
			comp.Parameters = list
		}
		doc.Components = comp
	}

	return doc, nil
}

func pathItems(n *yaml.Node) ([]PathItem, error) {
	var items []PathItem
	err := eachPair(n, func(key string, val *yaml.Node) error {
		item := PathItem{Path: key}
		if !isMapping(val) {
			items = append(items, item)
			return nil
		}
		for _, m := range Methods {
			op := lookup(val, m)
			if !isMapping(op) {
				continue
			}
			exts, err := extensions(op)
			if err != nil {
				return fmt.Errorf("%s %s: %w", strings.ToUpper(m), key, err)
			}
			id, _ := scalar(lookup(op, "operationId"))
			item.Operations = append(item.Operations, Operation{Method: m, OperationID: id, Extensions: exts})
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func parameters(n *yaml.Node) ([]Parameter, error) {
	var list []Parameter
	err := eachPair(n, func(key string, val *yaml.Node) error {
		p := Parameter{Key: key}
		if isMapping(val) {
			p.Name, _ = scalar(lookup(val, "name"))
			p.In, _ = scalar(lookup(val, "in"))
			exts, err := extensions(val)
			if err != nil {
				return fmt.Errorf("parameter %s: %w", key, err)
			}
			p.Extensions = exts
		}
		list = append(list, p)
		return nil
	})
	return list, err
}

// extensions 收集映射节点中所有 "x-" 开头的键，没有时返回 nil
func extensions(n *yaml.Node) (map[string]any, error) {
	var out map[string]any
	err := eachPair(n, func(key string, val *yaml.Node) error {
		if !strings.HasPrefix(key, extensionPrefix) {
			return nil
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[key] = v
		return nil
	})
	return out, err
}

// --- yaml.Node 小工具 ---

// resolve 展开别名节点
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isMapping(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.MappingNode
}

// lookup 在映射节点中按键查找值节点 (已展开别名)
func lookup(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if !isMapping(n) {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

func scalar(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// eachPair 按文档顺序遍历映射节点
func eachPair(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	n = resolve(n)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, resolve(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}
