// Package contract loads API description documents and enforces the x-display metadata convention.
package contract

// Document 是 API 描述文档中与校验相关的部分
// 各作用域的 Extensions 只包含 "x-" 开头的键，没有声明时为 nil。
type Document struct {
	Source     string // 文件路径
	Version    string // openapi / swagger 字段的值
	Info       *Info
	Paths      []PathItem // 文档顺序
	Components *Components
}

type Info struct {
	Title      string
	Extensions map[string]any
}

type PathItem struct {
	Path       string
	Operations []Operation // 固定方法顺序
}

type Operation struct {
	Method      string // 小写，如 "get"
	OperationID string
	Extensions  map[string]any
}

type Components struct {
	Parameters []Parameter // 文档顺序
}

// Parameter 是 components.parameters 下的一个可复用参数
type Parameter struct {
	Key        string // components.parameters 中的键
	Name       string
	In         string
	Extensions map[string]any
}

// Methods 是遍历 PathItem 操作时使用的固定顺序
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}
