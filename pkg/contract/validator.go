package contract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"releasegate/pkg/types"
)

// 唯一允许的扩展名及其字段
const (
	DisplayExtension = "x-display"
	LabelField       = "label"
	IconField        = "icon"
)

// 校验规则 (出现在 ValidationError.Rule 中)
const (
	RuleMissingExtension = "could not find OpenAPI extension 'x-display'"
	RuleMissingLabel     = "invalid 'x-display' extension, could not find the 'label' field"
	RuleMissingIcon      = "invalid 'x-display' extension, could not find the 'icon' field"
)

// RuleUnknownExtension 返回非 x-display 扩展对应的规则描述
func RuleUnknownExtension(name string) string {
	return fmt.Sprintf("unexpected extension '%s', only 'x-display' is allowed", name)
}

// Validate 依次检查 Info -> Paths -> Components，遇到第一个违规立即返回
func Validate(doc *Document) error {
	var first error
	walk(doc, func(e *types.ValidationError) bool {
		first = e
		return false
	})
	return first
}

// ValidateAll 收集全部违规，用 errors.Join 合并 (没有违规时返回 nil)
func ValidateAll(doc *Document) error {
	var errs []error
	walk(doc, func(e *types.ValidationError) bool {
		errs = append(errs, e)
		return true
	})
	return errors.Join(errs...)
}

// ValidateFile = Load + Validate
func ValidateFile(path string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	return Validate(doc)
}

// ValidateFileAll = Load + ValidateAll
func ValidateFileAll(path string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}
	return ValidateAll(doc)
}

// walk 按固定阶段遍历文档，emit 返回 false 时停止
func walk(doc *Document, emit func(*types.ValidationError) bool) {
	if doc == nil {
		emit(&types.ValidationError{Scope: types.ScopeDocument, Rule: "no document"})
		return
	}

	report := func(scope, location, rule string) bool {
		return emit(&types.ValidationError{Scope: scope, File: doc.Source, Rule: rule, Location: location})
	}

	// 1. Info (只有声明了 info 才检查)
	if doc.Info != nil {
		if rule := checkExtensions(doc.Info.Extensions, true); rule != "" {
			if !report(types.ScopeInfo, "", rule) {
				return
			}
		}
	}

	// 2. Paths: 每个路径的每个操作
	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			if rule := checkExtensions(op.Extensions, false); rule != "" {
				if !report(types.ScopePaths, strings.ToUpper(op.Method)+" "+item.Path, rule) {
					return
				}
			}
		}
	}

	// 3. Components parameters
	if doc.Components != nil {
		for _, p := range doc.Components.Parameters {
			if rule := checkExtensions(p.Extensions, false); rule != "" {
				if !report(types.ScopeComponents, "parameter "+p.Key, rule) {
					return
				}
			}
		}
	}
}

// checkExtensions 检查单个作用域的扩展映射，返回违反的规则 (合规时为空串)
func checkExtensions(exts map[string]any, requireIcon bool) string {
	// 空映射与未声明同等对待
	if len(exts) == 0 {
		return RuleMissingExtension
	}

	// 排序保证报错稳定
	names := make([]string, 0, len(exts))
	for name := range exts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name != DisplayExtension {
			return RuleUnknownExtension(name)
		}
	}

	// 值不是字段映射时视为未声明
	fields, ok := exts[DisplayExtension].(map[string]any)
	if !ok {
		return RuleMissingExtension
	}
	if !nonEmptyString(fields[LabelField]) {
		return RuleMissingLabel
	}
	if requireIcon && !nonEmptyString(fields[IconField]) {
		return RuleMissingIcon
	}
	return ""
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
