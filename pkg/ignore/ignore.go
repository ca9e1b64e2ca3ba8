package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// 默认排除项
const (
	HiddenMarker   = "."
	BuildOutputDir = "target"
	LockFile       = "Dependencies.toml"
	UserRulesFile  = ".gateignore"
)

// Predicate 判断一个条目名 (不含路径) 是否应被排除
type Predicate func(name string) bool

// HiddenPrefix 排除以 marker 开头的条目
func HiddenPrefix(marker string) Predicate {
	return func(name string) bool { return strings.HasPrefix(name, marker) }
}

// Named 精确匹配
func Named(n string) Predicate {
	return func(name string) bool { return name == n }
}

// Prefixed 前缀匹配
func Prefixed(prefix string) Predicate {
	return func(name string) bool { return strings.HasPrefix(name, prefix) }
}

// Policy 是一份显式的排除策略
// 名字谓词作用于单个条目名；Matcher 作用于相对根目录的路径
type Policy struct {
	predicates []Predicate
	matcher    *Matcher
}

// NewPolicy 由一组名字谓词构造策略
func NewPolicy(preds ...Predicate) *Policy {
	return &Policy{predicates: preds}
}

// DefaultPolicy: 隐藏条目 + 构建输出目录 + 依赖锁文件
func DefaultPolicy() *Policy {
	return NewPolicy(HiddenPrefix(HiddenMarker), Named(BuildOutputDir), Named(LockFile))
}

// LegacyPolicy 与旧版工具一致: 所有以 target 开头的条目都被跳过 (target-foo/ 也算)
func LegacyPolicy() *Policy {
	return NewPolicy(HiddenPrefix(HiddenMarker), Prefixed(BuildOutputDir), Named(LockFile))
}

// LoadPolicy 在默认策略基础上叠加 root/.gateignore 中的用户规则 (如果存在)
func LoadPolicy(root string) (*Policy, error) {
	return loadUserRules(root, DefaultPolicy())
}

// LoadLegacyPolicy 同 LoadPolicy，基础策略换成 LegacyPolicy
func LoadLegacyPolicy(root string) (*Policy, error) {
	return loadUserRules(root, LegacyPolicy())
}

func loadUserRules(root string, p *Policy) (*Policy, error) {
	ignoreFile := filepath.Join(root, UserRulesFile)
	if _, err := os.Stat(ignoreFile); err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	m, err := NewMatcher(ignoreFile)
	if err != nil {
		return nil, err
	}
	return p.WithMatcher(m), nil
}

// WithMatcher 返回带有路径规则的新策略 (原策略不变)
func (p *Policy) WithMatcher(m *Matcher) *Policy {
	preds := make([]Predicate, len(p.predicates))
	copy(preds, p.predicates)
	return &Policy{predicates: preds, matcher: m}
}

// With 返回追加了名字谓词的新策略 (原策略不变)
func (p *Policy) With(preds ...Predicate) *Policy {
	next := p.WithMatcher(p.matcher)
	next.predicates = append(next.predicates, preds...)
	return next
}

// Excludes 判断条目是否跳过
// relPath: 相对于被遍历根目录的路径 ("/" 分隔)，name: 条目名
func (p *Policy) Excludes(relPath, name string) bool {
	if p == nil {
		return false
	}
	for _, pred := range p.predicates {
		if pred(name) {
			return true
		}
	}
	return p.matcher.Matches(relPath)
}

// ExcludesDir 同 Excludes，额外用带尾部斜杠的形式匹配 ("generated/" 这类只针对目录的规则)
func (p *Policy) ExcludesDir(relPath, name string) bool {
	if p.Excludes(relPath, name) {
		return true
	}
	return p != nil && p.matcher.Matches(relPath+"/")
}

// Matcher 封装 gitignore 风格的路径规则
type Matcher struct {
	ignorer *gitignore.GitIgnore
}

// NewMatcher 编译规则文件，extraRules 会与文件内容合并
func NewMatcher(ruleFile string, extraRules ...string) (*Matcher, error) {
	ignorer, err := gitignore.CompileIgnoreFileAndLines(ruleFile, extraRules...)
	if err != nil {
		return nil, err
	}
	return &Matcher{ignorer: ignorer}, nil
}

// CompileRules 仅由规则行构造 Matcher
func CompileRules(rules ...string) *Matcher {
	return &Matcher{ignorer: gitignore.CompileIgnoreLines(rules...)}
}

// Matches 检查给定的相对路径是否命中规则
// 返回: true 表示应该忽略
func (m *Matcher) Matches(path string) bool {
	if m == nil || m.ignorer == nil || path == "" {
		return false
	}
	return m.ignorer.MatchesPath(path)
}
