// Package registry holds the persisted mapping from package path to last-known digest.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"releasegate/pkg/types"
)

var ErrNilBackend = errors.New("registry backend is nil")

// Backend 定义了注册表的持久化后端
// 实现可以是本地文件、S3、Redis 或者 SQL 数据库。
// Store 必须是整体覆盖 (full overwrite)，且要么全部成功要么什么都不写。
type Backend interface {
	// Load 读取全部条目；后端中没有任何数据时返回空 map 而不是错误
	Load(ctx context.Context) (map[string]types.Digest, error)

	// Store 用 entries 整体替换后端中的内容
	Store(ctx context.Context, entries map[string]types.Digest) error

	// Name 用于日志与错误信息
	Name() string
}

// Registry 是一次运行内的注册表状态
// 它由调用方 (流水线) 持有并显式传递，没有任何包级别的全局状态。
type Registry struct {
	mu      sync.RWMutex
	entries map[string]types.Digest
}

// New 返回一个空注册表
func New() *Registry {
	return &Registry{entries: make(map[string]types.Digest)}
}

// FromEntries 用已有条目构造注册表 (会复制一份)
func FromEntries(entries map[string]types.Digest) *Registry {
	r := New()
	for k, v := range entries {
		r.entries[types.CleanPath(k)] = v
	}
	return r
}

// Get 按相对路径查询摘要
func (r *Registry) Get(rel string) (types.Digest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[types.CleanPath(rel)]
	return d, ok
}

// Put 插入或覆盖一条记录 (upsert，从不自动删除)
func (r *Registry) Put(rel string, d types.Digest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[types.CleanPath(rel)] = d
}

// Len 条目数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys 返回排序后的全部 Key
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries 返回条目的副本
func (r *Registry) Entries() map[string]types.Digest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]types.Digest, len(r.entries))
	maps.Copy(snap, r.entries)
	return snap
}

// Load 从后端加载注册表
func Load(ctx context.Context, b Backend) (*Registry, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	entries, err := b.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry from %s: %w", b.Name(), err)
	}
	return FromEntries(entries), nil
}

// Persist 把注册表整体写回后端
func Persist(ctx context.Context, b Backend, r *Registry) error {
	if b == nil {
		return ErrNilBackend
	}
	if err := b.Store(ctx, r.Entries()); err != nil {
		return fmt.Errorf("persist registry to %s: %w", b.Name(), err)
	}
	return nil
}
