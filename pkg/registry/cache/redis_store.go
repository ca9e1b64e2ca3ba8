package cache

import (
	"context"
	"fmt"
	"time"

	"releasegate/pkg/types"

	"github.com/redis/go-redis/v9"
)

// DefaultKey 是注册表在 Redis 中的 Hash Key
const DefaultKey = "gate:registry"

// RedisStore 把注册表保存为一个 Redis Hash (field = 相对路径, value = 摘要)
// 适合多个 CI Runner 共享同一份注册表
type RedisStore struct {
	client *redis.Client
	key    string
}

type Config struct {
	RedisURL string // 标准连接字符串: redis://<user>:<password>@<host>:<port>/<db>
	Key      string // Hash Key，默认 gate:registry
}

// NewRedisStore 连接 Redis 并做一次 Ping (Fail-fast)
func NewRedisStore(cfg Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %w", types.ErrInvalidInput, err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, types.IOErrorf(err, "connect to redis")
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Name() string { return "redis:" + s.key }

// Load 读取整个 Hash；Key 不存在时 HGETALL 返回空 map
func (s *RedisStore) Load(ctx context.Context) (map[string]types.Digest, error) {
	vals, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, types.IOErrorf(err, "redis hgetall %s", s.key)
	}
	entries := make(map[string]types.Digest, len(vals))
	for k, v := range vals {
		entries[types.CleanPath(k)] = types.Digest(v)
	}
	return entries, nil
}

// Store 在 MULTI/EXEC 事务中 DEL + HSET，实现整体覆盖
func (s *RedisStore) Store(ctx context.Context, entries map[string]types.Digest) error {
	fields := make(map[string]any, len(entries))
	for k, v := range entries {
		fields[k] = v.String()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.key, fields)
		}
		return nil
	})
	if err != nil {
		return types.IOErrorf(err, "redis replace %s", s.key)
	}
	return nil
}

// Close 释放连接池
func (s *RedisStore) Close() error {
	return s.client.Close()
}
