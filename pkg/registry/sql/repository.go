package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"releasegate/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver string // "sqlite" 或 "postgres"
	DSN    string // sqlite: 文件路径; postgres: "host=... user=... dbname=..."
}

// Repository 实现了 registry.Backend 接口，数据存放在 SQL 数据库
type Repository struct {
	db *gorm.DB
}

// Open 根据配置打开数据库并迁移表结构
func Open(ctx context.Context, cfg Config) (*Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		if isFilePath(cfg.DSN) {
			// 首次使用时 .gate 目录可能还不存在
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
				return nil, types.IOErrorf(err, "create sqlite directory")
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unsupported sql driver: %s", types.ErrInvalidInput, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		closeDB(db)
		return nil, types.IOErrorf(err, "connect to %s database", cfg.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, types.IOErrorf(err, "database ping failed")
	}

	repo, err := NewWithConn(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return repo, nil
}

// isFilePath 判断 sqlite DSN 是否为普通文件路径 (排除内存库与 file: URI)
func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewWithConn 使用现有的 GORM 连接 (依赖注入 / 单元测试)
func NewWithConn(conn *gorm.DB) (*Repository, error) {
	if err := conn.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("auto migration failed: %w", err)
	}
	return &Repository{db: conn}, nil
}

func (r *Repository) Name() string { return "sql:" + r.db.Dialector.Name() }

// Load 读取最新快照；没有快照时返回空注册表
func (r *Repository) Load(ctx context.Context) (map[string]types.Digest, error) {
	var snap Snapshot
	err := r.db.WithContext(ctx).Order("id DESC").First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]types.Digest{}, nil
	}
	if err != nil {
		return nil, types.IOErrorf(err, "query latest registry snapshot")
	}

	entries := make(map[string]types.Digest)
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		return nil, fmt.Errorf("%w: corrupted registry snapshot %d: %w", types.ErrInvalidInput, snap.ID, err)
	}
	return entries, nil
}

// Store 在事务中插入一份新快照
func (r *Repository) Store(ctx context.Context, entries map[string]types.Digest) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap := Snapshot{
			Entries: datatypes.JSON(data),
			Count:   len(entries),
		}
		if err := tx.Create(&snap).Error; err != nil {
			return types.IOErrorf(err, "insert registry snapshot")
		}
		return nil
	})
}

// History 返回最近 limit 份快照 (新的在前)
func (r *Repository) History(ctx context.Context, limit int) ([]Snapshot, error) {
	var snaps []Snapshot
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&snaps).Error; err != nil {
		return nil, types.IOErrorf(err, "query registry history")
	}
	return snaps, nil
}

// Close 关闭底层连接池
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
