package sql

import (
	"time"

	"gorm.io/datatypes"
)

// Snapshot 是注册表的一次完整快照
// 每次 Store 插入一行新快照，Load 读取最新的一行。
// 这样"整体覆盖"的语义天然满足，同时保留了历史记录。
type Snapshot struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	// Entries: {"relative/path": "digest", ...}
	Entries datatypes.JSON `gorm:"not null"`

	// Count 冗余存储条目数，方便排查
	Count int

	CreatedAt time.Time `gorm:"index"`
}

// TableName 强制指定表名
func (Snapshot) TableName() string {
	return "registry_snapshots"
}
