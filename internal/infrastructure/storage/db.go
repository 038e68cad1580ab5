package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/homebase/backend/internal/infrastructure/config"
	_ "modernc.org/sqlite"
)

// GetDBPath 获取 homebase 数据库路径
// 默认 <数据目录>/homebase.db，可通过 DatabaseConfig.Path 覆盖
func GetDBPath(cfg *config.DatabaseConfig) string {
	if cfg != nil && cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(config.GetDataDir(), "homebase.db")
}

// ProvideDB 打开数据库连接并初始化表结构
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dbPath := GetDBPath(cfg)

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 启用 WAL 模式，读写互不阻塞
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// InitSchema 初始化表结构
// threads.archived_seq 是归档水位线：seq <= archived_seq 的消息被某个快照覆盖
func InitSchema(db *sql.DB) error {
	createThreadsSQL := `
	CREATE TABLE IF NOT EXISTS threads (
		thread_id TEXT PRIMARY KEY,
		archived_seq INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createThreadsSQL); err != nil {
		return fmt.Errorf("failed to create threads table: %w", err)
	}

	createMessagesSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		thread_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		estimated_tokens INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createMessagesSQL); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	createSnapshotsSQL := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		summary TEXT NOT NULL,
		key_points TEXT NOT NULL,
		entities TEXT NOT NULL,
		message_count INTEGER NOT NULL,
		token_count INTEGER NOT NULL,
		compressed_tokens INTEGER NOT NULL,
		last_seq INTEGER NOT NULL,
		first_message_at INTEGER NOT NULL,
		last_message_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createSnapshotsSQL); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_messages_thread_seq ON messages(thread_id, seq);
	CREATE INDEX IF NOT EXISTS idx_snapshots_thread_created ON snapshots(thread_id, created_at);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
