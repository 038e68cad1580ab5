package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// ThreadRepository 会话仓储接口
type ThreadRepository interface {
	// EnsureExists 确保会话行存在（首条消息写入时隐式创建）
	EnsureExists(threadID string) error
	// GetArchivedSeq 读取归档水位线，会话不存在时返回 0
	GetArchivedSeq(threadID string) (int64, error)
	// Reset 显式重置：删除该会话的全部消息与快照
	Reset(threadID string) error
}

// threadRepository 会话仓储实现
type threadRepository struct {
	db *sql.DB
}

// NewThreadRepository 创建会话仓储实例
func NewThreadRepository(db *sql.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// EnsureExists 确保会话行存在
func (r *threadRepository) EnsureExists(threadID string) error {
	now := time.Now().UnixMilli()
	_, err := r.db.Exec(
		`INSERT INTO threads (thread_id, archived_seq, created_at, updated_at)
		 VALUES (?, 0, ?, ?)
		 ON CONFLICT(thread_id) DO UPDATE SET updated_at = excluded.updated_at`,
		threadID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure thread: %w", err)
	}
	return nil
}

// GetArchivedSeq 读取归档水位线
func (r *threadRepository) GetArchivedSeq(threadID string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(
		`SELECT archived_seq FROM threads WHERE thread_id = ?`, threadID,
	).Scan(&seq)
	if err != nil {
		if err == sql.ErrNoRows {
			// 会话尚不存在，视为空会话而不是错误
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query archived seq: %w", err)
	}
	return seq, nil
}

// Reset 删除会话的全部消息与快照（单事务）
func (r *threadRepository) Reset(threadID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM threads WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
