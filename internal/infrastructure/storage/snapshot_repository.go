package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/google/uuid"
)

// SnapshotRepository 快照仓储接口
// 只追加：没有更新和删除操作，历史对审计不可变（显式 reset 除外）
type SnapshotRepository interface {
	// ListByThread 按 created_at 升序返回会话的全部快照
	ListByThread(threadID string) ([]*domainChat.Snapshot, error)
	// CountsForThread 快照数量及最早/最新快照时间
	CountsForThread(threadID string) (*domainChat.SnapshotCounts, error)
	// CreateWithWatermark 在单个事务内写入快照并推进归档水位线
	// 两个效果要么全部生效要么全部不生效：崩溃不会留下"消息仍算活跃但已有快照覆盖"
	// 或者"消息被认为已归档但没有任何快照覆盖"的状态
	CreateWithWatermark(snap *domainChat.Snapshot) error
}

// snapshotRepository 快照仓储实现
type snapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository 创建快照仓储实例
func NewSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// CreateWithWatermark 原子写入快照 + 推进水位线
func (r *snapshotRepository) CreateWithWatermark(snap *domainChat.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	keyPointsJSON, err := json.Marshal(snap.KeyPoints)
	if err != nil {
		return fmt.Errorf("failed to marshal key_points: %w", err)
	}
	entitiesJSON, err := json.Marshal(snap.Entities)
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO snapshots
		 (id, thread_id, summary, key_points, entities, message_count,
		  token_count, compressed_tokens, last_seq, first_message_at, last_message_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.ThreadID, snap.Summary, string(keyPointsJSON), string(entitiesJSON),
		snap.MessageCount, snap.TokenCount, snap.CompressedTokens, snap.LastSeq,
		snap.FirstMessageAt.UnixMilli(), snap.LastMessageAt.UnixMilli(), snap.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	// 水位线只能前进；条件更新同时挡住过期的并发写入
	result, err := tx.Exec(
		`UPDATE threads SET archived_seq = ?, updated_at = ?
		 WHERE thread_id = ? AND archived_seq < ?`,
		snap.LastSeq, time.Now().UnixMilli(), snap.ThreadID, snap.LastSeq,
	)
	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check watermark update: %w", err)
	}
	if affected != 1 {
		return fmt.Errorf("stale watermark for thread %s: snapshot rejected", snap.ThreadID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// ListByThread 查询会话快照
func (r *snapshotRepository) ListByThread(threadID string) ([]*domainChat.Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, thread_id, summary, key_points, entities, message_count,
		        token_count, compressed_tokens, last_seq, first_message_at, last_message_at, created_at
		 FROM snapshots
		 WHERE thread_id = ?
		 ORDER BY created_at ASC, last_seq ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*domainChat.Snapshot
	for rows.Next() {
		var snap domainChat.Snapshot
		var keyPointsJSON, entitiesJSON string
		var firstAt, lastAt, createdAt int64

		if err := rows.Scan(
			&snap.ID, &snap.ThreadID, &snap.Summary, &keyPointsJSON, &entitiesJSON,
			&snap.MessageCount, &snap.TokenCount, &snap.CompressedTokens, &snap.LastSeq,
			&firstAt, &lastAt, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		if err := json.Unmarshal([]byte(keyPointsJSON), &snap.KeyPoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key_points: %w", err)
		}
		if err := json.Unmarshal([]byte(entitiesJSON), &snap.Entities); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entities: %w", err)
		}

		snap.FirstMessageAt = time.UnixMilli(firstAt)
		snap.LastMessageAt = time.UnixMilli(lastAt)
		snap.CreatedAt = time.UnixMilli(createdAt)
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// CountsForThread 快照统计
func (r *snapshotRepository) CountsForThread(threadID string) (*domainChat.SnapshotCounts, error) {
	var count int
	var oldest, latest sql.NullInt64

	err := r.db.QueryRow(
		`SELECT COUNT(*), MIN(created_at), MAX(created_at)
		 FROM snapshots WHERE thread_id = ?`,
		threadID,
	).Scan(&count, &oldest, &latest)
	if err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}

	counts := &domainChat.SnapshotCounts{SnapshotCount: count}
	if oldest.Valid {
		t := time.UnixMilli(oldest.Int64)
		counts.OldestSnapshotAt = &t
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64)
		counts.LatestSnapshotAt = &t
	}
	return counts, nil
}
