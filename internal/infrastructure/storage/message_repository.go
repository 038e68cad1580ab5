package storage

import (
	"database/sql"
	"fmt"
	"time"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/google/uuid"
)

// MessageRepository 消息仓储接口
// 消息只追加，归档通过 threads.archived_seq 水位线表达，消息行本身保留作审计
type MessageRepository interface {
	Append(msg *domainChat.Message) error
	// FindActive 返回未被任何快照覆盖的消息（seq > 水位线），按 seq 升序
	FindActive(threadID string) ([]*domainChat.Message, error)
	// CountByThread 含已归档消息在内的总消息数
	CountByThread(threadID string) (int, error)
}

// messageRepository 消息仓储实现
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Append 追加消息，回填 ID 和 Seq
func (r *messageRepository) Append(msg *domainChat.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO messages (id, thread_id, role, content, estimated_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, string(msg.Role), msg.Content,
		msg.EstimatedTokens, msg.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read message seq: %w", err)
	}
	msg.Seq = seq
	return nil
}

// FindActive 查询活跃消息
func (r *messageRepository) FindActive(threadID string) ([]*domainChat.Message, error) {
	rows, err := r.db.Query(
		`SELECT seq, id, thread_id, role, content, estimated_tokens, created_at
		 FROM messages
		 WHERE thread_id = ?
		   AND seq > COALESCE((SELECT archived_seq FROM threads WHERE thread_id = ?), 0)
		 ORDER BY seq ASC`,
		threadID, threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active messages: %w", err)
	}
	defer rows.Close()

	var messages []*domainChat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// CountByThread 统计总消息数
func (r *messageRepository) CountByThread(threadID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE thread_id = ?`, threadID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// scanMessage 从结果行扫描消息
func scanMessage(rows *sql.Rows) (*domainChat.Message, error) {
	var msg domainChat.Message
	var role string
	var createdAt int64

	if err := rows.Scan(
		&msg.Seq, &msg.ID, &msg.ThreadID, &role, &msg.Content,
		&msg.EstimatedTokens, &createdAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.Role = domainChat.Role(role)
	msg.CreatedAt = time.UnixMilli(createdAt)
	return &msg, nil
}
