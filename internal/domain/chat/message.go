package chat

import "time"

// Role 消息角色
type Role string

const (
	// RoleUser 用户消息
	RoleUser Role = "user"
	// RoleAssistant 助手消息
	RoleAssistant Role = "assistant"
)

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message 对话消息
// 创建后不可变；seq 由存储层按插入顺序分配，所有"活跃/归档"判定基于 seq 水位线
type Message struct {
	ID              string    `json:"id"`
	ThreadID        string    `json:"thread_id"`
	Role            Role      `json:"role"`
	Content         string    `json:"content"`
	Seq             int64     `json:"seq"`
	EstimatedTokens int       `json:"estimated_tokens"`
	CreatedAt       time.Time `json:"created_at"`
}

// PromptEntry 发送给下游推理网关的一条 prompt 条目
type PromptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
