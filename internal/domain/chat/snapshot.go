package chat

import "time"

// Snapshot 归档快照
// 由一段连续的最旧活跃消息压缩而来，创建后不可变（仅追加，不更新不删除）
// 不变量：CompressedTokens < TokenCount；FirstMessageAt <= LastMessageAt；
// 同一会话的快照区间互不重叠，且均早于当前最旧的活跃消息
type Snapshot struct {
	ID               string    `json:"id"`
	ThreadID         string    `json:"thread_id"`
	Summary          string    `json:"summary"`
	KeyPoints        []string  `json:"key_points"`
	Entities         []string  `json:"entities"`
	MessageCount     int       `json:"message_count"`
	TokenCount       int       `json:"token_count"`
	CompressedTokens int       `json:"compressed_tokens"`
	// LastSeq 该快照覆盖的归档水位线（覆盖区间为 (上一快照水位线, LastSeq]）
	LastSeq        int64     `json:"last_seq"`
	FirstMessageAt time.Time `json:"first_message_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// SummaryResult 模型生成的结构化压缩结果
type SummaryResult struct {
	Summary   string   `json:"summary"`    // 自由文本综述
	KeyPoints []string `json:"key_points"` // 原子化关键事实（有序）
	Entities  []string `json:"entities"`   // 提到的人物/项目/日期等命名实体
}

// SnapshotCounts 会话快照统计
type SnapshotCounts struct {
	SnapshotCount    int        `json:"snapshot_count"`
	OldestSnapshotAt *time.Time `json:"oldest_snapshot_at,omitempty"`
	LatestSnapshotAt *time.Time `json:"latest_snapshot_at,omitempty"`
}

// ContextState 上下文状态（派生值，不落库，按需从活跃消息集合重算）
type ContextState struct {
	TotalTokens        int     `json:"total_tokens"`
	ActiveMessageCount int     `json:"active_message_count"`
	// ContextUtilization 预算使用百分比，允许超过 100（压缩前的溢出是有意义的信号）
	ContextUtilization float64 `json:"context_utilization"`
}

// ContextStatus 会话上下文完整状态报告
// ContextState 内嵌展开，对外 JSON 是一个扁平对象
type ContextStatus struct {
	ContextState
	NeedsSummarization bool       `json:"needs_summarization"`
	SnapshotCount      int        `json:"snapshot_count"`
	OldestSnapshotAt   *time.Time `json:"oldest_snapshot_at,omitempty"`
	LatestSnapshotAt   *time.Time `json:"latest_snapshot_at,omitempty"`
	// EstimatedConversationLength 含已归档消息在内的总消息数
	EstimatedConversationLength int `json:"estimated_conversation_length"`
}
