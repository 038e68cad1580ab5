package chat

import "errors"

// 领域错误定义
var (
	// ErrInvalidThreadID 会话 ID 缺失或非法，直接返回给调用方，不重试
	ErrInvalidThreadID = errors.New("invalid thread id")

	// ErrInvalidRole 消息角色非法（仅允许 user/assistant）
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent 消息内容为空
	ErrEmptyContent = errors.New("empty message content")

	// ErrSummarizationFailed 摘要生成调用失败或超时
	// 整个压缩操作回滚：不写入快照，不移动归档水位线，调用方可稍后重试
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrRecallUnavailable 语义召回未配置（embedding 网关或向量库缺失）
	ErrRecallUnavailable = errors.New("snapshot recall not configured")
)

// 压缩跳过原因（正常的 no-op 结果，不是错误）
const (
	// SkipReasonWithinBudget 上下文未达到压缩阈值
	SkipReasonWithinBudget = "context within budget"
	// SkipReasonTooFewMessages 活跃消息数不足最小压缩阈值
	SkipReasonTooFewMessages = "not enough active messages"
	// SkipReasonEmptyWindow 窗口选择结果为空
	SkipReasonEmptyWindow = "empty compaction window"
	// SkipReasonNoShrink 摘要无法压得比原文更小
	SkipReasonNoShrink = "summary not smaller than source"
)

// SummarizeOutcome 一次 autoSummarize 调用的结果
// Snapshot 与 Skipped 互斥：跳过时 Snapshot 为 nil 且 Reason 给出原因
type SummarizeOutcome struct {
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Skipped  bool      `json:"skipped"`
	Reason   string    `json:"reason,omitempty"`
}
