package mcp

import (
	"context"
	"fmt"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContextStatusInput 上下文状态工具输入
type ContextStatusInput struct {
	ThreadID string `json:"thread_id" jsonschema:"Conversation thread ID"`
}

// ContextStatusOutput 上下文状态工具输出
type ContextStatusOutput struct {
	TotalTokens                 int     `json:"total_tokens" jsonschema:"Active token count"`
	ActiveMessageCount          int     `json:"active_message_count" jsonschema:"Number of active messages"`
	ContextUtilization          float64 `json:"context_utilization" jsonschema:"Budget utilization percentage"`
	NeedsSummarization          bool    `json:"needs_summarization" jsonschema:"Whether compaction would trigger"`
	SnapshotCount               int     `json:"snapshot_count" jsonschema:"Number of archived snapshots"`
	EstimatedConversationLength int     `json:"estimated_conversation_length" jsonschema:"Total messages including archived"`
}

// getContextStatusTool 查询会话上下文状态
func (s *MCPServer) getContextStatusTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ContextStatusInput,
) (*mcp.CallToolResult, ContextStatusOutput, error) {
	status, err := s.contextService.GetContextStatus(input.ThreadID)
	if err != nil {
		return nil, ContextStatusOutput{}, fmt.Errorf("无法查询上下文状态: %w", err)
	}

	return nil, ContextStatusOutput{
		TotalTokens:                 status.TotalTokens,
		ActiveMessageCount:          status.ActiveMessageCount,
		ContextUtilization:          status.ContextUtilization,
		NeedsSummarization:          status.NeedsSummarization,
		SnapshotCount:               status.SnapshotCount,
		EstimatedConversationLength: status.EstimatedConversationLength,
	}, nil
}

// SummarizeThreadInput 压缩工具输入
type SummarizeThreadInput struct {
	ThreadID string `json:"thread_id" jsonschema:"Conversation thread ID"`
}

// SummarizeThreadOutput 压缩工具输出
type SummarizeThreadOutput struct {
	Skipped          bool   `json:"skipped" jsonschema:"True when compaction was a no-op"`
	Reason           string `json:"reason,omitempty" jsonschema:"Skip reason (when skipped)"`
	SnapshotID       string `json:"snapshot_id,omitempty" jsonschema:"Created snapshot ID"`
	ArchivedMessages int    `json:"archived_messages,omitempty" jsonschema:"Number of messages archived"`
	TokenCount       int    `json:"token_count,omitempty" jsonschema:"Tokens of the archived window"`
	CompressedTokens int    `json:"compressed_tokens,omitempty" jsonschema:"Tokens of the snapshot text"`
}

// summarizeThreadTool 触发一次上下文压缩
func (s *MCPServer) summarizeThreadTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SummarizeThreadInput,
) (*mcp.CallToolResult, SummarizeThreadOutput, error) {
	outcome, err := s.contextService.AutoSummarize(ctx, input.ThreadID)
	if err != nil {
		return nil, SummarizeThreadOutput{}, fmt.Errorf("压缩失败: %w", err)
	}

	output := SummarizeThreadOutput{
		Skipped: outcome.Skipped,
		Reason:  outcome.Reason,
	}
	if outcome.Snapshot != nil {
		output.SnapshotID = outcome.Snapshot.ID
		output.ArchivedMessages = outcome.Snapshot.MessageCount
		output.TokenCount = outcome.Snapshot.TokenCount
		output.CompressedTokens = outcome.Snapshot.CompressedTokens
	}
	return nil, output, nil
}

// ThreadPromptInput prompt 组装工具输入
type ThreadPromptInput struct {
	ThreadID string `json:"thread_id" jsonschema:"Conversation thread ID"`
}

// ThreadPromptOutput prompt 组装工具输出
type ThreadPromptOutput struct {
	Entries    []domainChat.PromptEntry `json:"entries" jsonschema:"Prompt entries, snapshots first then active messages"`
	EntryCount int                      `json:"entry_count" jsonschema:"Total number of entries"`
}

// getThreadPromptTool 组装会话完整 prompt
func (s *MCPServer) getThreadPromptTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ThreadPromptInput,
) (*mcp.CallToolResult, ThreadPromptOutput, error) {
	entries, err := s.assembler.AssemblePrompt(input.ThreadID)
	if err != nil {
		return nil, ThreadPromptOutput{}, fmt.Errorf("无法组装 prompt: %w", err)
	}

	return nil, ThreadPromptOutput{
		Entries:    entries,
		EntryCount: len(entries),
	}, nil
}

// RecallSnapshotsInput 快照召回工具输入
type RecallSnapshotsInput struct {
	Query    string `json:"query" jsonschema:"Natural language query"`
	ThreadID string `json:"thread_id,omitempty" jsonschema:"Restrict search to one thread (optional)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max results, default 5"`
}

// RecalledSnapshot 召回命中的快照
type RecalledSnapshot struct {
	SnapshotID string  `json:"snapshot_id" jsonschema:"Snapshot ID"`
	ThreadID   string  `json:"thread_id" jsonschema:"Thread the snapshot belongs to"`
	Summary    string  `json:"summary" jsonschema:"Snapshot summary text"`
	Score      float32 `json:"score" jsonschema:"Similarity score"`
}

// RecallSnapshotsOutput 快照召回工具输出
type RecallSnapshotsOutput struct {
	Hits []RecalledSnapshot `json:"hits" jsonschema:"Matching snapshots, best first"`
}

// recallSnapshotsTool 语义召回历史快照
func (s *MCPServer) recallSnapshotsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RecallSnapshotsInput,
) (*mcp.CallToolResult, RecallSnapshotsOutput, error) {
	hits, err := s.recallService.Recall(ctx, input.Query, input.ThreadID, input.Limit)
	if err != nil {
		return nil, RecallSnapshotsOutput{}, fmt.Errorf("召回失败: %w", err)
	}

	output := RecallSnapshotsOutput{Hits: make([]RecalledSnapshot, 0, len(hits))}
	for _, hit := range hits {
		output.Hits = append(output.Hits, RecalledSnapshot{
			SnapshotID: hit.SnapshotID,
			ThreadID:   hit.ThreadID,
			Summary:    hit.Summary,
			Score:      hit.Score,
		})
	}
	return nil, output, nil
}
