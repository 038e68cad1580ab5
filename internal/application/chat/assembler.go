package chat

import (
	"fmt"

	"log/slog"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/storage"
)

// Assembler 从快照和活跃消息组装下游推理的 prompt
// 产出顺序固定：快照（按创建顺序，各自一条 system 条目）在前，活跃消息按 seq 升序在后
type Assembler struct {
	messages  storage.MessageRepository
	snapshots storage.SnapshotRepository
	logger    *slog.Logger
}

// NewAssembler 创建 prompt 组装器
func NewAssembler(messages storage.MessageRepository, snapshots storage.SnapshotRepository) *Assembler {
	return &Assembler{
		messages:  messages,
		snapshots: snapshots,
		logger:    log.NewModuleLogger("chat", "assembler"),
	}
}

// snapshotPromptPrefix 快照条目的前缀，告知模型这是被压缩的更早历史
const snapshotPromptPrefix = "[Earlier conversation, summarized]\n"

// AssemblePrompt 组装会话的完整 prompt
// 每条活跃消息都出现且仅出现一次；每个快照贡献恰好一条 system 条目
func (a *Assembler) AssemblePrompt(threadID string) ([]domainChat.PromptEntry, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}

	snapshots, err := a.snapshots.ListByThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	active, err := a.messages.FindActive(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active messages: %w", err)
	}

	entries := make([]domainChat.PromptEntry, 0, len(snapshots)+len(active))
	for _, snap := range snapshots {
		entries = append(entries, domainChat.PromptEntry{
			Role:    "system",
			Content: snapshotPromptPrefix + renderSnapshotText(snap.Summary, snap.KeyPoints, snap.Entities),
		})
	}
	for _, msg := range active {
		entries = append(entries, domainChat.PromptEntry{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	a.logger.Debug("Prompt assembled",
		"thread_id", threadID,
		"snapshots", len(snapshots),
		"active_messages", len(active),
	)
	return entries, nil
}

// ListSnapshots 按创建顺序返回会话的全部快照
func (a *Assembler) ListSnapshots(threadID string) ([]*domainChat.Snapshot, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}
	return a.snapshots.ListByThread(threadID)
}
