package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/storage"
)

// TokenEstimator token 估算器
type TokenEstimator interface {
	CountTokens(text string) int
}

// SummaryGenerator 压缩窗口的摘要生成器
type SummaryGenerator interface {
	GenerateSnapshot(ctx context.Context, window []*domainChat.Message) (*domainChat.SummaryResult, error)
}

// EventNotifier 上下文事件推送
type EventNotifier interface {
	PublishThreadEvent(threadID string, event interface{}) error
}

// SnapshotIndexer 快照向量索引（可选，未配置时 Enabled 返回 false）
type SnapshotIndexer interface {
	Enabled() bool
	IndexSnapshot(ctx context.Context, snapshot *domainChat.Snapshot) error
}

// ContextEvent 通过 WebSocket 推送的上下文事件
type ContextEvent struct {
	Type     string                   `json:"type"`
	ThreadID string                   `json:"threadId"`
	State    *domainChat.ContextState `json:"state,omitempty"`
	Snapshot *domainChat.Snapshot     `json:"snapshot,omitempty"`
}

const (
	// EventMessageAppended 新消息写入后推送
	EventMessageAppended = "context.message_appended"
	// EventCompacted 压缩完成后推送
	EventCompacted = "context.compacted"
	// EventReset 会话重置后推送
	EventReset = "context.reset"
)

// ContextService 无限上下文引擎
// 负责消息写入、上下文状态计算、压缩触发判定与快照生成
type ContextService struct {
	cfg       *config.ContextConfig
	threads   storage.ThreadRepository
	messages  storage.MessageRepository
	snapshots storage.SnapshotRepository
	estimator TokenEstimator
	generator SummaryGenerator
	notifier  EventNotifier
	indexer   SnapshotIndexer
	logger    *slog.Logger

	// 每个会话一把锁，压缩在单个会话内串行执行
	threadLocks sync.Map
}

// NewContextService 创建上下文服务
func NewContextService(
	cfg *config.ContextConfig,
	threads storage.ThreadRepository,
	messages storage.MessageRepository,
	snapshots storage.SnapshotRepository,
	estimator TokenEstimator,
	generator SummaryGenerator,
	notifier EventNotifier,
	indexer SnapshotIndexer,
) *ContextService {
	return &ContextService{
		cfg:       cfg,
		threads:   threads,
		messages:  messages,
		snapshots: snapshots,
		estimator: estimator,
		generator: generator,
		notifier:  notifier,
		indexer:   indexer,
		logger:    log.NewModuleLogger("chat", "context_service"),
	}
}

// lockThread 获取会话级互斥锁
func (s *ContextService) lockThread(threadID string) *sync.Mutex {
	actual, _ := s.threadLocks.LoadOrStore(threadID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// validateThreadID 校验会话 ID
func validateThreadID(threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return domainChat.ErrInvalidThreadID
	}
	return nil
}

// AppendMessage 追加一条消息
// token 数在写入时估算一次并落库，后续状态计算不再重复估算
func (s *ContextService) AppendMessage(threadID string, role domainChat.Role, content string) (*domainChat.Message, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domainChat.ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, domainChat.ErrEmptyContent
	}

	if err := s.threads.EnsureExists(threadID); err != nil {
		return nil, fmt.Errorf("failed to ensure thread: %w", err)
	}

	msg := &domainChat.Message{
		ThreadID:        threadID,
		Role:            role,
		Content:         content,
		EstimatedTokens: s.estimator.CountTokens(content),
		CreatedAt:       time.Now(),
	}

	if err := s.messages.Append(msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	s.logger.Debug("Message appended",
		"thread_id", threadID,
		"role", role,
		"seq", msg.Seq,
		"tokens", msg.EstimatedTokens,
	)

	s.publishStateEvent(EventMessageAppended, threadID)

	return msg, nil
}

// computeState 从活跃消息集合计算上下文状态
// 派生值不落库，每次按需重算，保证与消息/水位线永远一致
func (s *ContextService) computeState(active []*domainChat.Message) domainChat.ContextState {
	total := 0
	for _, msg := range active {
		total += msg.EstimatedTokens
	}

	utilization := 0.0
	if s.cfg.BudgetTokens > 0 {
		utilization = float64(total) / float64(s.cfg.BudgetTokens) * 100
	}

	return domainChat.ContextState{
		TotalTokens:        total,
		ActiveMessageCount: len(active),
		ContextUtilization: utilization,
	}
}

// needsSummarization 压缩触发判定
// token 利用率达到阈值，或活跃消息数达到硬上限
func (s *ContextService) needsSummarization(state domainChat.ContextState) bool {
	if state.ContextUtilization >= s.cfg.ThresholdPercent {
		return true
	}
	return state.ActiveMessageCount >= s.cfg.MaxActiveMessages
}

// GetContextState 计算会话当前上下文状态
func (s *ContextService) GetContextState(threadID string) (*domainChat.ContextState, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}

	active, err := s.messages.FindActive(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active messages: %w", err)
	}

	state := s.computeState(active)
	return &state, nil
}

// GetContextStatus 会话上下文完整状态报告
func (s *ContextService) GetContextStatus(threadID string) (*domainChat.ContextStatus, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}

	active, err := s.messages.FindActive(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active messages: %w", err)
	}

	counts, err := s.snapshots.CountsForThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot counts: %w", err)
	}

	total, err := s.messages.CountByThread(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	state := s.computeState(active)
	return &domainChat.ContextStatus{
		ContextState:                state,
		NeedsSummarization:          s.needsSummarization(state),
		SnapshotCount:               counts.SnapshotCount,
		OldestSnapshotAt:            counts.OldestSnapshotAt,
		LatestSnapshotAt:            counts.LatestSnapshotAt,
		EstimatedConversationLength: total,
	}, nil
}

// AutoSummarize 尝试对会话执行一次压缩
// 同一会话内串行执行；不满足触发条件时返回 no-op 结果而非错误
// 摘要生成失败时整个操作无副作用，调用方可稍后重试
func (s *ContextService) AutoSummarize(ctx context.Context, threadID string) (*domainChat.SummarizeOutcome, error) {
	if err := validateThreadID(threadID); err != nil {
		return nil, err
	}

	lock := s.lockThread(threadID)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.messages.FindActive(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active messages: %w", err)
	}

	if len(active) < s.cfg.MinEligibleMessages {
		return &domainChat.SummarizeOutcome{
			Skipped: true,
			Reason:  domainChat.SkipReasonTooFewMessages,
		}, nil
	}

	state := s.computeState(active)
	if !s.needsSummarization(state) {
		return &domainChat.SummarizeOutcome{
			Skipped: true,
			Reason:  domainChat.SkipReasonWithinBudget,
		}, nil
	}

	window := s.selectWindow(active, state.TotalTokens)
	if len(window) == 0 {
		return &domainChat.SummarizeOutcome{
			Skipped: true,
			Reason:  domainChat.SkipReasonEmptyWindow,
		}, nil
	}

	windowTokens := 0
	for _, msg := range window {
		windowTokens += msg.EstimatedTokens
	}

	s.logger.Info("Compacting context",
		"thread_id", threadID,
		"active_messages", len(active),
		"window_messages", len(window),
		"window_tokens", windowTokens,
		"utilization", state.ContextUtilization,
	)

	genCtx := ctx
	if s.cfg.SummarizeTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.SummarizeTimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, err := s.generator.GenerateSnapshot(genCtx, window)
	if err != nil {
		s.logger.Error("Summary generation failed",
			"thread_id", threadID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domainChat.ErrSummarizationFailed, err)
	}

	compressed, ok := s.ensureShrink(result, windowTokens)
	if !ok {
		return &domainChat.SummarizeOutcome{
			Skipped: true,
			Reason:  domainChat.SkipReasonNoShrink,
		}, nil
	}

	snapshot := &domainChat.Snapshot{
		ID:               uuid.NewString(),
		ThreadID:         threadID,
		Summary:          result.Summary,
		KeyPoints:        result.KeyPoints,
		Entities:         result.Entities,
		MessageCount:     len(window),
		TokenCount:       windowTokens,
		CompressedTokens: compressed,
		LastSeq:          window[len(window)-1].Seq,
		FirstMessageAt:   window[0].CreatedAt,
		LastMessageAt:    window[len(window)-1].CreatedAt,
		CreatedAt:        time.Now(),
	}

	if err := s.snapshots.CreateWithWatermark(snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.logger.Info("Context compacted",
		"thread_id", threadID,
		"snapshot_id", snapshot.ID,
		"archived_messages", snapshot.MessageCount,
		"token_count", snapshot.TokenCount,
		"compressed_tokens", snapshot.CompressedTokens,
	)

	s.notifyCompacted(threadID, snapshot)
	s.indexSnapshot(ctx, snapshot)

	return &domainChat.SummarizeOutcome{Snapshot: snapshot}, nil
}

// selectWindow 选择待压缩窗口：最旧的活跃消息，累计约一半的活跃 token
// 最近 MinActiveKeep 条消息永不入窗，保证压缩后仍有新鲜上下文
func (s *ContextService) selectWindow(active []*domainChat.Message, totalTokens int) []*domainChat.Message {
	maxWindow := len(active) - s.cfg.MinActiveKeep
	if maxWindow <= 0 {
		return nil
	}

	target := totalTokens / 2
	cum := 0
	end := 0
	for end < maxWindow {
		cum += active[end].EstimatedTokens
		end++
		if cum >= target {
			break
		}
	}

	return active[:end]
}

// renderSnapshotText 渲染快照的文本形态，用于 token 计量和 prompt 注入
func renderSnapshotText(summary string, keyPoints, entities []string) string {
	var b strings.Builder
	b.WriteString(summary)
	if len(keyPoints) > 0 {
		b.WriteString("\nKey points:\n")
		for _, point := range keyPoints {
			b.WriteString("- ")
			b.WriteString(point)
			b.WriteString("\n")
		}
	}
	if len(entities) > 0 {
		b.WriteString("Entities: ")
		b.WriteString(strings.Join(entities, ", "))
	}
	return b.String()
}

// ensureShrink 保证压缩后的 token 数严格小于窗口原始 token 数
// 超出时按 实体 -> 关键点 -> 摘要截断 的顺序降级；摘要截没了仍不达标则放弃
func (s *ContextService) ensureShrink(result *domainChat.SummaryResult, windowTokens int) (int, bool) {
	count := func() int {
		return s.estimator.CountTokens(renderSnapshotText(result.Summary, result.KeyPoints, result.Entities))
	}

	compressed := count()
	if compressed < windowTokens {
		return compressed, true
	}

	if len(result.Entities) > 0 {
		result.Entities = nil
		if compressed = count(); compressed < windowTokens {
			return compressed, true
		}
	}

	for len(result.KeyPoints) > 0 {
		result.KeyPoints = result.KeyPoints[:len(result.KeyPoints)-1]
		if compressed = count(); compressed < windowTokens {
			return compressed, true
		}
	}

	runes := []rune(result.Summary)
	for len(runes) > 16 {
		runes = runes[:len(runes)/2]
		result.Summary = string(runes)
		if compressed = count(); compressed < windowTokens {
			return compressed, true
		}
	}

	return compressed, false
}

// Reset 显式重置会话：删除全部消息与快照
func (s *ContextService) Reset(threadID string) error {
	if err := validateThreadID(threadID); err != nil {
		return err
	}

	lock := s.lockThread(threadID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.threads.Reset(threadID); err != nil {
		return fmt.Errorf("failed to reset thread: %w", err)
	}

	s.logger.Info("Thread reset", "thread_id", threadID)

	if s.notifier != nil {
		if err := s.notifier.PublishThreadEvent(threadID, &ContextEvent{
			Type:     EventReset,
			ThreadID: threadID,
		}); err != nil {
			s.logger.Warn("Failed to publish reset event", "thread_id", threadID, "error", err)
		}
	}
	return nil
}

// publishStateEvent 推送携带最新状态的事件，失败只记日志
func (s *ContextService) publishStateEvent(eventType, threadID string) {
	if s.notifier == nil {
		return
	}

	state, err := s.GetContextState(threadID)
	if err != nil {
		s.logger.Warn("Failed to compute state for event", "thread_id", threadID, "error", err)
		return
	}

	if err := s.notifier.PublishThreadEvent(threadID, &ContextEvent{
		Type:     eventType,
		ThreadID: threadID,
		State:    state,
	}); err != nil {
		s.logger.Warn("Failed to publish event", "thread_id", threadID, "error", err)
	}
}

// notifyCompacted 推送压缩完成事件
func (s *ContextService) notifyCompacted(threadID string, snapshot *domainChat.Snapshot) {
	if s.notifier == nil {
		return
	}

	active, err := s.messages.FindActive(threadID)
	if err != nil {
		s.logger.Warn("Failed to compute state for event", "thread_id", threadID, "error", err)
		return
	}
	state := s.computeState(active)

	if err := s.notifier.PublishThreadEvent(threadID, &ContextEvent{
		Type:     EventCompacted,
		ThreadID: threadID,
		State:    &state,
		Snapshot: snapshot,
	}); err != nil {
		s.logger.Warn("Failed to publish event", "thread_id", threadID, "error", err)
	}
}

// indexSnapshot 尽力而为的语义索引，失败不影响压缩结果
func (s *ContextService) indexSnapshot(ctx context.Context, snapshot *domainChat.Snapshot) {
	if s.indexer == nil || !s.indexer.Enabled() {
		return
	}

	if err := s.indexer.IndexSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("Failed to index snapshot",
			"snapshot_id", snapshot.ID,
			"error", err,
		)
	}
}
