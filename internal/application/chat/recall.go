package chat

import (
	"context"
	"fmt"

	"log/slog"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/embedding"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/vector"
)

// RecallService 快照语义召回
// 把快照摘要向量化写入 Qdrant，之后可以用自然语言查询找回被压缩的历史
// embedding 网关和 Qdrant 都是可选配置，缺任何一个时召回整体不可用
type RecallService struct {
	embedder *embedding.Client
	index    *vector.SnapshotIndex
	logger   *slog.Logger
}

// NewRecallService 创建召回服务
func NewRecallService(embedder *embedding.Client, index *vector.SnapshotIndex) *RecallService {
	return &RecallService{
		embedder: embedder,
		index:    index,
		logger:   log.NewModuleLogger("chat", "recall_service"),
	}
}

// Enabled 召回链路是否完整配置
func (s *RecallService) Enabled() bool {
	return s.embedder.Configured() && s.index.Enabled()
}

// IndexSnapshot 向量化快照并写入索引
func (s *RecallService) IndexSnapshot(ctx context.Context, snapshot *domainChat.Snapshot) error {
	if !s.Enabled() {
		return domainChat.ErrRecallUnavailable
	}

	text := renderSnapshotText(snapshot.Summary, snapshot.KeyPoints, snapshot.Entities)
	vec, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed snapshot: %w", err)
	}

	if err := s.index.IndexSnapshot(ctx, snapshot, vec); err != nil {
		return err
	}

	s.logger.Info("Snapshot indexed for recall",
		"snapshot_id", snapshot.ID,
		"thread_id", snapshot.ThreadID,
	)
	return nil
}

// Recall 用自然语言查询召回相关快照
// threadID 非空时限定在单个会话内
func (s *RecallService) Recall(ctx context.Context, query, threadID string, limit int) ([]*vector.SnapshotHit, error) {
	if !s.Enabled() {
		return nil, domainChat.ErrRecallUnavailable
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vec, threadID, limit)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Recall completed",
		"query_len", len(query),
		"thread_id", threadID,
		"hits", len(hits),
	)
	return hits, nil
}
