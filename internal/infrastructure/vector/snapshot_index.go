package vector

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/homebase/backend/internal/infrastructure/log"
	"github.com/homebase/backend/internal/infrastructure/settings"
)

// SnapshotCollection 快照向量集合名
const SnapshotCollection = "homebase_snapshots"

// SnapshotHit 快照召回命中
type SnapshotHit struct {
	SnapshotID string  `json:"snapshotId"`
	ThreadID   string  `json:"threadId"`
	Summary    string  `json:"summary"`
	Score      float32 `json:"score"`
	CreatedAt  int64   `json:"createdAt"`
}

// SnapshotIndex 快照向量索引
// 连接按需建立；Qdrant 未配置时所有操作快速失败，不影响核心链路
type SnapshotIndex struct {
	store  *settings.Store
	logger *slog.Logger

	mu     sync.Mutex
	client *qdrant.Client
	// 已连接实例的地址，设置变化后重连
	connectedAddr string
}

// NewSnapshotIndex 创建快照向量索引
func NewSnapshotIndex(store *settings.Store) *SnapshotIndex {
	return &SnapshotIndex{
		store:  store,
		logger: log.NewModuleLogger("vector", "snapshot_index"),
	}
}

// Enabled Qdrant 是否已配置
func (idx *SnapshotIndex) Enabled() bool {
	cfg := idx.store.Get()
	return cfg.QdrantHost != "" && cfg.QdrantPort > 0
}

// getClient 获取（或重建）Qdrant 客户端
func (idx *SnapshotIndex) getClient() (*qdrant.Client, error) {
	cfg := idx.store.Get()
	if cfg.QdrantHost == "" || cfg.QdrantPort <= 0 {
		return nil, fmt.Errorf("qdrant not configured")
	}

	addr := fmt.Sprintf("%s:%d", cfg.QdrantHost, cfg.QdrantPort)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.client != nil && idx.connectedAddr == addr {
		return idx.client, nil
	}

	if idx.client != nil {
		idx.client.Close()
		idx.client = nil
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.QdrantHost,
		Port: cfg.QdrantPort,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	idx.client = client
	idx.connectedAddr = addr
	idx.logger.Info("Connected to qdrant", "addr", addr)
	return client, nil
}

// Close 关闭 Qdrant 连接
func (idx *SnapshotIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.client != nil {
		err := idx.client.Close()
		idx.client = nil
		idx.connectedAddr = ""
		return err
	}
	return nil
}

// ensureCollection 确保快照集合存在
// 向量维度由首次写入的向量决定
func (idx *SnapshotIndex) ensureCollection(ctx context.Context, client *qdrant.Client, vectorSize uint64) error {
	existing, err := client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range existing {
		if name == SnapshotCollection {
			return nil
		}
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: SnapshotCollection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", SnapshotCollection, err)
	}

	idx.logger.Info("Created snapshot collection",
		"collection", SnapshotCollection,
		"vector_size", vectorSize,
	)
	return nil
}

// IndexSnapshot 写入快照向量
func (idx *SnapshotIndex) IndexSnapshot(ctx context.Context, snapshot *domainChat.Snapshot, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("vector cannot be empty")
	}

	client, err := idx.getClient()
	if err != nil {
		return err
	}

	if err := idx.ensureCollection(ctx, client, uint64(len(vector))); err != nil {
		return err
	}

	vectorArgs := make([]float32, len(vector))
	copy(vectorArgs, vector)

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(snapshot.ID),
		Vectors: qdrant.NewVectors(vectorArgs...),
		Payload: qdrant.NewValueMap(map[string]interface{}{
			"thread_id":  snapshot.ThreadID,
			"summary":    snapshot.Summary,
			"created_at": snapshot.CreatedAt,
		}),
	}

	wait := true
	_, err = client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: SnapshotCollection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot point: %w", err)
	}

	idx.logger.Debug("Indexed snapshot",
		"snapshot_id", snapshot.ID,
		"thread_id", snapshot.ThreadID,
	)
	return nil
}

// Search 按向量召回快照
// threadID 非空时限定在单个线程内
func (idx *SnapshotIndex) Search(ctx context.Context, vector []float32, threadID string, limit int) ([]*SnapshotHit, error) {
	if limit <= 0 {
		limit = 5
	}

	client, err := idx.getClient()
	if err != nil {
		return nil, err
	}

	var filter *qdrant.Filter
	if threadID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("thread_id", threadID),
			},
		}
	}

	limitVal := uint64(limit)
	searchResp, err := client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: SnapshotCollection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitVal,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	hits := make([]*SnapshotHit, 0, len(searchResp))
	for _, hit := range searchResp {
		payload := hit.GetPayload()
		hits = append(hits, &SnapshotHit{
			SnapshotID: hit.GetId().GetUuid(),
			ThreadID:   extractStringValue(payload["thread_id"]),
			Summary:    extractStringValue(payload["summary"]),
			Score:      hit.GetScore(),
			CreatedAt:  extractIntValue(payload["created_at"]),
		})
	}

	idx.logger.Debug("Snapshot search completed",
		"hits", len(hits),
		"thread_id", threadID,
	)
	return hits, nil
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

// extractIntValue 从 qdrant.Value 提取整数值
func extractIntValue(val *qdrant.Value) int64 {
	if val == nil {
		return 0
	}
	if intVal := val.GetIntegerValue(); intVal != 0 {
		return intVal
	}
	return int64(val.GetDoubleValue())
}
