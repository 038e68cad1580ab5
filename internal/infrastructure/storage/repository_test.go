package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainChat "github.com/homebase/backend/internal/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "homebase_test_*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)

	// 启用 WAL 模式
	_, err = db.Exec("PRAGMA journal_mode=WAL;")
	require.NoError(t, err)

	require.NoError(t, InitSchema(db))

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

// appendTestMessages 写入 n 条消息，每条 tokens 个 token
func appendTestMessages(t *testing.T, repo MessageRepository, threadID string, n, tokens int) []*domainChat.Message {
	t.Helper()

	messages := make([]*domainChat.Message, 0, n)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		role := domainChat.RoleUser
		if i%2 == 1 {
			role = domainChat.RoleAssistant
		}
		msg := &domainChat.Message{
			ThreadID:        threadID,
			Role:            role,
			Content:         "测试消息内容",
			EstimatedTokens: tokens,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Append(msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestMessageRepository_AppendAssignsIDAndSeq(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMessageRepository(db)

	msg := &domainChat.Message{
		ThreadID:        "t1",
		Role:            domainChat.RoleUser,
		Content:         "你好",
		EstimatedTokens: 3,
	}
	require.NoError(t, repo.Append(msg))

	assert.NotEmpty(t, msg.ID, "保存后应自动生成 ID")
	assert.Greater(t, msg.Seq, int64(0), "保存后应分配 seq")

	msg2 := &domainChat.Message{
		ThreadID:        "t1",
		Role:            domainChat.RoleAssistant,
		Content:         "你好！",
		EstimatedTokens: 4,
	}
	require.NoError(t, repo.Append(msg2))
	assert.Greater(t, msg2.Seq, msg.Seq, "seq 应单调递增")
}

func TestMessageRepository_FindActive_NoThreadRow(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewMessageRepository(db)

	// 线程行尚不存在时，全部消息视为活跃
	appendTestMessages(t, repo, "t1", 3, 10)

	active, err := repo.FindActive("t1")
	require.NoError(t, err)
	assert.Len(t, active, 3)

	// seq 升序
	for i := 1; i < len(active); i++ {
		assert.Greater(t, active[i].Seq, active[i-1].Seq)
	}
}

func TestMessageRepository_FindActive_RespectsWatermark(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	msgRepo := NewMessageRepository(db)
	threadRepo := NewThreadRepository(db)
	snapRepo := NewSnapshotRepository(db)

	require.NoError(t, threadRepo.EnsureExists("t1"))
	msgs := appendTestMessages(t, msgRepo, "t1", 6, 10)

	// 归档前 4 条
	snap := &domainChat.Snapshot{
		ThreadID:         "t1",
		Summary:          "摘要",
		KeyPoints:        []string{"要点"},
		Entities:         []string{},
		MessageCount:     4,
		TokenCount:       40,
		CompressedTokens: 5,
		LastSeq:          msgs[3].Seq,
		FirstMessageAt:   msgs[0].CreatedAt,
		LastMessageAt:    msgs[3].CreatedAt,
	}
	require.NoError(t, snapRepo.CreateWithWatermark(snap))

	active, err := msgRepo.FindActive("t1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, msgs[4].ID, active[0].ID)
	assert.Equal(t, msgs[5].ID, active[1].ID)

	// 总消息数不变：归档不删行
	count, err := msgRepo.CountByThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestSnapshotRepository_CreateWithWatermark_Atomic(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	msgRepo := NewMessageRepository(db)
	threadRepo := NewThreadRepository(db)
	snapRepo := NewSnapshotRepository(db)

	require.NoError(t, threadRepo.EnsureExists("t1"))
	msgs := appendTestMessages(t, msgRepo, "t1", 4, 10)

	snap := &domainChat.Snapshot{
		ThreadID:         "t1",
		Summary:          "第一段摘要",
		KeyPoints:        []string{"a", "b"},
		Entities:         []string{"张三"},
		MessageCount:     2,
		TokenCount:       20,
		CompressedTokens: 4,
		LastSeq:          msgs[1].Seq,
		FirstMessageAt:   msgs[0].CreatedAt,
		LastMessageAt:    msgs[1].CreatedAt,
	}
	require.NoError(t, snapRepo.CreateWithWatermark(snap))
	assert.NotEmpty(t, snap.ID)

	seq, err := threadRepo.GetArchivedSeq("t1")
	require.NoError(t, err)
	assert.Equal(t, msgs[1].Seq, seq, "水位线应推进到快照的 last_seq")

	// 相同（过期的）水位线再次写入应被拒绝，且不留下快照行
	dup := *snap
	dup.ID = ""
	err = snapRepo.CreateWithWatermark(&dup)
	require.Error(t, err)

	counts, err := snapRepo.CountsForThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.SnapshotCount, "被拒绝的写入不应留下快照")
}

func TestSnapshotRepository_ListByThread_OrderAndRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	msgRepo := NewMessageRepository(db)
	threadRepo := NewThreadRepository(db)
	snapRepo := NewSnapshotRepository(db)

	require.NoError(t, threadRepo.EnsureExists("t1"))
	msgs := appendTestMessages(t, msgRepo, "t1", 8, 10)

	first := &domainChat.Snapshot{
		ThreadID: "t1", Summary: "早", KeyPoints: []string{"p1"}, Entities: []string{"e1"},
		MessageCount: 4, TokenCount: 40, CompressedTokens: 6,
		LastSeq: msgs[3].Seq, FirstMessageAt: msgs[0].CreatedAt, LastMessageAt: msgs[3].CreatedAt,
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, snapRepo.CreateWithWatermark(first))

	second := &domainChat.Snapshot{
		ThreadID: "t1", Summary: "晚", KeyPoints: []string{"p2"}, Entities: []string{},
		MessageCount: 2, TokenCount: 20, CompressedTokens: 3,
		LastSeq: msgs[5].Seq, FirstMessageAt: msgs[4].CreatedAt, LastMessageAt: msgs[5].CreatedAt,
	}
	require.NoError(t, snapRepo.CreateWithWatermark(second))

	snaps, err := snapRepo.ListByThread("t1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "早", snaps[0].Summary)
	assert.Equal(t, "晚", snaps[1].Summary)
	assert.Equal(t, []string{"p1"}, snaps[0].KeyPoints)
	assert.Equal(t, []string{"e1"}, snaps[0].Entities)

	// 区间不重叠：后一快照覆盖 (前一水位线, last_seq]
	assert.Greater(t, snaps[1].LastSeq, snaps[0].LastSeq)

	counts, err := snapRepo.CountsForThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.SnapshotCount)
	require.NotNil(t, counts.OldestSnapshotAt)
	require.NotNil(t, counts.LatestSnapshotAt)
	assert.False(t, counts.LatestSnapshotAt.Before(*counts.OldestSnapshotAt))
}

func TestSnapshotRepository_CountsForThread_Empty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	snapRepo := NewSnapshotRepository(db)

	counts, err := snapRepo.CountsForThread("missing")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.SnapshotCount)
	assert.Nil(t, counts.OldestSnapshotAt)
	assert.Nil(t, counts.LatestSnapshotAt)
}

func TestThreadRepository_Reset(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	msgRepo := NewMessageRepository(db)
	threadRepo := NewThreadRepository(db)
	snapRepo := NewSnapshotRepository(db)

	require.NoError(t, threadRepo.EnsureExists("t1"))
	msgs := appendTestMessages(t, msgRepo, "t1", 4, 10)

	snap := &domainChat.Snapshot{
		ThreadID: "t1", Summary: "s", KeyPoints: []string{}, Entities: []string{},
		MessageCount: 2, TokenCount: 20, CompressedTokens: 2,
		LastSeq: msgs[1].Seq, FirstMessageAt: msgs[0].CreatedAt, LastMessageAt: msgs[1].CreatedAt,
	}
	require.NoError(t, snapRepo.CreateWithWatermark(snap))

	require.NoError(t, threadRepo.Reset("t1"))

	count, err := msgRepo.CountByThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	counts, err := snapRepo.CountsForThread("t1")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.SnapshotCount)

	seq, err := threadRepo.GetArchivedSeq("t1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq, "重置后水位线归零")
}
