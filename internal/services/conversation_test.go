package services

import (
	"path/filepath"
	"testing"
	"time"

	"veriscan-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestGetOrCreate_NewSession(t *testing.T) {
	s := NewConversationService(setupTestDB(t))

	conversation, err := s.GetOrCreate("session-1")

	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", conversation.ID.String())
	assert.Equal(t, "session-1", conversation.SessionID)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	s := NewConversationService(setupTestDB(t))

	first, err := s.GetOrCreate("session-1")
	require.NoError(t, err)
	second, err := s.GetOrCreate("session-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestRecentMessages_BoundedOldestFirst(t *testing.T) {
	s := NewConversationService(setupTestDB(t))
	conversation, err := s.GetOrCreate("session-1")
	require.NoError(t, err)

	roles := []string{"user", "assistant"}
	for i := 0; i < 12; i++ {
		content := string(rune('a' + i))
		require.NoError(t, s.AppendMessage(conversation.ID, roles[i%2], content, "gpt-4o", nil))
		time.Sleep(5 * time.Millisecond) // distinct created_at for ordering
	}

	context, err := s.RecentMessages(conversation.ID, 10)

	require.NoError(t, err)
	require.Len(t, context, 10)
	// The two oldest messages (a, b) fall off; the rest come back
	// chronologically
	assert.Equal(t, "c", context[0].Content)
	assert.Equal(t, "user", context[0].Role)
	assert.Equal(t, "l", context[9].Content)
	assert.Equal(t, "assistant", context[9].Role)
}

func TestRecentMessages_EmptyConversation(t *testing.T) {
	s := NewConversationService(setupTestDB(t))
	conversation, err := s.GetOrCreate("session-1")
	require.NoError(t, err)

	context, err := s.RecentMessages(conversation.ID, 10)

	require.NoError(t, err)
	assert.Empty(t, context)
}

func TestAppendMessage_StoresTokens(t *testing.T) {
	db := setupTestDB(t)
	s := NewConversationService(db)
	conversation, err := s.GetOrCreate("session-1")
	require.NoError(t, err)

	tokens := 42
	require.NoError(t, s.AppendMessage(conversation.ID, "assistant", "the answer", "gpt-4o", &tokens))

	var stored models.Message
	require.NoError(t, db.Where("conversation_id = ?", conversation.ID).First(&stored).Error)
	assert.Equal(t, "assistant", stored.Role)
	assert.Equal(t, "the answer", stored.Content)
	assert.Equal(t, "gpt-4o", stored.ModelUsed)
	require.NotNil(t, stored.TokensUsed)
	assert.Equal(t, 42, *stored.TokensUsed)
}

func TestRecordUsage_ComputesCost(t *testing.T) {
	db := setupTestDB(t)
	s := NewConversationService(db)

	require.NoError(t, s.RecordUsage("claude-3-5-sonnet-20240620", "scam_detection", 2000, 1000))

	var record models.UsageRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, "claude-3-5-sonnet-20240620", record.ModelUsed)
	assert.Equal(t, "scam_detection", record.AnalysisType)
	assert.Equal(t, 3000, record.TotalTokens)
	// (2000/1000)*0.003 + (1000/1000)*0.015
	assert.InDelta(t, 0.021, record.EstimatedCost, 1e-9)
}

func TestRecordUsage_UnknownModelCostsZero(t *testing.T) {
	db := setupTestDB(t)
	s := NewConversationService(db)

	require.NoError(t, s.RecordUsage("some-local-model", "chat", 500, 500))

	var record models.UsageRecord
	require.NoError(t, db.First(&record).Error)
	assert.Zero(t, record.EstimatedCost)
}

func TestListConversations_MostRecentFirst(t *testing.T) {
	s := NewConversationService(setupTestDB(t))

	older, err := s.GetOrCreate("session-old")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := s.GetOrCreate("session-new")
	require.NoError(t, err)

	conversations, err := s.ListConversations()

	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, newer.ID, conversations[0].ID)
	assert.Equal(t, older.ID, conversations[1].ID)
}

func TestGetBySession_WithMessages(t *testing.T) {
	s := NewConversationService(setupTestDB(t))
	conversation, err := s.GetOrCreate("session-1")
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(conversation.ID, "user", "question", "gpt-4o", nil))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.AppendMessage(conversation.ID, "assistant", "answer", "gpt-4o", nil))

	got, err := s.GetBySession("session-1")

	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "question", got.Messages[0].Content)
	assert.Equal(t, "answer", got.Messages[1].Content)
}

func TestGetBySession_NotFound(t *testing.T) {
	s := NewConversationService(setupTestDB(t))

	_, err := s.GetBySession("missing")

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
