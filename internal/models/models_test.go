package models

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
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
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestConversation_BeforeCreateAssignsUUID(t *testing.T) {
	db := setupTestDB(t)

	conversation := Conversation{SessionID: "session-1"}
	require.NoError(t, db.Create(&conversation).Error)

	assert.NotEqual(t, uuid.Nil, conversation.ID)
}

func TestConversation_SessionIDUnique(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&Conversation{SessionID: "session-1"}).Error)
	err := db.Create(&Conversation{SessionID: "session-1"}).Error

	assert.Error(t, err)
}

func TestMessage_BelongsToConversation(t *testing.T) {
	db := setupTestDB(t)

	conversation := Conversation{SessionID: "session-1"}
	require.NoError(t, db.Create(&conversation).Error)

	tokens := 12
	message := Message{
		ConversationID: conversation.ID,
		Role:           "assistant",
		Content:        "answer",
		ModelUsed:      "gpt-4o",
		TokensUsed:     &tokens,
	}
	require.NoError(t, db.Create(&message).Error)

	var loaded Conversation
	require.NoError(t, db.Preload("Messages").First(&loaded, "session_id = ?", "session-1").Error)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "answer", loaded.Messages[0].Content)
}

func TestUsageRecord_DerivesTotalTokens(t *testing.T) {
	db := setupTestDB(t)

	record := UsageRecord{ModelUsed: "gpt-4o", AnalysisType: "chat", InputTokens: 100, OutputTokens: 50}
	require.NoError(t, db.Create(&record).Error)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, 150, record.TotalTokens)
}

func TestUsageRecord_ExplicitTotalKept(t *testing.T) {
	db := setupTestDB(t)

	record := UsageRecord{ModelUsed: "gpt-4o", InputTokens: 100, OutputTokens: 50, TotalTokens: 999}
	require.NoError(t, db.Create(&record).Error)

	assert.Equal(t, 999, record.TotalTokens)
}
