package services

import (
	"fmt"

	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/logger"
	"veriscan-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationServiceInterface defines conversation log operations
type ConversationServiceInterface interface {
	GetOrCreate(sessionID string) (*models.Conversation, error)
	AppendMessage(conversationID uuid.UUID, role, content, modelUsed string, tokensUsed *int) error
	RecentMessages(conversationID uuid.UUID, limit int) ([]clients.ChatMessage, error)
	RecordUsage(model, analysisType string, inputTokens, outputTokens int) error
	ListConversations() ([]models.Conversation, error)
	GetBySession(sessionID string) (*models.Conversation, error)
}

// ConversationService is the append-only conversation/usage log backed by
// GORM. Get-or-create is keyed by session ID; messages are pure appends, so
// concurrent requests never race on a read-modify-write.
type ConversationService struct {
	db *gorm.DB
}

// NewConversationService creates a new conversation service
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// GetOrCreate fetches the conversation for a session, creating it atomically
// when absent.
func (s *ConversationService) GetOrCreate(sessionID string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Where(models.Conversation{SessionID: sessionID}).
		FirstOrCreate(&conversation).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create conversation: %w", err)
	}
	return &conversation, nil
}

// AppendMessage appends one turn to a conversation
func (s *ConversationService) AppendMessage(conversationID uuid.UUID, role, content, modelUsed string, tokensUsed *int) error {
	message := models.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ModelUsed:      modelUsed,
		TokensUsed:     tokensUsed,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// RecentMessages returns the most recent N messages of a conversation,
// oldest-first, shaped for the model gateway.
func (s *ConversationService) RecentMessages(conversationID uuid.UUID, limit int) ([]clients.ChatMessage, error) {
	var stored []models.Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation context: %w", err)
	}

	// Reverse into chronological order
	context := make([]clients.ChatMessage, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		context = append(context, clients.ChatMessage{
			Role:    stored[i].Role,
			Content: stored[i].Content,
		})
	}
	return context, nil
}

// RecordUsage appends one usage record with the estimated cost for the
// model in use. Unknown models cost 0.
func (s *ConversationService) RecordUsage(model, analysisType string, inputTokens, outputTokens int) error {
	record := models.UsageRecord{
		ModelUsed:     model,
		AnalysisType:  analysisType,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		TotalTokens:   inputTokens + outputTokens,
		EstimatedCost: EstimateCost(model, inputTokens, outputTokens),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"model":          model,
		"analysis_type":  analysisType,
		"input_tokens":   inputTokens,
		"output_tokens":  outputTokens,
		"estimated_cost": record.EstimatedCost,
	}).Debug("Usage recorded")

	return nil
}

// ListConversations returns all conversations, most recently updated first
func (s *ConversationService) ListConversations() ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := s.db.Order("updated_at DESC").Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// GetBySession returns one conversation with its messages, oldest-first
func (s *ConversationService) GetBySession(sessionID string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("session_id = ?", sessionID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}
