package handlers

import (
	"errors"
	"net/http"

	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/logger"
	"veriscan-backend/internal/middleware"
	"veriscan-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatHandler serves the conversational model proxy with conversation and
// usage tracking
type ChatHandler struct {
	gateway       clients.ModelGateway
	conversations services.ConversationServiceInterface
	maxContext    int
}

// NewChatHandler creates a new chat handler
func NewChatHandler(gateway clients.ModelGateway, conversations services.ConversationServiceInterface, maxContext int) *ChatHandler {
	if maxContext <= 0 {
		maxContext = 10
	}
	return &ChatHandler{
		gateway:       gateway,
		conversations: conversations,
		maxContext:    maxContext,
	}
}

type chatRequest struct {
	Message          string  `json:"message"`
	SessionID        string  `json:"session_id"`
	Model            string  `json:"model"`
	MaxTokens        int     `json:"max_tokens"`
	Temperature      float64 `json:"temperature"`
	System           string  `json:"system"`
	SaveConversation *bool   `json:"save_conversation"`
}

// Chat handles POST /api/chat/
func (h *ChatHandler) Chat(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	save := req.SaveConversation == nil || *req.SaveConversation

	logger.Log.WithFields(map[string]interface{}{
		"correlation_id":    correlationID,
		"session_id":        sessionID,
		"message_length":    len(req.Message),
		"save_conversation": save,
	}).Info("Chat request received")

	gatewayReq := &clients.GatewayRequest{
		Prompt:      req.Message,
		System:      req.System,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	// Build multi-turn context from stored history, bounded to the most
	// recent N messages, oldest-first
	var conversationID uuid.UUID
	if save {
		conversation, err := h.conversations.GetOrCreate(sessionID)
		if err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"session_id": sessionID,
				"operation":  "conversation_get_or_create",
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
			return
		}
		conversationID = conversation.ID

		history, err := h.conversations.RecentMessages(conversationID, h.maxContext)
		if err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"session_id": sessionID,
				"operation":  "conversation_context",
			})
		} else if len(history) > 0 {
			gatewayReq.Messages = append(history, clients.ChatMessage{Role: "user", Content: req.Message})
		}

		if err := h.conversations.AppendMessage(conversationID, "user", req.Message, h.gateway.ModelName(), nil); err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"session_id": sessionID,
				"operation":  "append_user_message",
			})
		}
	}

	reply, err := h.gateway.Invoke(c.Request.Context(), gatewayReq)
	if err != nil {
		status, payload := errorResponse(err)
		c.JSON(status, payload)
		return
	}

	if save {
		tokens := reply.OutputTokens
		if err := h.conversations.AppendMessage(conversationID, "assistant", reply.Text, reply.Model, &tokens); err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"session_id": sessionID,
				"operation":  "append_assistant_message",
			})
		}
		if err := h.conversations.RecordUsage(reply.Model, "chat", reply.InputTokens, reply.OutputTokens); err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"session_id": sessionID,
				"operation":  "record_usage",
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   reply.Text,
		"session_id": sessionID,
		"model":      reply.Model,
		"usage": gin.H{
			"input_tokens":  reply.InputTokens,
			"output_tokens": reply.OutputTokens,
			"total_tokens":  reply.InputTokens + reply.OutputTokens,
		},
	})
}

// ListConversations handles GET /api/conversations/
func (h *ChatHandler) ListConversations(c *gin.Context) {
	conversations, err := h.conversations.ListConversations()
	if err != nil {
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation": "list_conversations",
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversation handles GET /api/conversations/:session_id/
func (h *ChatHandler) GetConversation(c *gin.Context) {
	sessionID := c.Param("session_id")

	conversation, err := h.conversations.GetBySession(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.LogErrorWithStack(err, map[string]interface{}{
			"operation":  "get_conversation",
			"session_id": sessionID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversation"})
		return
	}
	c.JSON(http.StatusOK, conversation)
}
