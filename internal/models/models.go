package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation represents one chat session, keyed by a client-supplied session ID
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SessionID string    `gorm:"size:255;not null;unique;index" json:"session_id"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message represents a single turn in a conversation
type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Role           string         `gorm:"size:10;not null" json:"role"` // user, assistant, system
	Content        string         `gorm:"type:text;not null" json:"content"`
	ModelUsed      string         `gorm:"size:100" json:"model_used"`
	TokensUsed     *int           `json:"tokens_used,omitempty"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// UsageRecord tracks token usage and estimated cost per completed model call
type UsageRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ModelUsed     string    `gorm:"size:100;not null" json:"model_used"`
	AnalysisType  string    `gorm:"size:50" json:"analysis_type"`
	InputTokens   int       `gorm:"default:0" json:"input_tokens"`
	OutputTokens  int       `gorm:"default:0" json:"output_tokens"`
	TotalTokens   int       `gorm:"default:0" json:"total_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
	return nil
}

// AutoMigrate creates or updates database tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Conversation{}, &Message{}, &UsageRecord{})
}
