package models

import "time"

// User is the demo session identity. There is no real authentication behind it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedProperty is a bookmark on a property with optional notes and tags.
type SavedProperty struct {
	PropertyID string    `json:"propertyId"`
	SavedAt    time.Time `json:"savedAt"`
	Notes      string    `json:"notes,omitempty"`
	Tags       []string  `json:"tags"`
}

// Alert is a change notification attached to a property.
type Alert struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
	Read       bool      `json:"read"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one turn of the assistant conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
