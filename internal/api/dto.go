package api

import (
	"github.com/starford/propscope/internal/assistant"
	"github.com/starford/propscope/internal/catalog"
	"github.com/starford/propscope/internal/models"
)

// PropertyListResponse wraps paginated property listings.
type PropertyListResponse struct {
	Properties []models.Property `json:"properties" validate:"required"`
	Total      int               `json:"total" example:"42" validate:"required"`
}

// PropertyFields carries the property record fields without models.Property's
// lenient dataset decoding, so clients decoding a PropertyDetail get every field.
type PropertyFields models.Property

// PropertyDetail is a property with its generated description and display hints.
type PropertyDetail struct {
	PropertyFields
	StatusLabel string              `json:"statusLabel" example:"For Sale"`
	StatusColor string              `json:"statusColor" example:"#3b82f6"`
	ImageURLs   map[string][]string `json:"imageUrls"`
	TrustLabel  string              `json:"trustLabel,omitempty" example:"Very Good"`
	TrustLevel  string              `json:"trustLevel,omitempty" example:"trust-high"`
}

// CompareResponse lists properties side by side.
type CompareResponse struct {
	Properties []PropertyDetail `json:"properties" validate:"required"`
}

// MarkersResponse wraps map pins.
type MarkersResponse struct {
	Markers []catalog.Marker `json:"markers" validate:"required"`
}

// LegendEntry is one row of the map status legend.
type LegendEntry struct {
	Status models.Status `json:"status" example:"for-sale"`
	Label  string        `json:"label" example:"For Sale"`
	Color  string        `json:"color" example:"#3b82f6"`
	Count  int           `json:"count" example:"12"`
}

// LoginRequest starts a demo session.
type LoginRequest struct {
	Email string `json:"email" example:"ana@example.com" validate:"required"`
	Name  string `json:"name" example:"Ana" validate:"required"`
}

// SessionResponse is returned by POST /session.
type SessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token" example:"3f1c..."`
}

// SaveRequest carries optional notes and tags for a bookmark.
type SaveRequest struct {
	Notes string   `json:"notes" example:"call broker"`
	Tags  []string `json:"tags" example:"office,tx"`
}

// AlertRequest creates an alert.
type AlertRequest struct {
	PropertyID string `json:"propertyId" example:"dal-001"`
	Type       string `json:"type" example:"price_change" validate:"required"`
	Message    string `json:"message" example:"Price dropped 5%" validate:"required"`
}

// CountResponse carries a single count.
type CountResponse struct {
	Count int `json:"count" example:"3"`
}

// OnboardingResponse reports the onboarding flag.
type OnboardingResponse struct {
	Completed bool `json:"completed"`
}

// ChatRequest is a question for the assistant.
type ChatRequest struct {
	Question string `json:"question" example:"Industrial near Texas over 5 million?" validate:"required"`
}

// ChatResponse is the assistant answer (aliased from the domain layer).
type ChatResponse = assistant.Answer

// ChatHistoryResponse wraps stored chat messages.
type ChatHistoryResponse struct {
	Messages []models.ChatMessage `json:"messages" validate:"required"`
}
