package events

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypePostAnalyzed = "sentiment.post_analyzed"
	TypeRunCompleted = "sentiment.run_completed"

	eventVersion = "1.0"
)

// BaseEvent is embedded in every published event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at.UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// SanitizeUTF8 drops invalid UTF-8 sequences. Post titles scraped from the
// web occasionally carry broken bytes that some consumers reject.
func SanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
