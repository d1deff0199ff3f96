package session

import "time"

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Messages are only ever appended.
type Message struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"timestamp"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	IsImageAction bool      `json:"isImageAction,omitempty"`
}
