package session

import (
	"time"

	"github.com/zhouzirui/lumina-interior/backend/internal/compare"
	"github.com/zhouzirui/lumina-interior/backend/internal/model/style"
)

// Status gates style generation for a session.
type Status string

const (
	StatusReady      Status = "ready"
	StatusGenerating Status = "generating"
)

// Session is the serialisable view of one upload-to-chat cycle.
type Session struct {
	ID             string         `json:"id"`
	OriginalImage  string         `json:"originalImage"`
	GeneratedImage string         `json:"generatedImage,omitempty"`
	SelectedStyle  *style.Style   `json:"selectedStyle,omitempty"`
	PendingStyleID string         `json:"pendingStyleId,omitempty"`
	Status         Status         `json:"status"`
	Typing         bool           `json:"typing"`
	Slider         compare.Slider `json:"slider"`
	Transcript     []Message      `json:"transcript"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// HasComparison reports whether both images of the before/after pair exist.
func (s Session) HasComparison() bool {
	return s.OriginalImage != "" && s.GeneratedImage != ""
}
