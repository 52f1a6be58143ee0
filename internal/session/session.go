package session

import (
	"time"

	"github.com/Noah-wb/datachat/internal/llm"
)

// Session is a persisted conversation: an identifier, a creation time
// and the ordered message list. The JSON field names are the on-disk
// file format and must stay stable across releases.
type Session struct {
	ID        string        `json:"session_id"`
	CreatedAt time.Time     `json:"created_at"`
	Messages  []llm.Message `json:"messages"`
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Messages:  []llm.Message{},
	}
}

// Append adds messages to the in-memory session, stamping any message
// that carries no timestamp with the append time. Persistence is a
// separate, explicit step; stamping here keeps repeated persists of an
// unchanged session byte-identical.
func (s *Session) Append(messages ...llm.Message) {
	now := time.Now().UTC().Truncate(time.Second)
	for _, m := range messages {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		s.Messages = append(s.Messages, m)
	}
}

// LastUserIndex returns the index of the most recent user message,
// or -1 when the session has none.
func (s *Session) LastUserIndex() int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == llm.RoleUser {
			return i
		}
	}
	return -1
}

// Summary is a lightweight view of a session used for listings.
type Summary struct {
	ID           string
	CreatedAt    time.Time
	MessageCount int
	// FirstUserMessage is the opening user message, truncated for display.
	FirstUserMessage string
}

const summaryPreviewLimit = 60

func (s *Session) summary() Summary {
	sum := Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Messages),
	}
	for _, m := range s.Messages {
		if m.Role == llm.RoleUser {
			preview := []rune(m.Content)
			if len(preview) > summaryPreviewLimit {
				preview = append(preview[:summaryPreviewLimit], '…')
			}
			sum.FirstUserMessage = string(preview)
			break
		}
	}
	return sum
}
