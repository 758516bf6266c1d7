// Package domain contains core domain types for the MindSpace application.
package domain

import (
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AnonymousUserID is the reserved user id for unauthenticated, local-only use.
const AnonymousUserID = "anonymous"

// DefaultTitle is used for sessions with no user message yet.
const DefaultTitle = "New Entry"

// titleMaxLen bounds how much of the first user message becomes the title.
const titleMaxLen = 50

// ChatMessage is a single turn in a journaling conversation. Messages are
// immutable once created; ordering within a session is by Timestamp ascending.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one journaling conversation, owned by exactly one user.
type Session struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DeriveTitle builds a session title from its messages: the first user
// message's content truncated to 50 characters (with an ellipsis when
// truncated), or DefaultTitle when no user message exists.
func DeriveTitle(messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return m.Content
	}
	return DefaultTitle
}

// SessionFromMessages reconstructs session metadata from a stored message
// list. CreatedAt mirrors the first message's timestamp and UpdatedAt the
// last one's; both fall back to now for empty histories.
func SessionFromMessages(id string, messages []ChatMessage, now time.Time) Session {
	s := Session{
		ID:        id,
		Title:     DeriveTitle(messages),
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(messages) > 0 {
		s.CreatedAt = messages[0].Timestamp
		s.UpdatedAt = messages[len(messages)-1].Timestamp
	}
	return s
}
