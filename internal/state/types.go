package state

import (
	"context"
	"errors"
	"time"
)

// DialogState is the tagged dialog position of one conversation.
type DialogState string

const (
	// DialogIdle means no dialog is active.
	DialogIdle DialogState = "idle"
	// DialogAwaitingCount means the count prompt was issued and the next
	// message is interpreted as the requested photo count.
	DialogAwaitingCount DialogState = "awaiting_count"
)

var ErrNotFound = errors.New("state: not found")

// Session is the per-conversation dialog state. At most one dialog is
// active per conversation at a time.
type Session struct {
	ConversationID string      `json:"conversation_id"`
	Dialog         DialogState `json:"dialog"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// UserRecord is per-user bookkeeping, committed on every turn epilogue. It
// carries no preferences.
type UserRecord struct {
	UserID         string    `json:"user_id"`
	TurnCount      int       `json:"turn_count"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Store persists conversation and user state between turns.
type Store interface {
	GetSession(ctx context.Context, conversationID string) (Session, error)
	PutSession(ctx context.Context, s Session) error
	DeleteSession(ctx context.Context, conversationID string) error
	GetUser(ctx context.Context, userID string) (UserRecord, error)
	PutUser(ctx context.Context, u UserRecord) error
	Close() error
}
