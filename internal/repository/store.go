// Package store defines the storage interface and its implementations.
package store

import (
	"context"
	"time"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// ConversationStore persists conversation documents.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	// GetConversation returns nil, nil when the conversation does not exist.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	// FindPendingConversation returns the owner's conversation with the given title
	// that still holds exactly two messages, or nil, nil.
	FindPendingConversation(ctx context.Context, userID, title string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)
	// SaveConversation replaces the messages and display time of an existing conversation.
	SaveConversation(ctx context.Context, conv *domain.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
	// CountUserMessages counts user-role messages across all conversations with
	// from <= timestamp, and timestamp < until when until is non-zero.
	CountUserMessages(ctx context.Context, from, until time.Time) (int, error)
}

// UsageLogStore is the append-only query log.
type UsageLogStore interface {
	CreateUsageLog(ctx context.Context, entry *domain.UsageLogEntry) error
	CountUsageLogsSince(ctx context.Context, since time.Time) (int, error)
	// FirstUsageLogTime returns the timestamp of the earliest entry and false when
	// the log is empty.
	FirstUsageLogTime(ctx context.Context) (time.Time, bool, error)
}

// AccountStore resolves registered accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	// GetAccount matches either the username or the display name; nil, nil if absent.
	GetAccount(ctx context.Context, name string) (*domain.Account, error)
}

// Store defines the interface for data persistence.
type Store interface {
	ConversationStore
	UsageLogStore
	AccountStore

	// Lifecycle
	Close() error
}
