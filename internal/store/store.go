// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pkowalski/pimpmyprompt/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist or is not
// visible to the requesting user.
var ErrNotFound = errors.New("store: not found")

// Repository defines the persistence façade: chats, messages, usage counters
// and user records. The orchestrator mirrors conversation state through it but
// does not depend on its implementation.
type Repository interface {
	// GetUser retrieves a user by ID. Returns (nil, nil) when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// CreateChat stores a new chat record.
	CreateChat(ctx context.Context, chat *domain.Chat) error

	// ListChats returns a user's chats, newest first.
	ListChats(ctx context.Context, userID string) ([]*domain.Chat, error)

	// DeleteChat removes a chat and all of its messages, scoped to the owner.
	// Messages are deleted before the chat row. Returns ErrNotFound when the
	// chat does not exist or belongs to another user.
	DeleteChat(ctx context.Context, chatID, userID string) error

	// AppendMessage stores a message at the end of a chat's transcript.
	AppendMessage(ctx context.Context, msg *domain.Message) error

	// ListMessages returns a chat's messages in insertion order.
	ListMessages(ctx context.Context, chatID string) ([]*domain.Message, error)

	// GetUsage returns the request count for a user on the given day
	// (day formatted as "2006-01-02" in UTC). Missing rows count as zero.
	GetUsage(ctx context.Context, userID, day string) (int, error)

	// IncrementUsage adds one to the user's counter for the given day and
	// returns the new count.
	IncrementUsage(ctx context.Context, userID, day string) (int, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// DayKey formats a timestamp as the usage-counter day bucket.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
