// Package domain contains core domain types for the PimpMyPrompt application.
package domain

import (
	"time"
)

// Message roles as stored in the message log.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Chat represents a stored conversation owned by a user.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a single append-only entry in a chat's transcript.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
