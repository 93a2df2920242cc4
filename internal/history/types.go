package history

import (
	"context"
	"time"
)

// CommandRecord stores one processed command and the assistant's reply.
type CommandRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the command history append-only.
type Store interface {
	Append(ctx context.Context, record CommandRecord) error
	Recent(ctx context.Context, limit int) ([]CommandRecord, error)
	Close() error
}
