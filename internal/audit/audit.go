// Package audit captures who did what to which entity. Entries are
// append-only; recording is fire-and-forget from the caller's view.
package audit

import (
	"context"
	"time"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entityId"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	ListByUsername(ctx context.Context, username string) ([]Entry, error)
	ListByEntity(ctx context.Context, entity string) ([]Entry, error)
}
