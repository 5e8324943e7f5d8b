package model

import (
	"context"
	"time"
)

// CachedEvent is an event row of the local cache.
type CachedEvent struct {
	Event
	SyncedAt time.Time
}

// EventFilter narrows QueryEvents. Zero value matches every row.
type EventFilter struct {
	// IDs restricts rows to the given ids when non-nil. An empty non-nil
	// slice matches nothing.
	IDs       []string
	SportType string
	// SyncedAfter drops rows synced before the given instant.
	SyncedAfter time.Time
}

// EventCache is the relational local cache of event rows keyed by event id.
type EventCache interface {
	UpsertEvent(ctx context.Context, event Event) error
	UpsertEvents(ctx context.Context, events []Event) error
	QueryEvents(ctx context.Context, filter EventFilter) ([]CachedEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// ProfileCache is the key-value local cache of user documents keyed by user id.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID string) (User, bool, error)
	SetProfile(ctx context.Context, user User) error
	ClearProfile(ctx context.Context, userID string) error
}

// Listing is a list of events and where it was served from.
type Listing struct {
	Events    []Event
	FromCache bool
}
