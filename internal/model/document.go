package model

import (
	"context"
	"time"
)

// Collection names of the remote document store.
const (
	CollectionUsers  = "users"
	CollectionEvents = "events"
)

// Fields is the JSON object body of a document.
type Fields map[string]any

// Document is a single record of a collection.
type Document struct {
	ID        string
	Fields    Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore is the client of the remote document store.
type DocumentStore interface {
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or fully replaces a document.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Update merges fields into an existing document, ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes a document, ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([]Document, error)
	// Add creates a document with a store assigned id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
}
