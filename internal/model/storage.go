package model

import (
	"context"
	"io"
)

// BlobKind selects the key prefix of an uploaded blob.
type BlobKind string

const (
	BlobProfilePicture BlobKind = "profilePictures"
	BlobEventImage     BlobKind = "images"
)

// BlobStore uploads content and returns a durable URL to it.
type BlobStore interface {
	Upload(ctx context.Context, kind BlobKind, reader io.Reader, size int64, contentType string) (string, error)
}
