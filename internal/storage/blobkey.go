// Package storage contains blob store backends returning durable URLs for uploaded media.
package storage

import (
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sportify-server/internal/model"
)

// DefaultContentType is assumed for uploads without a content type.
const DefaultContentType = "image/jpeg"

// NewKey builds a unique object key under the prefix of kind.
func NewKey(kind model.BlobKind, contentType string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s%s", kind, now.UnixMilli(), uuid.NewString(), extension(contentType))
}

// PublicURL joins base, bucket and key into the URL handed to clients.
func PublicURL(base, bucket, key string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid public url %q: %w", base, err)
	}
	return u.JoinPath(bucket, key).String(), nil
}

func extension(contentType string) string {
	if contentType == "" || contentType == DefaultContentType {
		return ".jpg"
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
