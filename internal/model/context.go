package model

import "context"

// ContextManager stores the caller identity in request contexts.
type ContextManager interface {
	SetUserIDToContext(ctx context.Context, userID string) context.Context
	GetUserIDFromContext(ctx context.Context) (string, bool)
}
