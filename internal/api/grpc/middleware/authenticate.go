package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

var (
	errMissingToken = errors.New("missing authorization token")
	errInvalidToken = errors.New("invalid authorization token")
)

// TokenParser resolves the user ID from a bearer token.
type TokenParser interface {
	ParseAccessToken(token string) (string, error)
}

// Authenticate validates bearer tokens and injects user ID into context.
type Authenticate struct {
	tokenParser    TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenParser TokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenParser: tokenParser, contextManager: contextManager, logger: logger}
}

// AuthFunc parses Authorization header, validates token and returns a context with user ID.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	var tokenString string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if authHeaders := md.Get("authorization"); len(authHeaders) > 0 {
			tokenString = strings.TrimPrefix(authHeaders[0], "Bearer ")
		}
	}

	userID, authErr := m.authenticateUser(tokenString)
	if authErr != nil {
		return nil, status.Error(codes.Unauthenticated, authErr.Error())
	}

	return m.contextManager.SetUserIDToContext(ctx, userID), nil
}

func (m *Authenticate) authenticateUser(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errMissingToken
	}

	userID, err := m.tokenParser.ParseAccessToken(tokenString)
	if err != nil {
		m.logger.Debug("token rejected", "error", err)
		return "", errInvalidToken
	}

	if userID == "" {
		return "", errInvalidToken
	}

	return userID, nil
}
