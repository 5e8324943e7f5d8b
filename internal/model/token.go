package model

// TokenManager issues and validates access tokens whose subject is a user id.
type TokenManager interface {
	GenerateAccessToken(userID string) (string, error)
	ParseAccessToken(token string) (string, error)
}
