package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	access, err := j.GenerateAccessToken("user-42")
	require.NoError(t, err)
	got, err := j.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, "user-42", got)
}

func TestJWT_EmptySubject(t *testing.T) {
	j := NewJWT("secret", time.Hour)

	_, err := j.GenerateAccessToken("")
	require.Error(t, err)
}

func TestJWT_WrongSecret(t *testing.T) {
	access, err := NewJWT("secret", time.Hour).GenerateAccessToken("u1")
	require.NoError(t, err)

	_, err = NewJWT("other", time.Hour).ParseAccessToken(access)
	require.Error(t, err)
}

func TestJWT_ExpiryValidation(t *testing.T) {
	j := NewJWT("secret", time.Minute)
	issued := time.Now()
	j.now = func() time.Time { return issued }

	access, err := j.GenerateAccessToken("u1")
	require.NoError(t, err)
	_, err = j.ParseAccessToken(access)
	require.NoError(t, err)

	j.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = j.ParseAccessToken(access)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_RejectsForeignIssuer(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWT("secret", time.Hour).ParseAccessToken(signed)
	require.Error(t, err)
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWT("secret", time.Hour).ParseAccessToken(signed)
	require.Error(t, err)
}
