package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/sportify-server/internal/model"
)

func TestNewDocumentRepository(t *testing.T) {
	db := &Connection{}
	repo := NewDocumentRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantIs     error
		wantNotIs  error
		wantSameAs bool
	}{
		{name: "nil", err: nil},
		{name: "no rows", err: pgx.ErrNoRows, wantIs: model.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), wantIs: model.ErrNotFound},
		{
			name:      "server error passes through",
			err:       &pgconn.PgError{Code: "23505", Message: "duplicate key"},
			wantNotIs: model.ErrRemoteUnavailable,
		},
		{
			name:   "network error",
			err:    &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			wantIs: model.ErrRemoteUnavailable,
		},
		{
			name: "wrapped dial failure",
			err: fmt.Errorf("failed to connect to `host=db user=sportify`: %w",
				&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}),
			wantIs: model.ErrRemoteUnavailable,
		},
		{name: "deadline", err: context.DeadlineExceeded, wantIs: model.ErrRemoteUnavailable},
		{name: "other", err: errors.New("boom"), wantSameAs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
			if tt.wantNotIs != nil {
				assert.NotErrorIs(t, got, tt.wantNotIs)
			}
			if tt.wantSameAs {
				assert.Equal(t, tt.err, got)
			}
		})
	}
}

func TestEncodeFields(t *testing.T) {
	raw, err := encodeFields(nil)
	assert.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = encodeFields(model.Fields{"registeredUsers": []string{"u1"}})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"registeredUsers":["u1"]}`, string(raw))

	_, err = encodeFields(model.Fields{"bad": make(chan int)})
	assert.Error(t, err)
}
