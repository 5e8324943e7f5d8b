package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sportify-server/internal/model"
)

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name:     "status error passthrough",
			in:       status.Error(codes.InvalidArgument, "eventId is required"),
			wantCode: codes.InvalidArgument,
			wantMsg:  "eventId is required",
		},
		{
			name:     "wrapped not found",
			in:       fmt.Errorf("failed to get event: %w", model.ErrNotFound),
			wantCode: codes.NotFound,
			wantMsg:  "not found",
		},
		{
			name:     "already registered",
			in:       model.ErrAlreadyRegistered,
			wantCode: codes.AlreadyExists,
			wantMsg:  "user already registered for this event",
		},
		{
			name:     "already exists",
			in:       fmt.Errorf("user u1: %w", model.ErrAlreadyExists),
			wantCode: codes.AlreadyExists,
			wantMsg:  "already exists",
		},
		{
			name:     "not registered",
			in:       model.ErrNotRegistered,
			wantCode: codes.FailedPrecondition,
			wantMsg:  "user not registered for this event",
		},
		{
			name: "partial write wins over its cause",
			in: &model.PartialWriteError{
				Op:         "register",
				FailedSide: model.SideEvent,
				Err:        fmt.Errorf("%w: timeout", model.ErrRemoteUnavailable),
			},
			wantCode: codes.Aborted,
			wantMsg:  "register: event side not written: remote store unavailable: timeout",
		},
		{
			name:     "remote unavailable",
			in:       fmt.Errorf("failed to list events: %w", model.ErrRemoteUnavailable),
			wantCode: codes.Unavailable,
			wantMsg:  "remote store unavailable",
		},
		{
			name:     "validation",
			in:       model.NewValidationError("date", "must be formatted as YYYY-MM-DD"),
			wantCode: codes.InvalidArgument,
			wantMsg:  "date must be formatted as YYYY-MM-DD",
		},
		{
			name:     "permission denied",
			in:       model.ErrPermissionDenied,
			wantCode: codes.PermissionDenied,
			wantMsg:  "permission denied",
		},
		{
			name:     "other -> Internal",
			in:       errors.New("boom"),
			wantCode: codes.Internal,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := handleError(tt.in)
			st, ok := status.FromError(err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}
