package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/sportify-server/internal/model"
)

func handleError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrPartialWrite):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, model.ErrRemoteUnavailable):
		return status.Error(codes.Unavailable, "remote store unavailable")
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, model.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, model.ErrAlreadyRegistered.Error())
	case errors.Is(err, model.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, model.ErrAlreadyExists.Error())
	case errors.Is(err, model.ErrNotRegistered):
		return status.Error(codes.FailedPrecondition, model.ErrNotRegistered.Error())
	case errors.Is(err, model.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, model.ErrPermissionDenied.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
