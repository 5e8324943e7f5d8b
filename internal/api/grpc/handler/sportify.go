package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// EventService defines event reads and membership writes.
type EventService interface {
	ListAllEvents(ctx context.Context) (model.Listing, error)
	ListRegisteredEvents(ctx context.Context, userID string) (model.Listing, error)
	ListCreatedEvents(ctx context.Context, userID string) (model.Listing, error)
	GetEvent(ctx context.Context, eventID string) (model.Event, bool, error)
	IsUserRegistered(ctx context.Context, userID, eventID string) (bool, error)
	CreateEvent(ctx context.Context, params model.CreateEventParams) (model.Event, model.WriteResult, error)
	UpdateEvent(ctx context.Context, params model.UpdateEventParams) (model.Event, error)
	DeleteEvent(ctx context.Context, userID, eventID string) (model.WriteResult, error)
	Register(ctx context.Context, userID, eventID string) (model.WriteResult, error)
	Unregister(ctx context.Context, userID, eventID string) (model.WriteResult, error)
}

// ProfileService defines user document operations.
type ProfileService interface {
	CreateProfile(ctx context.Context, params model.CreateProfileParams) (model.User, error)
	GetProfile(ctx context.Context, userID string) (model.User, bool, error)
	UpdateProfile(ctx context.Context, params model.UpdateProfileParams) (model.User, error)
}

// Sportify handles gRPC endpoints of sportify.Sportify.
type Sportify struct {
	eventService   EventService
	profileService ProfileService
	contextManager model.ContextManager
	logger         *logger.Logger
}

var _ SportifyServer = (*Sportify)(nil)

// NewSportify creates a new Sportify handler.
func NewSportify(
	eventService EventService,
	profileService ProfileService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Sportify {
	return &Sportify{
		eventService:   eventService,
		profileService: profileService,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Sportify) userID(ctx context.Context) (string, error) {
	userID, ok := h.contextManager.GetUserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "user ID not found in context")
	}
	return userID, nil
}

// partial logs a write that reached only one side. The caller gets an OK
// response carrying the outcome so it can retry or wait for reconciliation.
func (h *Sportify) partial(op string, err error, args ...any) {
	args = append(args, "error", err.Error())
	h.logger.Warn("Sportify handler: "+op+" partially applied", args...)
}

func (h *Sportify) fail(op string, err error, args ...any) error {
	args = append(args, "error", err.Error())
	h.logger.Error("Sportify handler: "+op+" failed", args...)
	return handleError(err)
}

// ListEvents returns every event.
func (h *Sportify) ListEvents(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	listing, err := h.eventService.ListAllEvents(ctx)
	if err != nil {
		return nil, h.fail("list events", err)
	}
	return listingResponse(listing)
}

// ListRegisteredEvents returns the events the caller is registered for.
func (h *Sportify) ListRegisteredEvents(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := h.eventService.ListRegisteredEvents(ctx, userID)
	if err != nil {
		return nil, h.fail("list registered events", err, "user_id", userID)
	}
	return listingResponse(listing)
}

// ListCreatedEvents returns the events created by the caller.
func (h *Sportify) ListCreatedEvents(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := h.eventService.ListCreatedEvents(ctx, userID)
	if err != nil {
		return nil, h.fail("list created events", err, "user_id", userID)
	}
	return listingResponse(listing)
}

func (h *Sportify) GetEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID, err := requiredString(req, "eventId")
	if err != nil {
		return nil, err
	}
	event, fromCache, err := h.eventService.GetEvent(ctx, eventID)
	if err != nil {
		return nil, h.fail("get event", err, "event_id", eventID)
	}
	v, err := eventValue(event)
	if err != nil {
		return nil, handleError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"event":     v,
		"fromCache": structpb.NewBoolValue(fromCache),
	}}, nil
}

// CreateEvent creates an event owned by the caller.
func (h *Sportify) CreateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	params := model.CreateEventParams{OwnerID: userID}
	if err := decodeField(req, "event", &params.Details); err != nil {
		return nil, err
	}
	params.Picture, params.PictureContentType, err = pictureField(req)
	if err != nil {
		return nil, err
	}

	event, result, err := h.eventService.CreateEvent(ctx, params)
	if err != nil && result.Outcome != model.OutcomePartial {
		return nil, h.fail("create event", err, "user_id", userID, "event_id", event.ID)
	}
	if err != nil {
		h.partial("create event", err, "user_id", userID, "event_id", event.ID)
	} else {
		h.logger.Info("Sportify handler: event created", "user_id", userID, "event_id", event.ID)
	}

	resp := outcomeResponse(result, err)
	resp.Fields["event"], err = eventValue(event)
	if err != nil {
		return nil, handleError(err)
	}
	return resp, nil
}

// UpdateEvent overwrites the details of an event owned by the caller.
func (h *Sportify) UpdateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(req, "eventId")
	if err != nil {
		return nil, err
	}

	params := model.UpdateEventParams{UserID: userID, EventID: eventID}
	if err := decodeField(req, "event", &params.Details); err != nil {
		return nil, err
	}
	params.Picture, params.PictureContentType, err = pictureField(req)
	if err != nil {
		return nil, err
	}

	event, err := h.eventService.UpdateEvent(ctx, params)
	if err != nil {
		return nil, h.fail("update event", err, "user_id", userID, "event_id", eventID)
	}

	v, err := eventValue(event)
	if err != nil {
		return nil, handleError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"event": v}}, nil
}

// DeleteEvent deletes an event owned by the caller and every link to it.
func (h *Sportify) DeleteEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.membershipCall(ctx, req, "delete event", h.eventService.DeleteEvent)
}

// RegisterForEvent registers the caller for an event.
func (h *Sportify) RegisterForEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.membershipCall(ctx, req, "register", h.eventService.Register)
}

// UnregisterFromEvent removes the caller's registration.
func (h *Sportify) UnregisterFromEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.membershipCall(ctx, req, "unregister", h.eventService.Unregister)
}

func (h *Sportify) membershipCall(
	ctx context.Context,
	req *structpb.Struct,
	op string,
	call func(ctx context.Context, userID, eventID string) (model.WriteResult, error),
) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(req, "eventId")
	if err != nil {
		return nil, err
	}

	result, err := call(ctx, userID, eventID)
	if err != nil && result.Outcome != model.OutcomePartial {
		return nil, h.fail(op, err, "user_id", userID, "event_id", eventID, "outcome", result.Outcome.String())
	}
	if err != nil {
		h.partial(op, err, "user_id", userID, "event_id", eventID, "failed_side", string(result.FailedSide))
	}
	return outcomeResponse(result, err), nil
}

// IsRegistered reports whether the event lists the caller.
func (h *Sportify) IsRegistered(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(req, "eventId")
	if err != nil {
		return nil, err
	}

	registered, err := h.eventService.IsUserRegistered(ctx, userID, eventID)
	if err != nil {
		return nil, h.fail("is registered", err, "user_id", userID, "event_id", eventID)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"registered": structpb.NewBoolValue(registered),
	}}, nil
}

// CreateProfile creates the caller's user document.
func (h *Sportify) CreateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	params := model.CreateProfileParams{UserID: userID}
	if err := decodeField(req, "profile", &params.Profile); err != nil {
		return nil, err
	}
	params.Picture, params.PictureContentType, err = pictureField(req)
	if err != nil {
		return nil, err
	}

	user, err := h.profileService.CreateProfile(ctx, params)
	if err != nil {
		return nil, h.fail("create profile", err, "user_id", userID)
	}
	return userResponse(user, false)
}

// GetProfile returns the caller's user document.
func (h *Sportify) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	user, fromCache, err := h.profileService.GetProfile(ctx, userID)
	if err != nil {
		return nil, h.fail("get profile", err, "user_id", userID)
	}
	return userResponse(user, fromCache)
}

// UpdateProfile overwrites the caller's profile fields.
func (h *Sportify) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	params := model.UpdateProfileParams{UserID: userID}
	if err := decodeField(req, "profile", &params.Profile); err != nil {
		return nil, err
	}
	params.Picture, params.PictureContentType, err = pictureField(req)
	if err != nil {
		return nil, err
	}

	user, err := h.profileService.UpdateProfile(ctx, params)
	if err != nil {
		return nil, h.fail("update profile", err, "user_id", userID)
	}
	return userResponse(user, false)
}

func userResponse(user model.User, fromCache bool) (*structpb.Struct, error) {
	v, err := userValue(user)
	if err != nil {
		return nil, handleError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"user":      v,
		"fromCache": structpb.NewBoolValue(fromCache),
	}}, nil
}
