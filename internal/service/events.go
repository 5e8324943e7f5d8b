package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// Events serves event reads and owner writes against the remote stores.
type Events struct {
	users       model.UserStore
	events      model.EventStore
	membership  *Membership
	blobs       model.BlobStore
	fanoutLimit int
	logger      *logger.Logger
}

func NewEvents(
	users model.UserStore,
	events model.EventStore,
	membership *Membership,
	blobs model.BlobStore,
	fanoutLimit int,
	logger *logger.Logger,
) *Events {
	if fanoutLimit <= 0 {
		fanoutLimit = 1
	}
	return &Events{
		users:       users,
		events:      events,
		membership:  membership,
		blobs:       blobs,
		fanoutLimit: fanoutLimit,
		logger:      logger,
	}
}

func (s *Events) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListRegisteredEvents returns the events in the user's registeredEvents that still exist.
func (s *Events) ListRegisteredEvents(ctx context.Context, userID string) ([]model.Event, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.fetchEvents(ctx, user.RegisteredEvents)
}

// ListCreatedEvents returns the events in the user's createdEvents that still exist.
func (s *Events) ListCreatedEvents(ctx context.Context, userID string) ([]model.Event, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return s.fetchEvents(ctx, user.CreatedEvents)
}

// fetchEvents reads ids in parallel and keeps their order. Ids that fail to
// resolve are dropped, unless the store is unreachable: then the first such
// error is returned so callers can fall back to the cache.
func (s *Events) fetchEvents(ctx context.Context, ids []string) ([]model.Event, error) {
	found := make([]model.Event, len(ids))
	ok := make([]bool, len(ids))
	unavailable := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(s.fanoutLimit)
	for i, id := range ids {
		g.Go(func() error {
			event, err := s.events.GetByID(ctx, id)
			switch {
			case errors.Is(err, model.ErrNotFound):
				s.logger.Debug("dropping dangling event id", "event_id", id)
			case errors.Is(err, model.ErrRemoteUnavailable):
				unavailable[i] = err
			case err != nil:
				s.logger.Warn("dropping unreadable event", "event_id", id, "error", err)
			default:
				found[i] = event
				ok[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range unavailable {
		if err != nil {
			return nil, fmt.Errorf("failed to get event %s: %w", ids[i], err)
		}
	}

	events := make([]model.Event, 0, len(ids))
	for i := range found {
		if ok[i] {
			events = append(events, found[i])
		}
	}
	return events, nil
}

// IsUserRegistered answers from the event side only.
func (s *Events) IsUserRegistered(ctx context.Context, userID, eventID string) (bool, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to get event: %w", err)
	}
	return event.HasRegistered(userID), nil
}

func (s *Events) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// CreateEvent stores a new event owned by params.OwnerID and links it to the
// owner's createdEvents. If the link fails the created event is returned with
// a partial write error naming the user side.
func (s *Events) CreateEvent(ctx context.Context, params model.CreateEventParams) (model.Event, model.WriteResult, error) {
	details := params.Details
	if err := details.Validate(); err != nil {
		return model.Event{}, model.Failure(), err
	}

	if _, err := s.users.GetByID(ctx, params.OwnerID); err != nil {
		return model.Event{}, model.Failure(), fmt.Errorf("failed to get owner: %w", err)
	}

	if len(params.Picture) > 0 {
		url, err := s.upload(ctx, params.Picture, params.PictureContentType)
		if err != nil {
			return model.Event{}, model.Failure(), err
		}
		details.Picture = url
	}

	event, err := s.events.Create(ctx, model.Event{
		EventDetails:    details,
		OwnerID:         params.OwnerID,
		RegisteredUsers: []string{},
	})
	if err != nil {
		return model.Event{}, model.Failure(), fmt.Errorf("failed to create event: %w", err)
	}

	if _, err := s.membership.CreateEventLink(ctx, params.OwnerID, event.ID); err != nil {
		s.logger.Warn("event created without owner link", "event_id", event.ID, "owner_id", params.OwnerID, "error", err)
		return event, model.PartialSuccess(model.SideUser), &model.PartialWriteError{
			Op:         "create event",
			FailedSide: model.SideUser,
			Err:        err,
		}
	}

	return event, model.FullSuccess(), nil
}

// UpdateEvent overwrites the detail fields of an event owned by params.UserID.
func (s *Events) UpdateEvent(ctx context.Context, params model.UpdateEventParams) (model.Event, error) {
	details := params.Details
	if err := details.Validate(); err != nil {
		return model.Event{}, err
	}

	event, err := s.events.GetByID(ctx, params.EventID)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	if err := s.checkOwner(ctx, event, params.UserID); err != nil {
		return model.Event{}, err
	}

	if len(params.Picture) > 0 {
		url, err := s.upload(ctx, params.Picture, params.PictureContentType)
		if err != nil {
			return model.Event{}, err
		}
		details.Picture = url
	}

	if err := s.events.UpdateDetails(ctx, params.EventID, details); err != nil {
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}

	event.EventDetails = details
	return event, nil
}

// DeleteEvent deletes an event owned by userID together with every link to it.
func (s *Events) DeleteEvent(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Failure(), fmt.Errorf("failed to get event: %w", err)
	}
	if err := s.checkOwner(ctx, event, userID); err != nil {
		return model.Failure(), err
	}

	ownerID := event.OwnerID
	if ownerID == "" {
		ownerID = userID
	}
	return s.membership.DeleteEventCascade(ctx, eventID, ownerID)
}

// checkOwner trusts ownerId and falls back to the user's createdEvents for
// events stored before ownerId existed.
func (s *Events) checkOwner(ctx context.Context, event model.Event, userID string) error {
	if event.OwnerID != "" {
		if event.OwnerID != userID {
			return model.ErrPermissionDenied
		}
		return nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrPermissionDenied
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.HasCreated(event.ID) {
		return model.ErrPermissionDenied
	}
	return nil
}

func (s *Events) upload(ctx context.Context, content []byte, contentType string) (string, error) {
	if s.blobs == nil {
		return "", errors.New("blob storage is not configured")
	}
	url, err := s.blobs.Upload(ctx, model.BlobEventImage, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload event image: %w", err)
	}
	return url, nil
}
