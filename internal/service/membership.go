package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// Membership maintains the registration and creation links between user and
// event documents with ordered, non-atomic writes. No write is rolled back:
// a failure after the first write is reported as a partial write.
type Membership struct {
	users       model.UserStore
	events      model.EventStore
	locks       *keyedMutex
	fanoutLimit int
	logger      *logger.Logger
}

func NewMembership(
	users model.UserStore,
	events model.EventStore,
	fanoutLimit int,
	logger *logger.Logger,
) *Membership {
	if fanoutLimit <= 0 {
		fanoutLimit = 1
	}
	return &Membership{
		users:       users,
		events:      events,
		locks:       newKeyedMutex(),
		fanoutLimit: fanoutLimit,
		logger:      logger,
	}
}

type pair struct {
	user     model.User
	userErr  error
	event    model.Event
	eventErr error
}

// fetchPair reads both documents concurrently. Errors are kept per side so a
// missing event does not cancel the user read.
func (m *Membership) fetchPair(ctx context.Context, userID, eventID string) pair {
	var (
		p pair
		g errgroup.Group
	)
	g.Go(func() error {
		p.user, p.userErr = m.users.GetByID(ctx, userID)
		return nil
	})
	g.Go(func() error {
		p.event, p.eventErr = m.events.GetByID(ctx, eventID)
		return nil
	})
	_ = g.Wait()
	return p
}

// Register links userID and eventID on both sides, user side first.
func (m *Membership) Register(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	unlock := m.locks.Lock(userKey(userID), eventKey(eventID))
	defer unlock()

	p := m.fetchPair(ctx, userID, eventID)
	if p.userErr != nil {
		return model.Failure(), fmt.Errorf("failed to get user: %w", p.userErr)
	}
	if p.eventErr != nil {
		return model.Failure(), fmt.Errorf("failed to get event: %w", p.eventErr)
	}
	if p.user.IsRegisteredFor(eventID) {
		return model.Failure(), model.ErrAlreadyRegistered
	}

	registered := append(slices.Clone(p.user.RegisteredEvents), eventID)
	if err := m.users.SetRegisteredEvents(ctx, userID, registered); err != nil {
		return model.Failure(), fmt.Errorf("failed to write user side: %w", err)
	}

	// A previous partial write may have left the event side linked already.
	if p.event.HasRegistered(userID) {
		m.logger.Debug("event side already linked", "user_id", userID, "event_id", eventID)
		return model.FullSuccess(), nil
	}

	users := append(slices.Clone(p.event.RegisteredUsers), userID)
	if err := m.events.SetRegisteredUsers(ctx, eventID, users); err != nil {
		m.logger.Warn("register left one-sided link", "user_id", userID, "event_id", eventID, "error", err)
		return model.PartialSuccess(model.SideEvent), &model.PartialWriteError{
			Op:         "register",
			FailedSide: model.SideEvent,
			Err:        err,
		}
	}

	return model.FullSuccess(), nil
}

// Unregister removes the link from both sides, user side first. An event that
// no longer exists only has its dangling id removed from the user.
func (m *Membership) Unregister(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	unlock := m.locks.Lock(userKey(userID), eventKey(eventID))
	defer unlock()

	p := m.fetchPair(ctx, userID, eventID)
	if p.userErr != nil {
		return model.Failure(), fmt.Errorf("failed to get user: %w", p.userErr)
	}
	if !p.user.IsRegisteredFor(eventID) {
		return model.Failure(), model.ErrNotRegistered
	}
	eventGone := errors.Is(p.eventErr, model.ErrNotFound)
	if p.eventErr != nil && !eventGone {
		return model.Failure(), fmt.Errorf("failed to get event: %w", p.eventErr)
	}

	if err := m.users.SetRegisteredEvents(ctx, userID, without(p.user.RegisteredEvents, eventID)); err != nil {
		return model.Failure(), fmt.Errorf("failed to write user side: %w", err)
	}

	if eventGone {
		m.logger.Debug("removed dangling registration", "user_id", userID, "event_id", eventID)
		return model.FullSuccess(), nil
	}
	if !p.event.HasRegistered(userID) {
		return model.FullSuccess(), nil
	}

	err := m.events.SetRegisteredUsers(ctx, eventID, without(p.event.RegisteredUsers, userID))
	if errors.Is(err, model.ErrNotFound) {
		return model.FullSuccess(), nil
	}
	if err != nil {
		m.logger.Warn("unregister left one-sided link", "user_id", userID, "event_id", eventID, "error", err)
		return model.PartialSuccess(model.SideEvent), &model.PartialWriteError{
			Op:         "unregister",
			FailedSide: model.SideEvent,
			Err:        err,
		}
	}

	return model.FullSuccess(), nil
}

// CreateEventLink records eventID in the creator's createdEvents.
func (m *Membership) CreateEventLink(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	unlock := m.locks.Lock(userKey(userID))
	defer unlock()

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return model.Failure(), fmt.Errorf("failed to get user: %w", err)
	}
	if user.HasCreated(eventID) {
		return model.Failure(), model.ErrAlreadyExists
	}

	created := append(slices.Clone(user.CreatedEvents), eventID)
	if err := m.users.SetCreatedEvents(ctx, userID, created); err != nil {
		return model.Failure(), fmt.Errorf("failed to write created events: %w", err)
	}

	return model.FullSuccess(), nil
}

// DeleteEventCascade deletes the event, then unlinks it from the owner and
// from every user in the registeredUsers snapshot read before the delete.
// Unlink failures do not stop the fan-out and are returned as *model.CascadeError.
func (m *Membership) DeleteEventCascade(ctx context.Context, eventID, ownerID string) (model.WriteResult, error) {
	event, err := m.deleteEvent(ctx, eventID)
	if err != nil {
		return model.Failure(), err
	}

	var (
		mu       sync.Mutex
		failures []model.CascadeFailure
	)
	fail := func(userID string, err error) {
		m.logger.Warn("cascade unlink failed", "user_id", userID, "event_id", eventID, "error", err)
		mu.Lock()
		failures = append(failures, model.CascadeFailure{UserID: userID, Err: err})
		mu.Unlock()
	}

	if ownerID != "" {
		if err := m.unlinkCreated(ctx, ownerID, eventID); err != nil {
			fail(ownerID, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(m.fanoutLimit)
	for _, userID := range event.RegisteredUsers {
		g.Go(func() error {
			if err := m.unlinkRegistered(ctx, userID, eventID); err != nil {
				fail(userID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].UserID < failures[j].UserID })
		return model.PartialSuccess(model.SideUser), &model.CascadeError{EventID: eventID, Failures: failures}
	}

	return model.FullSuccess(), nil
}

func (m *Membership) deleteEvent(ctx context.Context, eventID string) (model.Event, error) {
	unlock := m.locks.Lock(eventKey(eventID))
	defer unlock()

	event, err := m.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	if err := m.events.Delete(ctx, eventID); err != nil {
		return model.Event{}, fmt.Errorf("failed to delete event: %w", err)
	}
	return event, nil
}

// unlinkCreated and unlinkRegistered treat a missing user as nothing to do.
func (m *Membership) unlinkCreated(ctx context.Context, userID, eventID string) error {
	unlock := m.locks.Lock(userKey(userID))
	defer unlock()

	user, err := m.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get owner: %w", err)
	}
	if !user.HasCreated(eventID) {
		return nil
	}
	err = m.users.SetCreatedEvents(ctx, userID, without(user.CreatedEvents, eventID))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to write created events: %w", err)
	}
	return nil
}

func (m *Membership) unlinkRegistered(ctx context.Context, userID, eventID string) error {
	unlock := m.locks.Lock(userKey(userID))
	defer unlock()

	user, err := m.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		m.logger.Debug("skipping vanished user", "user_id", userID, "event_id", eventID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsRegisteredFor(eventID) {
		return nil
	}
	err = m.users.SetRegisteredEvents(ctx, userID, without(user.RegisteredEvents, eventID))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to write registered events: %w", err)
	}
	return nil
}

// without returns ids minus every occurrence of id, never nil.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
