package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// Cached is the entry point used by transports. Reads go to the remote stores
// and overwrite the local cache on success. When the remote store is
// unavailable reads are served from the cache and flagged as such. Writes
// refresh the affected cache rows after they complete.
type Cached struct {
	users        model.UserStore
	events       *Events
	membership   *Membership
	profiles     *Profiles
	cache        model.EventCache
	maxStaleness time.Duration
	now          func() time.Time
	logger       *logger.Logger
}

// NewCached wires the reconciliation layer. A zero maxStaleness serves
// cached rows of any age.
func NewCached(
	users model.UserStore,
	events *Events,
	membership *Membership,
	profiles *Profiles,
	cache model.EventCache,
	maxStaleness time.Duration,
	logger *logger.Logger,
) *Cached {
	return &Cached{
		users:        users,
		events:       events,
		membership:   membership,
		profiles:     profiles,
		cache:        cache,
		maxStaleness: maxStaleness,
		now:          time.Now,
		logger:       logger,
	}
}

func (c *Cached) ListAllEvents(ctx context.Context) (model.Listing, error) {
	events, err := c.events.ListAllEvents(ctx)
	if err == nil {
		c.upsert(ctx, events...)
		return model.Listing{Events: events}, nil
	}
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		return model.Listing{}, err
	}

	cached, cacheErr := c.query(ctx, model.EventFilter{})
	if cacheErr != nil {
		c.logger.Warn("event cache read failed", "error", cacheErr)
		return model.Listing{}, err
	}
	c.logger.Debug("serving cached events", "count", len(cached))
	return model.Listing{Events: cached, FromCache: true}, nil
}

func (c *Cached) ListRegisteredEvents(ctx context.Context, userID string) (model.Listing, error) {
	return c.listLinked(ctx, userID, func(u model.User) []string { return u.RegisteredEvents })
}

func (c *Cached) ListCreatedEvents(ctx context.Context, userID string) (model.Listing, error) {
	return c.listLinked(ctx, userID, func(u model.User) []string { return u.CreatedEvents })
}

// listLinked resolves the id list picked from the user document. The fallback
// takes the ids from the cached profile blob and the rows from the event cache.
func (c *Cached) listLinked(ctx context.Context, userID string, ids func(model.User) []string) (model.Listing, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err == nil {
		c.profiles.store(ctx, user)

		var events []model.Event
		events, err = c.events.fetchEvents(ctx, ids(user))
		if err == nil {
			c.upsert(ctx, events...)
			return model.Listing{Events: events}, nil
		}
	}
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		return model.Listing{}, fmt.Errorf("failed to list linked events: %w", err)
	}

	cachedUser, ok, cacheErr := c.profiles.cache.GetProfile(ctx, userID)
	if cacheErr != nil {
		c.logger.Warn("profile cache read failed", "user_id", userID, "error", cacheErr)
	}
	if !ok {
		return model.Listing{}, fmt.Errorf("failed to list linked events: %w", err)
	}

	wanted := ids(cachedUser)
	rows, cacheErr := c.query(ctx, model.EventFilter{IDs: wanted})
	if cacheErr != nil {
		c.logger.Warn("event cache read failed", "user_id", userID, "error", cacheErr)
		return model.Listing{}, fmt.Errorf("failed to list linked events: %w", err)
	}

	return model.Listing{Events: orderBy(wanted, rows), FromCache: true}, nil
}

// GetEvent reads one event. The second result reports a cache hit.
func (c *Cached) GetEvent(ctx context.Context, eventID string) (model.Event, bool, error) {
	event, err := c.events.GetEvent(ctx, eventID)
	if err == nil {
		c.upsert(ctx, event)
		return event, false, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		c.forget(ctx, eventID)
		return model.Event{}, false, err
	}
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		return model.Event{}, false, err
	}

	cached, cacheErr := c.query(ctx, model.EventFilter{IDs: []string{eventID}})
	if cacheErr != nil || len(cached) == 0 {
		return model.Event{}, false, err
	}
	return cached[0], true, nil
}

// IsUserRegistered answers from the event side, using the cached row when
// the remote store is unavailable.
func (c *Cached) IsUserRegistered(ctx context.Context, userID, eventID string) (bool, error) {
	event, _, err := c.GetEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	return event.HasRegistered(userID), nil
}

func (c *Cached) Register(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	result, err := c.membership.Register(ctx, userID, eventID)
	c.afterWrite(ctx, result, userID, eventID)
	return result, err
}

func (c *Cached) Unregister(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	result, err := c.membership.Unregister(ctx, userID, eventID)
	c.afterWrite(ctx, result, userID, eventID)
	return result, err
}

func (c *Cached) CreateEvent(ctx context.Context, params model.CreateEventParams) (model.Event, model.WriteResult, error) {
	event, result, err := c.events.CreateEvent(ctx, params)
	if event.ID != "" {
		c.upsert(ctx, event)
		c.profiles.Refresh(ctx, params.OwnerID)
	}
	return event, result, err
}

func (c *Cached) UpdateEvent(ctx context.Context, params model.UpdateEventParams) (model.Event, error) {
	event, err := c.events.UpdateEvent(ctx, params)
	if err != nil {
		return model.Event{}, err
	}
	c.upsert(ctx, event)
	return event, nil
}

func (c *Cached) DeleteEvent(ctx context.Context, userID, eventID string) (model.WriteResult, error) {
	result, err := c.events.DeleteEvent(ctx, userID, eventID)
	if result.Outcome != model.OutcomeFailure {
		c.forget(ctx, eventID)
		c.profiles.Refresh(ctx, userID)
	}
	return result, err
}

func (c *Cached) afterWrite(ctx context.Context, result model.WriteResult, userID, eventID string) {
	if result.Outcome == model.OutcomeFailure {
		return
	}
	c.profiles.Refresh(ctx, userID)

	event, err := c.events.GetEvent(ctx, eventID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		c.forget(ctx, eventID)
	case err != nil:
		c.logger.Debug("event cache refresh skipped", "event_id", eventID, "error", err)
	default:
		c.upsert(ctx, event)
	}
}

func (c *Cached) upsert(ctx context.Context, events ...model.Event) {
	if len(events) == 0 {
		return
	}
	if err := c.cache.UpsertEvents(ctx, events); err != nil {
		c.logger.Warn("event cache write failed", "count", len(events), "error", err)
	}
}

func (c *Cached) forget(ctx context.Context, eventID string) {
	if err := c.cache.DeleteEvent(ctx, eventID); err != nil {
		c.logger.Warn("event cache delete failed", "event_id", eventID, "error", err)
	}
}

func (c *Cached) query(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	if c.maxStaleness > 0 {
		filter.SyncedAfter = c.now().Add(-c.maxStaleness)
	}
	rows, err := c.cache.QueryEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.Event)
	}
	return events, nil
}

// orderBy returns the events whose id is in ids, in the order of ids.
func orderBy(ids []string, events []model.Event) []model.Event {
	byID := make(map[string]model.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Prune evicts cache rows not synced since olderThan.
func (c *Cached) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := c.cache.Prune(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return n, nil
}
