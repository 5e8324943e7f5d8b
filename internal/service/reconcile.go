package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dtroode/sportify-server/internal/model"
)

// ReconcileReport summarizes one sweep.
type ReconcileReport struct {
	UsersRepaired  int `json:"usersRepaired"`
	EventsRepaired int `json:"eventsRepaired"`
	LinksAdded     int `json:"linksAdded"`
	LinksRemoved   int `json:"linksRemoved"`
	Errors         int `json:"errors"`
}

// Reconcile repairs one-sided links left by partial writes. The event side
// is authoritative for registrations: a user lists an event iff the event
// lists the user. Created lists follow ownerId. Ids of vanished documents
// are removed from both sides.
func (m *Membership) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var (
		users  []model.User
		events []model.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = m.users.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = m.events.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return ReconcileReport{}, err
	}

	var report ReconcileReport

	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}
	for _, e := range events {
		for _, userID := range e.RegisteredUsers {
			if _, ok := known[userID]; ok {
				continue
			}
			removed, err := m.dropVanishedUser(ctx, e.ID, userID)
			if err != nil {
				m.logger.Warn("reconcile event failed", "event_id", e.ID, "error", err)
				report.Errors++
				continue
			}
			if removed {
				report.EventsRepaired++
				report.LinksRemoved++
			}
		}
	}

	for _, u := range users {
		added, removed, err := m.repairUser(ctx, u.ID, events)
		if err != nil {
			m.logger.Warn("reconcile user failed", "user_id", u.ID, "error", err)
			report.Errors++
			continue
		}
		if added+removed > 0 {
			report.UsersRepaired++
			report.LinksAdded += added
			report.LinksRemoved += removed
		}
	}

	m.logger.Info("reconcile finished",
		"users_repaired", report.UsersRepaired,
		"events_repaired", report.EventsRepaired,
		"links_added", report.LinksAdded,
		"links_removed", report.LinksRemoved,
		"errors", report.Errors,
	)
	return report, nil
}

// dropVanishedUser removes userID from the event once the user is confirmed gone.
func (m *Membership) dropVanishedUser(ctx context.Context, eventID, userID string) (bool, error) {
	_, err := m.users.GetByID(ctx, userID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, fmt.Errorf("failed to get user: %w", err)
	}

	unlock := m.locks.Lock(eventKey(eventID))
	defer unlock()

	event, err := m.events.GetByID(ctx, eventID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get event: %w", err)
	}
	if !event.HasRegistered(userID) {
		return false, nil
	}
	if err := m.events.SetRegisteredUsers(ctx, eventID, without(event.RegisteredUsers, userID)); err != nil {
		return false, fmt.Errorf("failed to write event side: %w", err)
	}
	return true, nil
}

// repairUser rewrites the link lists of userID. Holding the user lock means no
// in-process register or unregister for this user is halfway through, so the
// events are reread fresh rather than trusted from the snapshot.
func (m *Membership) repairUser(ctx context.Context, userID string, snapshot []model.Event) (added, removed int, err error) {
	unlock := m.locks.Lock(userKey(userID))
	defer unlock()

	user, err := m.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get user: %w", err)
	}

	fresh := make(map[string]*model.Event)
	resolve := func(id string) (*model.Event, error) {
		if e, ok := fresh[id]; ok {
			return e, nil
		}
		event, err := m.events.GetByID(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			fresh[id] = nil
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		fresh[id] = &event
		return &event, nil
	}

	registered, regAdded, regRemoved, err := reconcileIDs(user.RegisteredEvents, snapshot, resolve,
		func(e *model.Event) bool { return e.HasRegistered(userID) })
	if err != nil {
		return 0, 0, err
	}
	created, crAdded, crRemoved, err := reconcileIDs(user.CreatedEvents, snapshot, resolve,
		func(e *model.Event) bool { return e.OwnerID == userID || (e.OwnerID == "" && user.HasCreated(e.ID)) })
	if err != nil {
		return 0, 0, err
	}

	if regAdded+regRemoved > 0 {
		if err := m.users.SetRegisteredEvents(ctx, userID, registered); err != nil {
			return 0, 0, fmt.Errorf("failed to write registered events: %w", err)
		}
	}
	if crAdded+crRemoved > 0 {
		if err := m.users.SetCreatedEvents(ctx, userID, created); err != nil {
			return 0, 0, fmt.Errorf("failed to write created events: %w", err)
		}
	}

	return regAdded + crAdded, regRemoved + crRemoved, nil
}

// reconcileIDs keeps the ids whose fresh event satisfies linked, in their
// current order, and appends snapshot events that satisfy it but are missing.
func reconcileIDs(
	current []string,
	snapshot []model.Event,
	resolve func(id string) (*model.Event, error),
	linked func(*model.Event) bool,
) (ids []string, added, removed int, err error) {
	ids = make([]string, 0, len(current))
	for _, id := range current {
		if slices.Contains(ids, id) {
			removed++
			continue
		}
		e, err := resolve(id)
		if err != nil {
			return nil, 0, 0, err
		}
		if e == nil || !linked(e) {
			removed++
			continue
		}
		ids = append(ids, id)
	}

	for i := range snapshot {
		if slices.Contains(ids, snapshot[i].ID) || !linked(&snapshot[i]) {
			continue
		}
		e, err := resolve(snapshot[i].ID)
		if err != nil {
			return nil, 0, 0, err
		}
		if e == nil || !linked(e) {
			continue
		}
		ids = append(ids, e.ID)
		added++
	}

	return ids, added, removed, nil
}
