package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/repository/memory"
)

var errStoreDown = errors.New("store down")

func TestMembership_RegisterUnregisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addUser(t, "other")
	f.addEvent(t, "e1", "owner", "other")

	userBefore := f.user(t, "u1")
	eventBefore := f.event(t, "e1")

	result, err := f.membership.Register(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.FullSuccess(), result)
	assert.Equal(t, []string{"e1"}, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"other", "u1"}, f.event(t, "e1").RegisteredUsers)

	result, err = f.membership.Unregister(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.FullSuccess(), result)

	assert.Equal(t, userBefore, f.user(t, "u1"))
	assert.Equal(t, eventBefore, f.event(t, "e1"))
}

func TestMembership_RegisterTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner")

	_, err := f.membership.Register(ctx, "u1", "e1")
	require.NoError(t, err)

	result, err := f.membership.Register(ctx, "u1", "e1")
	assert.ErrorIs(t, err, model.ErrAlreadyRegistered)
	assert.Equal(t, model.Failure(), result)

	assert.Equal(t, []string{"e1"}, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"u1"}, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner")

	const calls = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.membership.Register(context.Background(), "u1", "e1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrAlreadyRegistered):
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, calls-1, already)
	assert.Equal(t, []string{"e1"}, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"u1"}, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterDifferentUsersConcurrently(t *testing.T) {
	f := newFixture(t)
	ids := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	for _, id := range ids {
		f.addUser(t, id)
	}
	f.addEvent(t, "e1", "owner")

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.membership.Register(context.Background(), id, "e1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, ids, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterNotFound(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner")

	tests := []struct {
		name    string
		userID  string
		eventID string
	}{
		{name: "missing user", userID: "ghost", eventID: "e1"},
		{name: "missing event", userID: "u1", eventID: "gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.membership.Register(context.Background(), tt.userID, tt.eventID)
			assert.ErrorIs(t, err, model.ErrNotFound)
			assert.Equal(t, model.OutcomeFailure, result.Outcome)
		})
	}
	assert.Empty(t, f.user(t, "u1").RegisteredEvents)
	assert.Empty(t, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterPartialWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner")
	f.failOn(memory.OpUpdate, model.CollectionEvents, "e1", errStoreDown)

	result, err := f.membership.Register(ctx, "u1", "e1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPartialWrite)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, model.PartialSuccess(model.SideEvent), result)
	assert.Equal(t, result, model.ResultOf(err))

	var pw *model.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, model.SideEvent, pw.FailedSide)

	f.docs.SetFault(nil)
	assert.Equal(t, []string{"e1"}, f.user(t, "u1").RegisteredEvents)
	assert.Empty(t, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterUserWriteFails(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner")
	f.failOn(memory.OpUpdate, model.CollectionUsers, "", errStoreDown)

	result, err := f.membership.Register(context.Background(), "u1", "e1")
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, model.ErrPartialWrite)
	assert.Equal(t, model.Failure(), result)

	f.docs.SetFault(nil)
	assert.Empty(t, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_RegisterHealsEventSide(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "owner", "u1")

	result, err := f.membership.Register(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.FullSuccess(), result)

	assert.Equal(t, []string{"e1"}, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"u1"}, f.event(t, "e1").RegisteredUsers)
}

func TestMembership_Unregister(t *testing.T) {
	t.Run("not registered", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "u1")
		f.addEvent(t, "e1", "owner")

		result, err := f.membership.Unregister(context.Background(), "u1", "e1")
		assert.ErrorIs(t, err, model.ErrNotRegistered)
		assert.Equal(t, model.Failure(), result)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newFixture(t)
		f.addEvent(t, "e1", "owner")

		_, err := f.membership.Unregister(context.Background(), "ghost", "e1")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("vanished event cleans user side", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "u1")
		require.NoError(t, f.users.SetRegisteredEvents(context.Background(), "u1", []string{"gone", "e2"}))

		result, err := f.membership.Unregister(context.Background(), "u1", "gone")
		require.NoError(t, err)
		assert.Equal(t, model.FullSuccess(), result)
		assert.Equal(t, []string{"e2"}, f.user(t, "u1").RegisteredEvents)
	})

	t.Run("event write fails", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "u1")
		f.addEvent(t, "e1", "owner")
		_, err := f.membership.Register(context.Background(), "u1", "e1")
		require.NoError(t, err)

		f.failOn(memory.OpUpdate, model.CollectionEvents, "e1", errStoreDown)
		result, err := f.membership.Unregister(context.Background(), "u1", "e1")
		assert.ErrorIs(t, err, model.ErrPartialWrite)
		assert.Equal(t, model.PartialSuccess(model.SideEvent), result)

		f.docs.SetFault(nil)
		assert.Empty(t, f.user(t, "u1").RegisteredEvents)
		assert.Equal(t, []string{"u1"}, f.event(t, "e1").RegisteredUsers)
	})
}

func TestMembership_CreateEventLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "owner")

	result, err := f.membership.CreateEventLink(ctx, "owner", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.FullSuccess(), result)
	assert.Equal(t, []string{"e1"}, f.user(t, "owner").CreatedEvents)

	result, err = f.membership.CreateEventLink(ctx, "owner", "e1")
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
	assert.Equal(t, model.Failure(), result)
	assert.Equal(t, []string{"e1"}, f.user(t, "owner").CreatedEvents)

	_, err = f.membership.CreateEventLink(ctx, "ghost", "e1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMembership_DeleteEventCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, id := range []string{"o", "u1", "u2", "u3"} {
		f.addUser(t, id)
	}
	f.addEvent(t, "e", "o")
	f.addEvent(t, "other", "o")
	_, err := f.membership.CreateEventLink(ctx, "o", "e")
	require.NoError(t, err)
	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := f.membership.Register(ctx, id, "e")
		require.NoError(t, err)
	}
	_, err = f.membership.Register(ctx, "u2", "other")
	require.NoError(t, err)

	result, err := f.membership.DeleteEventCascade(ctx, "e", "o")
	require.NoError(t, err)
	assert.Equal(t, model.FullSuccess(), result)

	_, err = f.events.GetByID(ctx, "e")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NotContains(t, f.user(t, "o").CreatedEvents, "e")
	assert.Empty(t, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"other"}, f.user(t, "u2").RegisteredEvents)
	assert.Empty(t, f.user(t, "u3").RegisteredEvents)
}

func TestMembership_DeleteEventCascadeCollectsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, id := range []string{"o", "u1", "u3"} {
		f.addUser(t, id)
	}
	f.addEvent(t, "e", "o", "u1", "vanished", "u3")
	require.NoError(t, f.users.SetCreatedEvents(ctx, "o", []string{"e"}))
	for _, id := range []string{"u1", "u3"} {
		require.NoError(t, f.users.SetRegisteredEvents(ctx, id, []string{"e"}))
	}

	f.failOn(memory.OpUpdate, model.CollectionUsers, "u3", errStoreDown)

	result, err := f.membership.DeleteEventCascade(ctx, "e", "o")
	require.Error(t, err)
	assert.Equal(t, model.PartialSuccess(model.SideUser), result)
	assert.ErrorIs(t, err, model.ErrPartialWrite)
	assert.ErrorIs(t, err, errStoreDown)

	var cascade *model.CascadeError
	require.ErrorAs(t, err, &cascade)
	assert.Equal(t, "e", cascade.EventID)
	require.Len(t, cascade.Failures, 1)
	assert.Equal(t, "u3", cascade.Failures[0].UserID)

	f.docs.SetFault(nil)
	_, err = f.events.GetByID(ctx, "e")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, f.user(t, "o").CreatedEvents)
	assert.Empty(t, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"e"}, f.user(t, "u3").RegisteredEvents)
}

func TestMembership_DeleteEventCascadeOwnerFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "o")
	f.addEvent(t, "e", "o")
	require.NoError(t, f.users.SetCreatedEvents(ctx, "o", []string{"e"}))

	f.failOn(memory.OpUpdate, model.CollectionUsers, "o", errStoreDown)

	_, err := f.membership.DeleteEventCascade(ctx, "e", "o")
	var cascade *model.CascadeError
	require.ErrorAs(t, err, &cascade)
	require.Len(t, cascade.Failures, 1)
	assert.Equal(t, "o", cascade.Failures[0].UserID)
}

func TestMembership_DeleteEventCascadeNotFound(t *testing.T) {
	f := newFixture(t)

	result, err := f.membership.DeleteEventCascade(context.Background(), "gone", "o")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, model.Failure(), result)
}

func TestWithout(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, without([]string{"a", "b", "c", "b"}, "b"))
	assert.Equal(t, []string{}, without(nil, "b"))
}
