package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/repository/memory"
)

func TestReconcile_RepairsOneSidedLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, id := range []string{"o", "u1", "u2", "u3"} {
		f.addUser(t, id)
	}
	f.addEvent(t, "e1", "o")
	f.addEvent(t, "e2", "o", "u2", "ghost")

	// u1 is linked on the user side only after a failed event write.
	f.failOn(memory.OpUpdate, model.CollectionEvents, "e1", errStoreDown)
	_, err := f.membership.Register(ctx, "u1", "e1")
	require.ErrorIs(t, err, model.ErrPartialWrite)
	f.docs.SetFault(nil)

	// u3 still points at a deleted event, o misses e2 and lists a deleted one.
	require.NoError(t, f.users.SetRegisteredEvents(ctx, "u3", []string{"deleted", "deleted"}))
	require.NoError(t, f.users.SetCreatedEvents(ctx, "o", []string{"e1", "deleted"}))

	report, err := f.membership.Reconcile(ctx)
	require.NoError(t, err)

	assert.Empty(t, f.user(t, "u1").RegisteredEvents)
	assert.Equal(t, []string{"e2"}, f.user(t, "u2").RegisteredEvents)
	assert.Empty(t, f.user(t, "u3").RegisteredEvents)
	assert.Equal(t, []string{"e1", "e2"}, f.user(t, "o").CreatedEvents)
	assert.Equal(t, []string{"u2"}, f.event(t, "e2").RegisteredUsers)

	assert.Equal(t, ReconcileReport{
		UsersRepaired:  4,
		EventsRepaired: 1,
		LinksAdded:     2,
		LinksRemoved:   5,
	}, report)

	again, err := f.membership.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{}, again)
}

func TestReconcile_ListFailure(t *testing.T) {
	f := newFixture(t)
	f.failOn(memory.OpList, model.CollectionUsers, "", errStoreDown)

	_, err := f.membership.Reconcile(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestReconcile_CountsItemErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addEvent(t, "e1", "o", "u1")
	f.failOn(memory.OpUpdate, model.CollectionUsers, "u1", errStoreDown)

	report, err := f.membership.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.UsersRepaired)
}
