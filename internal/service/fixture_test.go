package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/repository/document"
	"github.com/dtroode/sportify-server/internal/repository/memory"
	"github.com/dtroode/sportify-server/internal/testutil"
)

// MockBlobStore mocks the BlobStore interface
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, kind model.BlobKind, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, kind, reader, size, contentType)
	return args.String(0), args.Error(1)
}

type fixture struct {
	docs       *memory.DocumentStore
	users      *document.UserRepository
	events     *document.EventRepository
	membership *Membership
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := memory.NewDocumentStore()
	users := document.NewUserRepository(docs)
	events := document.NewEventRepository(docs)
	return &fixture{
		docs:       docs,
		users:      users,
		events:     events,
		membership: NewMembership(users, events, 4, testutil.MakeNoopLogger()),
	}
}

func testDetails() model.EventDetails {
	return model.EventDetails{
		Name:         "Sunday league",
		SportType:    "football",
		Location:     "Riverside pitch",
		Date:         "2026-11-08",
		Time:         "10:00",
		Participants: 10,
		Description:  "Seven a side, all levels",
	}
}

func (f *fixture) addUser(t *testing.T, id string) {
	t.Helper()
	err := f.users.Create(context.Background(), model.User{
		ID: id,
		Profile: model.Profile{
			FirstName:    "First " + id,
			LastName:     "Last " + id,
			Email:        id + "@example.com",
			MobileNumber: "+10000000000",
		},
	})
	require.NoError(t, err)
}

// addEvent stores an event under a fixed id so scenarios can name it.
func (f *fixture) addEvent(t *testing.T, id, ownerID string, registered ...string) {
	t.Helper()
	if registered == nil {
		registered = []string{}
	}
	d := testDetails()
	err := f.docs.Set(context.Background(), model.CollectionEvents, id, model.Fields{
		"eventName":       d.Name,
		"sportType":       d.SportType,
		"location":        d.Location,
		"date":            d.Date,
		"time":            d.Time,
		"participants":    d.Participants,
		"description":     d.Description,
		"ownerId":         ownerID,
		"registeredUsers": registered,
	})
	require.NoError(t, err)
}

func (f *fixture) user(t *testing.T, id string) model.User {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) event(t *testing.T, id string) model.Event {
	t.Helper()
	e, err := f.events.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

// failOn makes every call of op on collection fail with err. An empty id
// matches every document.
func (f *fixture) failOn(op memory.Op, collection, id string, err error) {
	f.docs.SetFault(func(gotOp memory.Op, gotCollection, gotID string) error {
		if gotOp == op && gotCollection == collection && (id == "" || gotID == id) {
			return err
		}
		return nil
	})
}
