package document

import (
	"context"
	"fmt"

	"github.com/dtroode/sportify-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	docs model.DocumentStore
}

func NewUserRepository(docs model.DocumentStore) *UserRepository {
	return &UserRepository{docs: docs}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	doc, err := r.docs.Get(ctx, model.CollectionUsers, id)
	if err != nil {
		return model.User{}, err
	}
	return decodeUser(doc)
}

func (r *UserRepository) Create(ctx context.Context, user model.User) error {
	user.RegisteredEvents = idList(user.RegisteredEvents)
	user.CreatedEvents = idList(user.CreatedEvents)

	fields, err := toFields(user)
	if err != nil {
		return err
	}
	return r.docs.Set(ctx, model.CollectionUsers, user.ID, fields)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, profile model.Profile) error {
	fields, err := toFields(profile)
	if err != nil {
		return err
	}
	return r.docs.Update(ctx, model.CollectionUsers, id, fields)
}

func (r *UserRepository) SetRegisteredEvents(ctx context.Context, id string, eventIDs []string) error {
	return r.docs.Update(ctx, model.CollectionUsers, id, model.Fields{"registeredEvents": idList(eventIDs)})
}

func (r *UserRepository) SetCreatedEvents(ctx context.Context, id string, eventIDs []string) error {
	return r.docs.Update(ctx, model.CollectionUsers, id, model.Fields{"createdEvents": idList(eventIDs)})
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	docs, err := r.docs.List(ctx, model.CollectionUsers)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func decodeUser(doc model.Document) (model.User, error) {
	var u model.User
	if err := fromFields(doc.Fields, &u); err != nil {
		return model.User{}, fmt.Errorf("user %s: %w", doc.ID, err)
	}
	u.ID = doc.ID
	return u, nil
}
