package document

import (
	"context"
	"fmt"

	"github.com/dtroode/sportify-server/internal/model"
)

var _ model.EventStore = (*EventRepository)(nil)

type EventRepository struct {
	docs model.DocumentStore
}

func NewEventRepository(docs model.DocumentStore) *EventRepository {
	return &EventRepository{docs: docs}
}

// Create adds the event and returns it with the store assigned id.
func (r *EventRepository) Create(ctx context.Context, event model.Event) (model.Event, error) {
	event.RegisteredUsers = idList(event.RegisteredUsers)

	fields, err := toFields(event)
	if err != nil {
		return model.Event{}, err
	}
	id, err := r.docs.Add(ctx, model.CollectionEvents, fields)
	if err != nil {
		return model.Event{}, err
	}
	event.ID = id
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (model.Event, error) {
	doc, err := r.docs.Get(ctx, model.CollectionEvents, id)
	if err != nil {
		return model.Event{}, err
	}
	return decodeEvent(doc)
}

// UpdateDetails overwrites every detail field, leaving registrations and owner intact.
func (r *EventRepository) UpdateDetails(ctx context.Context, id string, details model.EventDetails) error {
	fields, err := toFields(details)
	if err != nil {
		return err
	}
	if _, ok := fields["picture"]; !ok {
		fields["picture"] = ""
	}
	return r.docs.Update(ctx, model.CollectionEvents, id, fields)
}

func (r *EventRepository) SetRegisteredUsers(ctx context.Context, id string, userIDs []string) error {
	return r.docs.Update(ctx, model.CollectionEvents, id, model.Fields{"registeredUsers": idList(userIDs)})
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, model.CollectionEvents, id)
}

func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	docs, err := r.docs.List(ctx, model.CollectionEvents)
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEvent(doc)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeEvent(doc model.Document) (model.Event, error) {
	var e model.Event
	if err := fromFields(doc.Fields, &e); err != nil {
		return model.Event{}, fmt.Errorf("event %s: %w", doc.ID, err)
	}
	e.ID = doc.ID
	return e, nil
}
