package model

import (
	"context"
	"slices"
	"time"
)

// EventStore defines typed operations over the events collection.
type EventStore interface {
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	UpdateDetails(ctx context.Context, id string, details EventDetails) error
	SetRegisteredUsers(ctx context.Context, id string, userIDs []string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Event, error)
}

const (
	// DateLayout is the storage format of Event.Date.
	DateLayout = "2006-01-02"
	// TimeLayout is the storage format of Event.Time.
	TimeLayout = "15:04:05"
	// ShortTimeLayout is accepted on input alongside TimeLayout.
	ShortTimeLayout = "15:04"
)

// EventDetails are the owner-editable fields of an event.
type EventDetails struct {
	Name         string `json:"eventName"`
	SportType    string `json:"sportType"`
	Location     string `json:"location"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Participants int    `json:"participants"`
	Description  string `json:"description"`
	Picture      string `json:"picture,omitempty"`
}

// Event is a document of the events collection.
type Event struct {
	ID string `json:"-"`
	EventDetails
	OwnerID         string   `json:"ownerId,omitempty"`
	RegisteredUsers []string `json:"registeredUsers"`
}

// HasRegistered reports whether userID is on the event side of the registration link.
func (e Event) HasRegistered(userID string) bool {
	return slices.Contains(e.RegisteredUsers, userID)
}

// Validate checks the required event form fields.
// Capacity is only checked for being positive, never against RegisteredUsers.
func (d EventDetails) Validate() error {
	switch {
	case d.Name == "":
		return NewValidationError("eventName", "is required")
	case d.SportType == "":
		return NewValidationError("sportType", "is required")
	case d.Location == "":
		return NewValidationError("location", "is required")
	case d.Date == "":
		return NewValidationError("date", "is required")
	case d.Time == "":
		return NewValidationError("time", "is required")
	case d.Description == "":
		return NewValidationError("description", "is required")
	}
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, d.Time); err != nil {
		if _, err := time.Parse(ShortTimeLayout, d.Time); err != nil {
			return NewValidationError("time", "must be formatted as HH:MM or HH:MM:SS")
		}
	}
	if d.Participants <= 0 {
		return NewValidationError("participants", "must be positive")
	}
	return nil
}

// CreateEventParams contains parameters to create an event.
type CreateEventParams struct {
	OwnerID string
	Details EventDetails
	// Picture is optional raw image content; when set it replaces Details.Picture
	// with the uploaded blob URL.
	Picture            []byte
	PictureContentType string
}

// UpdateEventParams contains parameters to overwrite an event's details.
type UpdateEventParams struct {
	UserID  string
	EventID string
	Details EventDetails
	// Picture is optional raw image content replacing Details.Picture.
	Picture            []byte
	PictureContentType string
}
