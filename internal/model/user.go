package model

import (
	"context"
	"slices"
)

// UserStore defines typed operations over the users collection.
type UserStore interface {
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) error
	UpdateProfile(ctx context.Context, id string, profile Profile) error
	SetRegisteredEvents(ctx context.Context, id string, eventIDs []string) error
	SetCreatedEvents(ctx context.Context, id string, eventIDs []string) error
	List(ctx context.Context) ([]User, error)
}

// Profile holds user fields that are opaque to membership logic.
type Profile struct {
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
	Email          string `json:"email"`
	MobileNumber   string `json:"mobilenumber"`
	ProfilePicture string `json:"profilepicture"`
}

// User is a document of the users collection.
type User struct {
	ID string `json:"-"`
	Profile
	RegisteredEvents []string `json:"registeredEvents"`
	CreatedEvents    []string `json:"createdEvents"`
}

// IsRegisteredFor reports whether eventID is on the user side of the registration link.
func (u User) IsRegisteredFor(eventID string) bool {
	return slices.Contains(u.RegisteredEvents, eventID)
}

// HasCreated reports whether eventID is listed in the user's created events.
func (u User) HasCreated(eventID string) bool {
	return slices.Contains(u.CreatedEvents, eventID)
}

// CreateProfileParams contains parameters to create a user document.
type CreateProfileParams struct {
	UserID  string
	Profile Profile
	// Picture is optional raw image content uploaded to blob storage.
	Picture []byte
	// PictureContentType defaults to image/jpeg.
	PictureContentType string
}

// UpdateProfileParams contains parameters to overwrite a user's profile fields.
type UpdateProfileParams struct {
	UserID  string
	Profile Profile
	// Picture is optional raw image content replacing Profile.ProfilePicture.
	Picture            []byte
	PictureContentType string
}

// Validate checks fields required at account registration.
func (p Profile) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"firstname", p.FirstName},
		{"lastname", p.LastName},
		{"email", p.Email},
		{"mobilenumber", p.MobileNumber},
	}
	for _, r := range required {
		if r.value == "" {
			return NewValidationError(r.field, "is required")
		}
	}
	return nil
}
