package models

import (
	"fmt"
)

// Event represents an organizer-created event attendees submit wishes against.
type Event struct {
	base
	code    string
	name    string
	userID  string
	wishURL string
}

// NewEvent creates an Event owned by the given user.
func NewEvent(sequence int, code, name, userID string) *Event {
	return &Event{base: newBase(sequence), code: code, name: name, userID: userID}
}

func (e *Event) Code() string    { return e.code }
func (e *Event) Name() string    { return e.name }
func (e *Event) UserID() string  { return e.userID }
func (e *Event) WishURL() string { return e.wishURL }

func (e *Event) SetName(name string)   { e.name = name }
func (e *Event) SetWishURL(url string) { e.wishURL = url }

func (e *Event) Validate() error {
	if e.code == "" {
		return fmt.Errorf("event code is required")
	}
	if e.name == "" {
		return fmt.Errorf("event name is required")
	}
	if e.userID == "" {
		return fmt.Errorf("event user_id is required")
	}
	return nil
}
