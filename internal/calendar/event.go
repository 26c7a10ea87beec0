// Package calendar wraps the group's Google Calendar behind a cached gateway.
package calendar

import (
	"errors"
	"time"
)

var (
	// ErrUnavailable means the provider could not be reached or authenticated.
	ErrUnavailable = errors.New("calendar: service unavailable")
	// ErrNotFound means the event does not exist or was already deleted.
	ErrNotFound = errors.New("calendar: event not found")
	// ErrInvalidEvent rejects drafts the provider would refuse.
	ErrInvalidEvent = errors.New("calendar: invalid event")
)

// Event is a calendar entry as the bot sees it.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
}
