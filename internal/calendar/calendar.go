// Package calendar defines the event model and the backend client interface,
// plus the Google Calendar implementation used in production.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Event mirrors a single calendar entry from the backend. Start and End are
// half-open: an event occupies [Start, End).
type Event struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Credentials is the per-user token pair required by every backend call.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Missing reports whether the pair is unusable for an API call.
func (c Credentials) Missing() bool {
	return c.AccessToken == "" || c.RefreshToken == ""
}

// Client is the calendar backend. All methods may fail with
// ErrCredentialsMissing, ErrUnauthorized, or a *RemoteError.
type Client interface {
	List(ctx context.Context, creds Credentials, timeMin, timeMax time.Time) ([]Event, error)
	Create(ctx context.Context, creds Credentials, ev Event) (Event, error)
	Update(ctx context.Context, creds Credentials, id string, ev Event) (Event, error)
	Delete(ctx context.Context, creds Credentials, id string) error
}

var (
	// ErrCredentialsMissing means the user never connected a calendar.
	ErrCredentialsMissing = errors.New("calendar credentials missing")

	// ErrUnauthorized means the backend rejected the token pair.
	ErrUnauthorized = errors.New("calendar credentials rejected")
)

// RemoteError wraps any other backend failure.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
