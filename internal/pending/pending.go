// Package pending holds the one staged calendar action a conversation may
// carry while it awaits confirmation.
package pending

import (
	"errors"
	"sync"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
)

// ErrNoStagedAction is returned when a continuation operation runs with an
// empty slot. Callers are expected to check Get first.
var ErrNoStagedAction = errors.New("no staged action")

// Kind names the mutation a staged action will perform once confirmed.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Fields is a partial event: nil means "not specified". Merging two Fields
// keeps the receiver's values wherever the update is nil.
type Fields struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Location    *string
	Description *string
}

// Merge overlays updates on f, returning the result. Set fields in updates
// win; everything else passes through unchanged.
func (f Fields) Merge(updates Fields) Fields {
	if updates.Title != nil {
		f.Title = updates.Title
	}
	if updates.Start != nil {
		f.Start = updates.Start
	}
	if updates.End != nil {
		f.End = updates.End
	}
	if updates.Location != nil {
		f.Location = updates.Location
	}
	if updates.Description != nil {
		f.Description = updates.Description
	}
	return f
}

// Action is a calendar mutation the user has requested but not yet confirmed.
type Action struct {
	Kind   Kind
	Fields Fields

	// Keyword locates the target event for update/delete.
	Keyword string

	// TimeMin/TimeMax bound the target lookup for update/delete.
	TimeMin, TimeMax time.Time

	// SourceMessage is the raw text that requested the action; confirmed
	// updates re-derive the per-field diff from it.
	SourceMessage string

	Credentials calendar.Credentials
}

// Store is the single-slot staged-action holder. One instance per
// conversation; it is never shared across users.
type Store struct {
	mu     sync.Mutex
	action *Action
}

func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the staged action, or nil when the slot is empty.
func (s *Store) Get() *Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action == nil {
		return nil
	}
	a := *s.action
	return &a
}

func (s *Store) Set(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = &a
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.action = nil
}

// Update merges partial fields into the staged action and returns the result.
func (s *Store) Update(fields Fields) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action == nil {
		return Action{}, ErrNoStagedAction
	}
	s.action.Fields = s.action.Fields.Merge(fields)
	return *s.action, nil
}
