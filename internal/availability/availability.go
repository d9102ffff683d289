// Package availability answers "does this slot collide with anything" against
// a user's calendar.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/timeutil"
)

// Checker fetches nearby events and filters them by true overlap.
type Checker struct {
	cal calendar.Client
}

func NewChecker(cal calendar.Client) *Checker {
	return &Checker{cal: cal}
}

// FindConflicts returns every event overlapping [start, end), ordered by how
// close each conflict's start is to the candidate's start. The fetch window is
// padded by timeutil.ConflictPad to catch events spanning the boundaries.
func (c *Checker) FindConflicts(ctx context.Context, creds calendar.Credentials, start, end time.Time) ([]calendar.Event, error) {
	if start.IsZero() || end.IsZero() {
		return nil, nil
	}

	events, err := c.cal.List(ctx, creds, start.Add(-timeutil.ConflictPad), end.Add(timeutil.ConflictPad))
	if err != nil {
		return nil, err
	}

	var conflicts []calendar.Event
	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		if timeutil.Overlap(start, end, ev.Start, ev.End) {
			conflicts = append(conflicts, ev)
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return timeutil.AbsDistance(conflicts[i].Start, start) < timeutil.AbsDistance(conflicts[j].Start, start)
	})
	return conflicts, nil
}

// IsBusyAt returns the first event whose [start, end) contains the instant,
// or nil when the user is free. Events are fetched from a ±BusyWindow range.
func (c *Checker) IsBusyAt(ctx context.Context, creds calendar.Credentials, instant time.Time) (*calendar.Event, error) {
	if instant.IsZero() {
		return nil, nil
	}

	events, err := c.cal.List(ctx, creds, instant.Add(-timeutil.BusyWindow), instant.Add(timeutil.BusyWindow))
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		if ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		if timeutil.Contains(ev.Start, ev.End, instant) {
			found := ev
			return &found, nil
		}
	}
	return nil, nil
}
