// Package timeutil holds the interval arithmetic and window constants shared
// by the conflict checker and the dialog engine.
package timeutil

import "time"

const (
	// ConflictPad widens a conflict search so events spanning the window
	// boundary are still fetched.
	ConflictPad = 24 * time.Hour

	// BusyWindow is the fetch radius around an instant for busy checks.
	BusyWindow = 12 * time.Hour

	// PointWindow is the widest range still treated as a single instant.
	PointWindow = 5 * time.Minute

	// DefaultLookahead bounds event lookups when the user gave no range.
	DefaultLookahead = 30 * 24 * time.Hour
)

// Overlap reports whether [aStart, aEnd) intersects [bStart, bEnd).
// Back-to-back events do not overlap.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Contains reports whether instant falls inside [start, end).
func Contains(start, end, instant time.Time) bool {
	return !instant.Before(start) && instant.Before(end)
}

// IsPointWindow reports whether the range collapses to a single instant,
// i.e. |max-min| <= PointWindow. Zero boundaries never qualify.
func IsPointWindow(min, max time.Time) bool {
	if min.IsZero() || max.IsZero() {
		return false
	}
	d := max.Sub(min)
	if d < 0 {
		d = -d
	}
	return d <= PointWindow
}

// AbsDistance returns |a-b|.
func AbsDistance(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d
}

// FormatClock renders an instant as a short clock time for chat replies.
func FormatClock(t time.Time) string {
	return t.Format("03:04 PM")
}

// FormatStamp renders an instant with its date for event listings.
func FormatStamp(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Jan 2, 2006 03:04 PM")
}
