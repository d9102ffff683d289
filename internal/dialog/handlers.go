package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/extract"
	"github.com/Marksalz/AISecretary/internal/pending"
	"github.com/Marksalz/AISecretary/internal/timeutil"
)

const notConnectedMessage = "Your calendar isn't connected. Please link your Google account and try again."

// handleTalk answers a non-calendar message conversationally. Idle stays idle.
func (e *Engine) handleTalk(ctx context.Context, message string) Reply {
	callCtx, cancel := e.withTimeout(ctx)
	answer, err := e.extractor.Talk(callCtx, message)
	cancel()
	if err != nil || answer == "" {
		return failReply(retryMessage)
	}
	return chatReply(answer)
}

// handleRead executes immediately; reads never stage. An availability cue
// plus a point-like window routes to the busy check instead of a listing.
func (e *Engine) handleRead(ctx context.Context, sess *Session, message string, intent extract.Intent) Reply {
	if availabilityCue.MatchString(message) && timeutil.IsPointWindow(intent.TimeMin, intent.TimeMax) {
		instant := intent.TimeMin
		if instant.IsZero() {
			instant = intent.TimeMax
		}

		callCtx, cancel := e.withTimeout(ctx)
		busy, err := e.checker.IsBusyAt(callCtx, sess.Credentials, instant)
		cancel()
		if err == nil {
			if busy != nil {
				msg := fmt.Sprintf("You are busy at %s: %q %s - %s",
					timeutil.FormatClock(instant), busy.Title,
					timeutil.FormatClock(busy.Start), timeutil.FormatClock(busy.End))
				return eventsReply(TypeAvailability, msg, []calendar.Event{*busy})
			}
			msg := fmt.Sprintf("You are available at %s.", timeutil.FormatClock(instant))
			return eventsReply(TypeAvailability, msg, nil)
		}
		// Busy check failed; fall back to a plain range listing.
	}

	timeMin, timeMax := e.lookupWindow(intent.TimeMin, intent.TimeMax)
	callCtx, cancel := e.withTimeout(ctx)
	events, err := e.cal.List(callCtx, sess.Credentials, timeMin, timeMax)
	cancel()
	if err != nil {
		return e.failureReply("read events", err)
	}
	if len(events) == 0 {
		return eventsReply(TypeEventQuery, "No events found in the specified range.", nil)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s):\n\n", len(events))
	for i, ev := range events {
		title := ev.Title
		if title == "" {
			title = "No Title"
		}
		fmt.Fprintf(&b, "%d. %q\n", i+1, title)
		if ev.Location != "" {
			fmt.Fprintf(&b, "📍 %s\n", ev.Location)
		}
		fmt.Fprintf(&b, "🗓️ %s - %s", timeutil.FormatStamp(ev.Start), timeutil.FormatStamp(ev.End))
		if i < len(events)-1 {
			b.WriteString("\n\n")
		}
	}
	return eventsReply(TypeEventQuery, b.String(), events)
}

// stageCreate stages an add and prompts for confirmation. Missing fields
// render as an explicit placeholder so the user sees what is still unknown.
func (e *Engine) stageCreate(sess *Session, intent extract.Intent) Reply {
	action := pending.Action{
		Kind:        pending.KindCreate,
		Fields:      intent.Fields,
		Credentials: sess.Credentials,
	}
	sess.store.Set(action)

	msg := fmt.Sprintf("Do you want to add this event?\n\nTitle: %s\nStart: %s\nEnd: %s\nLocation: %s",
		fieldOrNA(intent.Fields.Title),
		timeOrNA(intent.Fields.Start),
		timeOrNA(intent.Fields.End),
		fieldOrNA(intent.Fields.Location))
	return pendingReply(msg, previewEvent(intent.Fields))
}

func (e *Engine) stageUpdate(sess *Session, message string, intent extract.Intent) Reply {
	action := pending.Action{
		Kind:          pending.KindUpdate,
		Fields:        intent.Fields,
		Keyword:       intent.Keyword,
		TimeMin:       intent.TimeMin,
		TimeMax:       intent.TimeMax,
		SourceMessage: message,
		Credentials:   sess.Credentials,
	}
	sess.store.Set(action)

	name := intent.Keyword
	if intent.Fields.Title != nil {
		name = *intent.Fields.Title
	}
	if name == "" {
		name = "N/A"
	}
	msg := fmt.Sprintf("Do you want to update the event %q? Please confirm or cancel.", name)
	return pendingReply(msg, previewEvent(intent.Fields))
}

func (e *Engine) stageDelete(sess *Session, message string, intent extract.Intent) Reply {
	action := pending.Action{
		Kind:          pending.KindDelete,
		Fields:        intent.Fields,
		Keyword:       intent.Keyword,
		TimeMin:       intent.TimeMin,
		TimeMax:       intent.TimeMax,
		SourceMessage: message,
		Credentials:   sess.Credentials,
	}
	sess.store.Set(action)

	name := intent.Keyword
	if intent.Fields.Title != nil {
		name = *intent.Fields.Title
	}
	if name == "" {
		name = "N/A"
	}
	msg := fmt.Sprintf("Are you sure you want to delete the event %q? Please confirm or cancel.", name)
	return pendingReply(msg, previewEvent(intent.Fields))
}

// execute commits a confirmed action. Every path except a scheduling
// conflict clears the slot, success or failure, so a poisoned action cannot
// loop. A conflict keeps the action staged so the user can amend the time
// and reconfirm.
func (e *Engine) execute(ctx context.Context, sess *Session, staged *pending.Action) Reply {
	switch staged.Kind {
	case pending.KindCreate:
		return e.executeCreate(ctx, sess, staged)
	case pending.KindUpdate:
		return e.executeUpdate(ctx, sess, staged)
	case pending.KindDelete:
		return e.executeDelete(ctx, sess, staged)
	default:
		sess.store.Clear()
		return failReply(retryMessage)
	}
}

func (e *Engine) executeCreate(ctx context.Context, sess *Session, staged *pending.Action) Reply {
	f := staged.Fields

	if f.Start != nil && f.End != nil {
		callCtx, cancel := e.withTimeout(ctx)
		conflicts, err := e.checker.FindConflicts(callCtx, staged.Credentials, *f.Start, *f.End)
		cancel()
		if err != nil {
			sess.store.Clear()
			return e.failureReply("add event", err)
		}
		if len(conflicts) > 0 {
			first := conflicts[0]
			msg := fmt.Sprintf("That time overlaps with an existing event: %q %s - %s. Please choose another time, or modify the start/end.",
				first.Title, timeutil.FormatClock(first.Start), timeutil.FormatClock(first.End))
			return pendingReply(msg, previewEvent(f))
		}
	}

	if f.Title == nil || f.Start == nil || f.End == nil {
		sess.store.Clear()
		return failReply("Failed to add event: title, start and end are required.")
	}

	callCtx, cancel := e.withTimeout(ctx)
	created, err := e.cal.Create(callCtx, staged.Credentials, *previewEvent(f))
	cancel()
	sess.store.Clear()
	if err != nil {
		return e.failureReply("add event", err)
	}
	return eventReply(TypeEventAdded, fmt.Sprintf("✅ Event %q has been added to your calendar.", created.Title), &created)
}

func (e *Engine) executeUpdate(ctx context.Context, sess *Session, staged *pending.Action) Reply {
	defer sess.store.Clear()

	target, failure := e.locateTarget(ctx, staged, "update")
	if failure != nil {
		return *failure
	}

	callCtx, cancel := e.withTimeout(ctx)
	diff, err := e.extractor.DetectEventUpdate(callCtx, *target, staged.SourceMessage)
	cancel()
	if err != nil {
		return failReply("Sorry, I couldn't determine which fields to update. Please specify the changes.")
	}

	// Staged field edits win over the re-derived diff.
	diff = diff.Merge(staged.Fields)

	merged := *target
	if diff.Title != nil {
		merged.Title = *diff.Title
	}
	if diff.Start != nil {
		merged.Start = *diff.Start
	}
	if diff.End != nil {
		merged.End = *diff.End
	}
	if diff.Location != nil {
		merged.Location = *diff.Location
	}
	if diff.Description != nil {
		merged.Description = *diff.Description
	}

	callCtx, cancel = e.withTimeout(ctx)
	updated, err := e.cal.Update(callCtx, staged.Credentials, target.ID, merged)
	cancel()
	if err != nil {
		return e.failureReply("update event", err)
	}
	return eventReply(TypeEventUpdated, fmt.Sprintf("Event updated: %s", updated.Title), &updated)
}

func (e *Engine) executeDelete(ctx context.Context, sess *Session, staged *pending.Action) Reply {
	defer sess.store.Clear()

	target, failure := e.locateTarget(ctx, staged, "delete")
	if failure != nil {
		return *failure
	}

	callCtx, cancel := e.withTimeout(ctx)
	err := e.cal.Delete(callCtx, staged.Credentials, target.ID)
	cancel()
	if err != nil {
		return e.failureReply("delete event", err)
	}
	return eventReply(TypeEventDeleted, fmt.Sprintf("Event %q deleted successfully.", target.Title), target)
}

// locateTarget finds the update/delete target by case-insensitive substring
// match of the staged title or keyword against candidate titles. First match
// wins, in backend order.
func (e *Engine) locateTarget(ctx context.Context, staged *pending.Action, verb string) (*calendar.Event, *Reply) {
	term := staged.Keyword
	if staged.Fields.Title != nil && *staged.Fields.Title != "" {
		term = *staged.Fields.Title
	}
	if term == "" {
		r := failReply(fmt.Sprintf("Please specify the event title or keyword to %s.", verb))
		return nil, &r
	}

	timeMin, timeMax := e.lookupWindow(staged.TimeMin, staged.TimeMax)
	callCtx, cancel := e.withTimeout(ctx)
	events, err := e.cal.List(callCtx, staged.Credentials, timeMin, timeMax)
	cancel()
	if err != nil {
		r := e.failureReply(verb+" event", err)
		return nil, &r
	}
	if len(events) == 0 {
		r := failReply(fmt.Sprintf("No events found to %s.", verb))
		return nil, &r
	}

	needle := strings.ToLower(term)
	for i := range events {
		if events[i].Title != "" && strings.Contains(strings.ToLower(events[i].Title), needle) {
			return &events[i], nil
		}
	}
	r := failReply(fmt.Sprintf("No event found with title containing %q.", term))
	return nil, &r
}

// lookupWindow fills in missing range boundaries with a default lookahead.
func (e *Engine) lookupWindow(timeMin, timeMax time.Time) (time.Time, time.Time) {
	if timeMin.IsZero() {
		timeMin = e.now()
	}
	if timeMax.IsZero() {
		timeMax = timeMin.Add(timeutil.DefaultLookahead)
	}
	return timeMin, timeMax
}

// failureReply maps an external-call error to a user-visible reply.
func (e *Engine) failureReply(action string, err error) Reply {
	if errors.Is(err, calendar.ErrCredentialsMissing) || errors.Is(err, calendar.ErrUnauthorized) {
		return failReply(notConnectedMessage)
	}
	return failReply(fmt.Sprintf("Failed to %s: %v", action, err))
}
