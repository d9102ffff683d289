// Package dialog is the pending-action state machine. Each conversation is
// either Idle (classify the next message as a fresh intent) or Pending (one
// staged action exists and every message is a continuation: confirm, cancel,
// or a field edit). A staged action is an exclusive lock on the conversation;
// no new intent classification happens until it is resolved.
package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/Marksalz/AISecretary/internal/availability"
	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/extract"
	"github.com/Marksalz/AISecretary/internal/pending"
	"github.com/Marksalz/AISecretary/internal/timeutil"
)

const retryMessage = "Sorry, I couldn't understand your request. Please try again."

// Extractor is the LLM boundary the engine talks through. Satisfied by
// *extract.Extractor.
type Extractor interface {
	Classify(ctx context.Context, message string) (extract.Intent, error)
	DetectTimeUpdate(ctx context.Context, message string) (*extract.TimeUpdate, error)
	DetectTitleUpdate(ctx context.Context, message string) (string, error)
	DetectLocationUpdate(ctx context.Context, message string) (string, error)
	DetectEventUpdate(ctx context.Context, current calendar.Event, message string) (pending.Fields, error)
	Talk(ctx context.Context, message string) (string, error)
}

// Session is the per-conversation state: the acting user's credentials and
// the single-slot staged action. Sessions are never shared across users.
type Session struct {
	Credentials calendar.Credentials
	store       *pending.Store
}

func NewSession(creds calendar.Credentials) *Session {
	return &Session{
		Credentials: creds,
		store:       pending.NewStore(),
	}
}

// ClearPending drops any staged action without committing it. Transports use
// this for out-of-band cancellation commands.
func (s *Session) ClearPending() {
	s.store.Clear()
}

// Engine orchestrates one conversation turn at a time. It holds no
// per-conversation state itself, so a single Engine serves every session.
type Engine struct {
	extractor Extractor
	cal       calendar.Client
	checker   *availability.Checker

	now         func() time.Time
	callTimeout time.Duration

	tracer tracer
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithCallTimeout bounds every external call (LLM and calendar backend).
// Expiry surfaces as that call's failure.
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.callTimeout = d }
}

func NewEngine(extractor Extractor, cal calendar.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		extractor:   extractor,
		cal:         cal,
		checker:     availability.NewChecker(cal),
		now:         time.Now,
		callTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.callTimeout)
}

// HandleMessage processes one inbound message and produces exactly one reply.
// Messages for the same session must not be processed concurrently.
func (e *Engine) HandleMessage(ctx context.Context, sess *Session, message string) Reply {
	if staged := sess.store.Get(); staged != nil {
		reply := e.continuePending(ctx, sess, staged, message)
		e.trace("pending", string(staged.Kind), message, reply)
		return reply
	}

	callCtx, cancel := e.withTimeout(ctx)
	intent, err := e.extractor.Classify(callCtx, message)
	cancel()
	if err != nil {
		reply := failReply(retryMessage)
		e.trace("idle", "", message, reply)
		return reply
	}

	var reply Reply
	switch intent.Type {
	case extract.IntentTalk:
		reply = e.handleTalk(ctx, message)
	case extract.IntentRead:
		reply = e.handleRead(ctx, sess, message, intent)
	case extract.IntentAdd:
		reply = e.stageCreate(sess, intent)
	case extract.IntentUpdate:
		reply = e.stageUpdate(sess, message, intent)
	case extract.IntentDelete:
		reply = e.stageDelete(sess, message, intent)
	default:
		reply = failReply(retryMessage)
	}
	e.trace("idle", "", message, reply)
	return reply
}

// continuePending runs the continuation sub-protocol: confirm, cancel, or a
// field edit in fixed priority order (time, title, location). The dialog
// never silently drops a message while an action is staged.
func (e *Engine) continuePending(ctx context.Context, sess *Session, staged *pending.Action, message string) Reply {
	normalized := normalize(message)

	if isConfirmation(normalized) {
		return e.execute(ctx, sess, staged)
	}

	if isCancellation(normalized) {
		preview := previewEvent(staged.Fields)
		sess.store.Clear()
		return eventReply(TypeEventCancelled, "❌ Calendar event cancelled.", preview)
	}

	if timeTrigger.MatchString(normalized) {
		callCtx, cancel := e.withTimeout(ctx)
		update, err := e.extractor.DetectTimeUpdate(callCtx, message)
		cancel()
		if err == nil && update != nil {
			fields := pending.Fields{}
			if update.Boundary == "end" {
				fields.End = &update.Time
			} else {
				fields.Start = &update.Time
			}
			if act, err := sess.store.Update(fields); err == nil {
				msg := fmt.Sprintf("Updated %s time to %q. Confirm or cancel?", update.Boundary, timeutil.FormatStamp(update.Time))
				return pendingReply(msg, previewEvent(act.Fields))
			}
		}
		// Extraction gave nothing usable; fall through to the next trigger.
	}

	if titleTrigger.MatchString(normalized) {
		callCtx, cancel := e.withTimeout(ctx)
		title, err := e.extractor.DetectTitleUpdate(callCtx, message)
		cancel()
		if err == nil && title != "" {
			if act, err := sess.store.Update(pending.Fields{Title: &title}); err == nil {
				msg := fmt.Sprintf("Updated title to %q. Confirm or cancel?", title)
				return pendingReply(msg, previewEvent(act.Fields))
			}
		}
	}

	if locationTrigger.MatchString(normalized) {
		callCtx, cancel := e.withTimeout(ctx)
		location, err := e.extractor.DetectLocationUpdate(callCtx, message)
		cancel()
		if err == nil && location != "" {
			if act, err := sess.store.Update(pending.Fields{Location: &location}); err == nil {
				msg := fmt.Sprintf("Updated location to %q. Confirm or cancel?", location)
				return pendingReply(msg, previewEvent(act.Fields))
			}
		}
	}

	return pendingReply("You are currently creating or modifying an event. Confirm or cancel?", previewEvent(staged.Fields))
}

// previewEvent renders staged fields as an event for reply payloads.
func previewEvent(f pending.Fields) *calendar.Event {
	ev := &calendar.Event{}
	if f.Title != nil {
		ev.Title = *f.Title
	}
	if f.Start != nil {
		ev.Start = *f.Start
	}
	if f.End != nil {
		ev.End = *f.End
	}
	if f.Location != nil {
		ev.Location = *f.Location
	}
	if f.Description != nil {
		ev.Description = *f.Description
	}
	return ev
}

func fieldOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func timeOrNA(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return timeutil.FormatStamp(*t)
}
