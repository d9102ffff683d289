package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/pending"
)

// Completer is the LLM the extractor prompts. Satisfied by llm.Completer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor classifies messages and interprets field edits via the model.
type Extractor struct {
	llm Completer
	now func() time.Time
}

type Option func(*Extractor)

// WithClock overrides the time source; tests pin "now" with it.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

func New(llm Completer, opts ...Option) *Extractor {
	e := &Extractor{llm: llm, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify turns free-form text into a validated Intent. The current time is
// fed to the prompt so relative expressions like "tomorrow" resolve.
func (e *Extractor) Classify(ctx context.Context, message string) (Intent, error) {
	raw, err := e.llm.Complete(ctx, classifyPrompt(message, e.now()))
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var wire intentWire
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return Intent{}, fmt.Errorf("%w: invalid JSON: %v", ErrExtraction, err)
	}
	return wire.validate()
}

// TimeUpdate is a usable time edit on a staged action.
type TimeUpdate struct {
	Boundary string // "start" or "end"
	Time     time.Time
}

// DetectTimeUpdate interprets a follow-up message as a start/end time change.
// Returns (nil, nil) when the model found nothing usable.
func (e *Extractor) DetectTimeUpdate(ctx context.Context, message string) (*TimeUpdate, error) {
	raw, err := e.llm.Complete(ctx, timeUpdatePrompt(message, e.now()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var wire struct {
		Type *string `json:"type"`
		Time *string `json:"time"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrExtraction, err)
	}
	if wire.Type == nil {
		return nil, nil
	}
	boundary := strings.ToLower(strings.TrimSpace(*wire.Type))
	if boundary != "start" && boundary != "end" {
		return nil, nil
	}
	t, ok := parseWireTime(wire.Time)
	if !ok {
		// The model answered with a vague phrase; not actionable.
		return nil, nil
	}
	return &TimeUpdate{Boundary: boundary, Time: t}, nil
}

// DetectTitleUpdate extracts a new title, or "" when none was found.
func (e *Extractor) DetectTitleUpdate(ctx context.Context, message string) (string, error) {
	raw, err := e.llm.Complete(ctx, titleUpdatePrompt(message))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var wire struct {
		Title *string `json:"title"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return "", fmt.Errorf("%w: invalid JSON: %v", ErrExtraction, err)
	}
	if wire.Title == nil {
		return "", nil
	}
	return strings.TrimSpace(*wire.Title), nil
}

// DetectLocationUpdate extracts a new location, or "" when none was found.
func (e *Extractor) DetectLocationUpdate(ctx context.Context, message string) (string, error) {
	raw, err := e.llm.Complete(ctx, locationUpdatePrompt(message))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var wire struct {
		Location *string `json:"location"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return "", fmt.Errorf("%w: invalid JSON: %v", ErrExtraction, err)
	}
	if wire.Location == nil {
		return "", nil
	}
	return strings.TrimSpace(*wire.Location), nil
}

// DetectEventUpdate asks the model which fields of an existing event the
// message changes and returns them as a partial field set. Unparseable time
// values are dropped rather than passed to the backend.
func (e *Extractor) DetectEventUpdate(ctx context.Context, current calendar.Event, message string) (pending.Fields, error) {
	snapshot, err := json.MarshalIndent(map[string]any{
		"title":       current.Title,
		"start":       current.Start.Format(time.RFC3339),
		"end":         current.End.Format(time.RFC3339),
		"location":    current.Location,
		"description": current.Description,
	}, "", "  ")
	if err != nil {
		return pending.Fields{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	raw, err := e.llm.Complete(ctx, eventUpdatePrompt(string(snapshot), message))
	if err != nil {
		return pending.Fields{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var wire struct {
		Title       *string `json:"title"`
		Start       *string `json:"start"`
		End         *string `json:"end"`
		Location    *string `json:"location"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wire); err != nil {
		return pending.Fields{}, fmt.Errorf("%w: invalid JSON: %v", ErrExtraction, err)
	}

	fields := pending.Fields{
		Title:       cleanPtr(wire.Title),
		Location:    cleanPtr(wire.Location),
		Description: cleanPtr(wire.Description),
	}
	if t, ok := parseWireTime(wire.Start); ok {
		fields.Start = &t
	}
	if t, ok := parseWireTime(wire.End); ok {
		fields.End = &t
	}
	return fields, nil
}

// Talk answers a non-calendar message conversationally.
func (e *Extractor) Talk(ctx context.Context, message string) (string, error) {
	answer, err := e.llm.Complete(ctx, talkPrompt(message))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
