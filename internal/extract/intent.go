// Package extract wraps the LLM behind a strict parse-then-validate boundary.
// Model output is never trusted: anything that fails to parse into the
// expected shape surfaces as ErrExtraction instead of a half-built intent.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marksalz/AISecretary/internal/pending"
)

// ErrExtraction means the model returned unparseable or schema-invalid
// output. Callers recover with a generic retry reply.
var ErrExtraction = errors.New("extraction failed")

type IntentType string

const (
	IntentAdd    IntentType = "add"
	IntentRead   IntentType = "read"
	IntentUpdate IntentType = "update"
	IntentDelete IntentType = "delete"
	IntentTalk   IntentType = "talk"
)

// Intent is a validated classification result. Fields is populated for add;
// Keyword and the time bounds for read/update/delete.
type Intent struct {
	Type             IntentType
	Fields           pending.Fields
	Keyword          string
	TimeMin, TimeMax time.Time
}

// intentWire is the raw JSON shape the classifier prompt demands.
type intentWire struct {
	Type    string         `json:"type"`
	Keyword *string        `json:"keyword"`
	Data    intentDataWire `json:"data"`
	Error   *string        `json:"error"`
}

type intentDataWire struct {
	Title       *string `json:"title"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	TimeMin     *string `json:"timeMin"`
	TimeMax     *string `json:"timeMax"`
	EventID     *string `json:"eventId"`
}

// validate checks the tagged union and converts it to a typed Intent.
func (w intentWire) validate() (Intent, error) {
	if w.Error != nil {
		return Intent{}, fmt.Errorf("%w: model reported %q", ErrExtraction, *w.Error)
	}

	switch IntentType(w.Type) {
	case IntentAdd:
		fields := pending.Fields{
			Title:       cleanPtr(w.Data.Title),
			Location:    cleanPtr(w.Data.Location),
			Description: cleanPtr(w.Data.Description),
		}
		if t, ok := parseWireTime(w.Data.Start); ok {
			fields.Start = &t
		}
		if t, ok := parseWireTime(w.Data.End); ok {
			fields.End = &t
		}
		return Intent{Type: IntentAdd, Fields: fields}, nil

	case IntentRead, IntentUpdate, IntentDelete:
		intent := Intent{Type: IntentType(w.Type)}
		if w.Keyword != nil {
			intent.Keyword = strings.TrimSpace(*w.Keyword)
		}
		if t, ok := parseWireTime(w.Data.TimeMin); ok {
			intent.TimeMin = t
		}
		if t, ok := parseWireTime(w.Data.TimeMax); ok {
			intent.TimeMax = t
		}
		return intent, nil

	case IntentTalk:
		return Intent{Type: IntentTalk}, nil

	default:
		return Intent{}, fmt.Errorf("%w: unknown intent type %q", ErrExtraction, w.Type)
	}
}

func cleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// parseWireTime accepts RFC3339 and zone-less ISO timestamps (interpreted as
// local time). Anything else is treated as absent.
func parseWireTime(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", v, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// stripFences removes markdown code fences the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "```json") {
		s = s[len("```json"):]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
