package dialog

import (
	"encoding/json"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// tracer emits one JSONL entry per turn when a writer is attached. Mirrors
// the request/decision debug log the transports can tail while developing.
type tracer struct {
	mu sync.Mutex
	w  io.Writer
}

type traceEntry struct {
	Timestamp   string `json:"ts"`
	State       string `json:"state"`
	PendingKind string `json:"pending_kind,omitempty"`
	InputChars  int    `json:"in_chars"`
	ReplyType   string `json:"reply_type"`
	Confirm     bool   `json:"requires_confirmation,omitempty"`
}

// SetTraceWriter enables JSONL turn logging. Pass nil to disable.
func (e *Engine) SetTraceWriter(w io.Writer) {
	e.tracer.mu.Lock()
	defer e.tracer.mu.Unlock()
	e.tracer.w = w
}

func (e *Engine) trace(state, pendingKind, input string, reply Reply) {
	e.tracer.mu.Lock()
	w := e.tracer.w
	e.tracer.mu.Unlock()
	if w == nil {
		return
	}

	entry := traceEntry{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		State:       state,
		PendingKind: pendingKind,
		InputChars:  utf8.RuneCountInString(input),
		ReplyType:   reply.Data.Type,
		Confirm:     reply.RequiresConfirmation,
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = w.Write(append(b, '\n'))
}
