package dialog

import (
	"regexp"
	"strings"
)

// Confirmation and cancellation require a whole-string match after
// normalization, so "yes please" is a field-edit candidate, not a confirm.
var (
	confirmRe = regexp.MustCompile(`^(yes|y|yeah|ok|okay|confirm|sure)$`)
	cancelRe  = regexp.MustCompile(`^(no|n|nope|cancel|stop)$`)
)

// Field-edit triggers are a cheap first-pass classifier; the LLM does the
// actual extraction. Checked in fixed priority order: time, title, location.
// A message matching several triggers applies only the first; the rest take
// another turn.
var (
	timeTrigger = regexp.MustCompile(`\b(start( time)?|begin(s|ning)?|end( time)?|finish(es|ing)?|earlier|later|at\s+\d{1,2}(:\d{2})?\s*(am|pm)?|today|tomorrow|tonight|noon|midnight|morning|afternoon|evening|night|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	titleTrigger = regexp.MustCompile(`\b(title|rename|call it|name it|let's call it|change[^\n]*title|new title)\b`)

	locationTrigger = regexp.MustCompile(`\b(location|venue|room|office|address|place|meet at|meeting at|on (zoom|google meet|teams)|zoom|google meet|teams|move (it )?to|relocate)\b|https?://`)
)

// availabilityCue marks a read as an "am I free/busy" question.
var availabilityCue = regexp.MustCompile(`(?i)\b(available|free|busy)\b`)

// normalize prepares a message for trigger matching only; extraction always
// sees the original text.
func normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

func isConfirmation(normalized string) bool {
	return confirmRe.MatchString(normalized)
}

func isCancellation(normalized string) bool {
	return cancelRe.MatchString(normalized)
}
