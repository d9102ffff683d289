package dialog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Marksalz/AISecretary/internal/calendar"
	"github.com/Marksalz/AISecretary/internal/extract"
	"github.com/Marksalz/AISecretary/internal/pending"
)

func at(h, m int) time.Time {
	return time.Date(2025, 9, 18, h, m, 0, 0, time.UTC)
}

func fixedNow() time.Time {
	return time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func timeptr(t time.Time) *time.Time { return &t }

type fakeExtractor struct {
	intent        extract.Intent
	classifyErr   error
	classifyCalls int

	timeUpdate *extract.TimeUpdate
	timeErr    error

	title    string
	titleErr error

	location string
	locErr   error

	diff    pending.Fields
	diffErr error

	talkReply string
	talkErr   error
}

func (f *fakeExtractor) Classify(context.Context, string) (extract.Intent, error) {
	f.classifyCalls++
	return f.intent, f.classifyErr
}

func (f *fakeExtractor) DetectTimeUpdate(context.Context, string) (*extract.TimeUpdate, error) {
	return f.timeUpdate, f.timeErr
}

func (f *fakeExtractor) DetectTitleUpdate(context.Context, string) (string, error) {
	return f.title, f.titleErr
}

func (f *fakeExtractor) DetectLocationUpdate(context.Context, string) (string, error) {
	return f.location, f.locErr
}

func (f *fakeExtractor) DetectEventUpdate(context.Context, calendar.Event, string) (pending.Fields, error) {
	return f.diff, f.diffErr
}

func (f *fakeExtractor) Talk(context.Context, string) (string, error) {
	return f.talkReply, f.talkErr
}

type listWindow struct {
	min, max time.Time
}

type fakeCalendar struct {
	listEvents []calendar.Event
	listErr    error
	listCalls  []listWindow

	createErr error
	created   []calendar.Event

	updateErr error
	updatedID string
	updated   []calendar.Event

	deleteErr error
	deleted   []string
}

func (f *fakeCalendar) List(_ context.Context, _ calendar.Credentials, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	f.listCalls = append(f.listCalls, listWindow{timeMin, timeMax})
	return f.listEvents, f.listErr
}

func (f *fakeCalendar) Create(_ context.Context, _ calendar.Credentials, ev calendar.Event) (calendar.Event, error) {
	if f.createErr != nil {
		return calendar.Event{}, f.createErr
	}
	ev.ID = "created-1"
	f.created = append(f.created, ev)
	return ev, nil
}

func (f *fakeCalendar) Update(_ context.Context, _ calendar.Credentials, id string, ev calendar.Event) (calendar.Event, error) {
	if f.updateErr != nil {
		return calendar.Event{}, f.updateErr
	}
	f.updatedID = id
	f.updated = append(f.updated, ev)
	return ev, nil
}

func (f *fakeCalendar) Delete(_ context.Context, _ calendar.Credentials, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

var testCreds = calendar.Credentials{AccessToken: "a", RefreshToken: "r"}

func newTestEngine(fx *fakeExtractor, fc *fakeCalendar) (*Engine, *Session) {
	return NewEngine(fx, fc, WithClock(fixedNow)), NewSession(testCreds)
}

func addIntent() extract.Intent {
	return extract.Intent{
		Type: extract.IntentAdd,
		Fields: pending.Fields{
			Title: strptr("Meeting"),
			Start: timeptr(at(10, 0)),
			End:   timeptr(at(11, 0)),
		},
	}
}

func TestCreateRoundTrip(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	reply := e.HandleMessage(ctx, sess, "add a meeting thursday 10 to 11")
	if reply.Data.Type != TypeEventPending || !reply.RequiresConfirmation {
		t.Fatalf("stage reply = %#v", reply)
	}
	if !strings.Contains(reply.Data.Message, "Title: Meeting") {
		t.Fatalf("prompt = %q", reply.Data.Message)
	}

	reply = e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventAdded {
		t.Fatalf("confirm reply = %#v", reply)
	}
	if len(fc.created) != 1 {
		t.Fatalf("create calls = %d", len(fc.created))
	}
	ev := fc.created[0]
	if ev.Title != "Meeting" || !ev.Start.Equal(at(10, 0)) || !ev.End.Equal(at(11, 0)) {
		t.Fatalf("created = %#v", ev)
	}
	if sess.store.Get() != nil {
		t.Fatal("staged action should be cleared after commit")
	}
}

func TestCreateMissingFieldsRenderPlaceholder(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:   extract.IntentAdd,
		Fields: pending.Fields{Title: strptr("Lunch")},
	}}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "lunch with sam")
	if !strings.Contains(reply.Data.Message, "Start: N/A") || !strings.Contains(reply.Data.Message, "Location: N/A") {
		t.Fatalf("prompt = %q", reply.Data.Message)
	}
}

func TestConflictBlocksCreateAndKeepsStaged(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "busy", Title: "Standup", Start: at(10, 30), End: at(11, 30)},
	}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "yes")

	if len(fc.created) != 0 {
		t.Fatal("create must not be called when the slot conflicts")
	}
	if reply.Data.Type != TypeEventPending {
		t.Fatalf("reply type = %q", reply.Data.Type)
	}
	if !strings.Contains(reply.Data.Message, "Standup") {
		t.Fatalf("conflict message should name the event: %q", reply.Data.Message)
	}
	if sess.store.Get() == nil {
		t.Fatal("staged action must survive a conflict so the user can amend it")
	}

	// Amended slot goes through once the calendar frees up.
	fc.listEvents = nil
	reply = e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventAdded || len(fc.created) != 1 {
		t.Fatalf("reconfirm reply = %#v, creates = %d", reply, len(fc.created))
	}
}

func TestBackToBackEventIsNoConflict(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "next", Title: "Lunch", Start: at(11, 0), End: at(12, 0)},
	}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventAdded {
		t.Fatalf("half-open boundary treated as conflict: %#v", reply)
	}
}

func TestYesPleaseIsNotConfirmation(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "yes please")

	if len(fc.created) != 0 {
		t.Fatal("partial match must not commit")
	}
	if reply.Data.Type != TypeEventPending {
		t.Fatalf("reply = %#v", reply)
	}
	if !strings.Contains(reply.Data.Message, "Confirm or cancel?") {
		t.Fatalf("expected reprompt, got %q", reply.Data.Message)
	}
}

func TestCancellationClearsSlot(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	e, sess := newTestEngine(fx, &fakeCalendar{})
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "cancel")

	if reply.Data.Type != TypeEventCancelled {
		t.Fatalf("reply = %#v", reply)
	}
	if sess.store.Get() != nil {
		t.Fatal("cancel must clear the staged action")
	}
}

func TestCancelWithNothingStagedIsDefined(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{Type: extract.IntentTalk}, talkReply: "Nothing to cancel!"}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "cancel")
	if !reply.Success || reply.Data.Type != TypeChatResponse {
		t.Fatalf("idle cancel must be an ordinary reply, got %#v", reply)
	}
}

func TestPendingBlocksNewIntentClassification(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	e, sess := newTestEngine(fx, &fakeCalendar{})
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	if fx.classifyCalls != 1 {
		t.Fatalf("classify calls = %d", fx.classifyCalls)
	}

	reply := e.HandleMessage(ctx, sess, "also set up lunch with sam")
	if fx.classifyCalls != 1 {
		t.Fatal("no intent classification may happen while an action is staged")
	}
	if reply.Data.Type != TypeEventPending {
		t.Fatalf("reply = %#v", reply)
	}

	staged := sess.store.Get()
	if staged == nil || *staged.Fields.Title != "Meeting" {
		t.Fatal("the staged action must be untouched")
	}
}

func TestFieldEditLocationKeepsOtherFields(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent(), location: "Room B"}
	fc := &fakeCalendar{}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "set the location to room b")
	if reply.Data.Type != TypeEventPending || !strings.Contains(reply.Data.Message, "Room B") {
		t.Fatalf("edit reply = %#v", reply)
	}

	reply = e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventAdded {
		t.Fatalf("confirm reply = %#v", reply)
	}
	ev := fc.created[0]
	if ev.Location != "Room B" {
		t.Fatalf("location = %q", ev.Location)
	}
	if ev.Title != "Meeting" || !ev.Start.Equal(at(10, 0)) || !ev.End.Equal(at(11, 0)) {
		t.Fatalf("other fields clobbered: %#v", ev)
	}
}

func TestFieldEditTimeWinsOverLocation(t *testing.T) {
	fx := &fakeExtractor{
		intent:     addIntent(),
		timeUpdate: &extract.TimeUpdate{Boundary: "start", Time: at(15, 0)},
		location:   "Room B",
	}
	e, sess := newTestEngine(fx, &fakeCalendar{})
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "start at 3pm in room b")
	if !strings.Contains(reply.Data.Message, "start time") {
		t.Fatalf("time edit should win the tie-break: %q", reply.Data.Message)
	}

	staged := sess.store.Get()
	if !staged.Fields.Start.Equal(at(15, 0)) {
		t.Fatalf("start = %v", staged.Fields.Start)
	}
	if staged.Fields.Location != nil {
		t.Fatal("location must wait for the next turn")
	}
}

func TestUnusableTimeEditFallsToReprompt(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent(), timeUpdate: nil}
	e, sess := newTestEngine(fx, &fakeCalendar{})
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "a bit later")
	if reply.Data.Type != TypeEventPending {
		t.Fatalf("reply = %#v", reply)
	}
	if !strings.Contains(reply.Data.Message, "Confirm or cancel?") {
		t.Fatalf("expected reprompt, got %q", reply.Data.Message)
	}
	if sess.store.Get() == nil {
		t.Fatal("staged action must survive an unusable edit")
	}
}

func TestExtractionFailureStaysIdle(t *testing.T) {
	fx := &fakeExtractor{classifyErr: extract.ErrExtraction}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "gibberish")
	if reply.Success || reply.Data.Type != TypeChatResponse {
		t.Fatalf("reply = %#v", reply)
	}
	if !strings.Contains(reply.Data.Message, "try again") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	if sess.store.Get() != nil {
		t.Fatal("a failed classification must not stage anything")
	}
}

func TestAvailabilityPointQueryRoutesToBusyCheck(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:    extract.IntentRead,
		TimeMin: at(15, 0),
		TimeMax: at(15, 5),
	}}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "ev", Title: "Dentist", Start: at(14, 30), End: at(15, 30)},
	}}
	e, sess := newTestEngine(fx, fc)

	reply := e.HandleMessage(context.Background(), sess, "am I free at 3pm thursday?")
	if reply.Data.Type != TypeAvailability {
		t.Fatalf("reply type = %q", reply.Data.Type)
	}
	if !strings.Contains(reply.Data.Message, "busy") || !strings.Contains(reply.Data.Message, "Dentist") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	// The fetch is the ±12h busy window, not the raw 5 minute range.
	w := fc.listCalls[0]
	if !w.min.Equal(at(15, 0).Add(-12*time.Hour)) || !w.max.Equal(at(15, 0).Add(12*time.Hour)) {
		t.Fatalf("busy window = %#v", w)
	}
}

func TestAvailabilityFreeReply(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:    extract.IntentRead,
		TimeMin: at(9, 0),
		TimeMax: at(9, 0),
	}}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "am I available at 9am?")
	if reply.Data.Type != TypeAvailability || !strings.Contains(reply.Data.Message, "available") {
		t.Fatalf("reply = %#v", reply)
	}
	if len(reply.Data.Events) != 0 {
		t.Fatalf("free reply should carry no events")
	}
}

func TestWideRangeWithCueIsStillAListing(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:    extract.IntentRead,
		TimeMin: at(0, 0),
		TimeMax: at(23, 59),
	}}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "am I busy on thursday?")
	if reply.Data.Type != TypeEventQuery {
		t.Fatalf("wide window must route to a listing, got %q", reply.Data.Type)
	}
}

func TestReadEmptyRange(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{Type: extract.IntentRead, TimeMin: at(0, 0), TimeMax: at(23, 59)}}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "what do I have thursday?")
	if reply.Data.Type != TypeEventQuery {
		t.Fatalf("reply type = %q", reply.Data.Type)
	}
	if reply.Data.Message != "No events found in the specified range." {
		t.Fatalf("message = %q", reply.Data.Message)
	}
}

func TestReadFormatsListing(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{Type: extract.IntentRead, TimeMin: at(0, 0), TimeMax: at(23, 59)}}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{Title: "Standup", Start: at(10, 0), End: at(10, 30), Location: "Room A"},
		{Title: "Lunch", Start: at(12, 0), End: at(13, 0)},
	}}
	e, sess := newTestEngine(fx, fc)

	reply := e.HandleMessage(context.Background(), sess, "what do I have thursday?")
	if !strings.Contains(reply.Data.Message, "Found 2 event(s):") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	if !strings.Contains(reply.Data.Message, `1. "Standup"`) || !strings.Contains(reply.Data.Message, "Room A") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	if len(reply.Data.Events) != 2 {
		t.Fatalf("events = %d", len(reply.Data.Events))
	}
	if sess.store.Get() != nil {
		t.Fatal("reads must never stage")
	}
}

func TestUpdateFlow(t *testing.T) {
	fx := &fakeExtractor{
		intent: extract.Intent{
			Type:    extract.IntentUpdate,
			Keyword: "Sarah",
			TimeMin: at(0, 0),
			TimeMax: at(23, 59),
		},
		diff: pending.Fields{Start: timeptr(at(10, 0))},
	}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "ev9", Title: "Coffee with Sarah", Start: at(15, 0), End: at(16, 0), Location: "HQ"},
	}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	reply := e.HandleMessage(ctx, sess, "change my meeting with Sarah to 10am")
	if reply.Data.Type != TypeEventPending || !strings.Contains(reply.Data.Message, "Sarah") {
		t.Fatalf("stage reply = %#v", reply)
	}

	reply = e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventUpdated {
		t.Fatalf("confirm reply = %#v", reply)
	}
	if fc.updatedID != "ev9" {
		t.Fatalf("updated id = %q", fc.updatedID)
	}
	ev := fc.updated[0]
	if !ev.Start.Equal(at(10, 0)) {
		t.Fatalf("start = %v", ev.Start)
	}
	if ev.Title != "Coffee with Sarah" || ev.Location != "HQ" || !ev.End.Equal(at(16, 0)) {
		t.Fatalf("unspecified fields must pass through: %#v", ev)
	}
	if sess.store.Get() != nil {
		t.Fatal("staged action should be cleared after commit")
	}
}

func TestUpdateTargetNotFound(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:    extract.IntentUpdate,
		Keyword: "dentist",
		TimeMin: at(0, 0),
		TimeMax: at(23, 59),
	}}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "other", Title: "Standup", Start: at(10, 0), End: at(10, 30)},
	}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "move my dentist appointment")
	reply := e.HandleMessage(ctx, sess, "yes")

	if !strings.Contains(reply.Data.Message, `"dentist"`) {
		t.Fatalf("not-found must name the search term: %q", reply.Data.Message)
	}
	if len(fc.updated) != 0 {
		t.Fatal("nothing may be mutated on a failed lookup")
	}
	if sess.store.Get() != nil {
		t.Fatal("staged action is cleared after a failed lookup")
	}
}

func TestDeleteFlow(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{
		Type:    extract.IntentDelete,
		Keyword: "dentist",
		TimeMin: at(0, 0),
		TimeMax: at(23, 59),
	}}
	fc := &fakeCalendar{listEvents: []calendar.Event{
		{ID: "ev5", Title: "Dentist Appointment", Start: at(14, 0), End: at(15, 0)},
	}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	reply := e.HandleMessage(ctx, sess, "delete my dentist appointment")
	if reply.Data.Type != TypeEventPending {
		t.Fatalf("stage reply = %#v", reply)
	}

	reply = e.HandleMessage(ctx, sess, "yes")
	if reply.Data.Type != TypeEventDeleted {
		t.Fatalf("confirm reply = %#v", reply)
	}
	if len(fc.deleted) != 1 || fc.deleted[0] != "ev5" {
		t.Fatalf("deleted = %v", fc.deleted)
	}
}

func TestDeleteWithoutSearchTerm(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{Type: extract.IntentDelete}}
	fc := &fakeCalendar{}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "delete it")
	reply := e.HandleMessage(ctx, sess, "yes")

	if !strings.Contains(reply.Data.Message, "title or keyword") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	if len(fc.deleted) != 0 {
		t.Fatal("delete must not run without a search term")
	}
}

func TestUnauthorizedSurfacesAsNotConnected(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{listErr: calendar.ErrUnauthorized}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "yes")

	if reply.Success || reply.Data.Type != TypeChatResponse {
		t.Fatalf("reply = %#v", reply)
	}
	if !strings.Contains(reply.Data.Message, "isn't connected") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
}

func TestRemoteErrorClearsStagedAction(t *testing.T) {
	fx := &fakeExtractor{intent: addIntent()}
	fc := &fakeCalendar{createErr: &calendar.RemoteError{Op: "create", Err: errors.New("backend down")}}
	e, sess := newTestEngine(fx, fc)
	ctx := context.Background()

	e.HandleMessage(ctx, sess, "add a meeting")
	reply := e.HandleMessage(ctx, sess, "yes")

	if !strings.Contains(reply.Data.Message, "Failed to add event") {
		t.Fatalf("message = %q", reply.Data.Message)
	}
	if sess.store.Get() != nil {
		t.Fatal("a remote failure must clear the slot to avoid a retry loop")
	}
}

func TestTalkIntent(t *testing.T) {
	fx := &fakeExtractor{intent: extract.Intent{Type: extract.IntentTalk}, talkReply: "Doing great!"}
	e, sess := newTestEngine(fx, &fakeCalendar{})

	reply := e.HandleMessage(context.Background(), sess, "how are you?")
	if reply.Data.Type != TypeChatResponse || reply.Data.Message != "Doing great!" {
		t.Fatalf("reply = %#v", reply)
	}
}

func TestConfirmationMatching(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"yes", true},
		{"  YES ", true},
		{"ok", true},
		{"sure", true},
		{"y", true},
		{"yes please", false},
		{"yes, that works", false},
		{"okay then", false},
		{"no", false},
	}
	for _, tt := range tests {
		if got := isConfirmation(normalize(tt.in)); got != tt.want {
			t.Errorf("isConfirmation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCancellationMatching(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"no", true},
		{"cancel", true},
		{"STOP", true},
		{"no way, tuesday works", false},
		{"nope", true},
	}
	for _, tt := range tests {
		if got := isCancellation(normalize(tt.in)); got != tt.want {
			t.Errorf("isCancellation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
