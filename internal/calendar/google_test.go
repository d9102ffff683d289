package calendar

import (
	"errors"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

func TestFromGoogleTimedEvent(t *testing.T) {
	item := &gcal.Event{
		Id:       "ev1",
		Summary:  "Team Sync",
		Location: "Room B",
		Start:    &gcal.EventDateTime{DateTime: "2025-09-18T10:00:00Z"},
		End:      &gcal.EventDateTime{DateTime: "2025-09-18T11:00:00Z"},
	}
	ev := fromGoogle(item)
	if ev.ID != "ev1" || ev.Title != "Team Sync" || ev.Location != "Room B" {
		t.Fatalf("unexpected event: %#v", ev)
	}
	want := time.Date(2025, 9, 18, 10, 0, 0, 0, time.UTC)
	if !ev.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", ev.Start, want)
	}
	if !ev.End.Equal(want.Add(time.Hour)) {
		t.Fatalf("end = %v", ev.End)
	}
}

func TestFromGoogleAllDayEvent(t *testing.T) {
	item := &gcal.Event{
		Summary: "Holiday",
		Start:   &gcal.EventDateTime{Date: "2025-09-18"},
		End:     &gcal.EventDateTime{Date: "2025-09-19"},
	}
	ev := fromGoogle(item)
	if ev.Start.Hour() != 0 || ev.Start.Day() != 18 {
		t.Fatalf("expected local midnight start, got %v", ev.Start)
	}
	if ev.End.Day() != 19 {
		t.Fatalf("expected next-day end, got %v", ev.End)
	}
}

func TestClassifyUnauthorized(t *testing.T) {
	err := classify("list", &googleapi.Error{Code: 401, Message: "invalid credentials"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClassifyRemoteError(t *testing.T) {
	err := classify("create", &googleapi.Error{Code: 500, Message: "backend"})
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remote.Op != "create" {
		t.Fatalf("op = %q", remote.Op)
	}
}

func TestCredentialsMissing(t *testing.T) {
	if (Credentials{AccessToken: "a", RefreshToken: "r"}).Missing() {
		t.Fatal("complete pair reported missing")
	}
	if !(Credentials{AccessToken: "a"}).Missing() {
		t.Fatal("half pair not reported missing")
	}
	if !(Credentials{}).Missing() {
		t.Fatal("empty pair not reported missing")
	}
}
