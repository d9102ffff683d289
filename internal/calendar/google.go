package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const primaryCalendar = "primary"

// GoogleClient talks to the Google Calendar v3 API. A fresh service is built
// per call because every call carries a different user's token pair.
type GoogleClient struct {
	oauth *oauth2.Config
}

func NewGoogleClient(clientID, clientSecret string) *GoogleClient {
	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarScope},
		},
	}
}

func (g *GoogleClient) service(ctx context.Context, creds Credentials) (*gcal.Service, error) {
	if creds.Missing() {
		return nil, ErrCredentialsMissing
	}
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	httpClient := g.oauth.Client(ctx, token)
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, &RemoteError{Op: "init", Err: err}
	}
	return svc, nil
}

func (g *GoogleClient) List(ctx context.Context, creds Credentials, timeMin, timeMax time.Time) ([]Event, error) {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(primaryCalendar).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(ctx)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, classify("list", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, fromGoogle(item))
	}
	return events, nil
}

func (g *GoogleClient) Create(ctx context.Context, creds Credentials, ev Event) (Event, error) {
	if ev.Title == "" || ev.Start.IsZero() || ev.End.IsZero() {
		return Event{}, &RemoteError{Op: "create", Err: errors.New("title, start and end are required")}
	}
	svc, err := g.service(ctx, creds)
	if err != nil {
		return Event{}, err
	}

	created, err := svc.Events.Insert(primaryCalendar, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return Event{}, classify("create", err)
	}
	return fromGoogle(created), nil
}

func (g *GoogleClient) Update(ctx context.Context, creds Credentials, id string, ev Event) (Event, error) {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return Event{}, err
	}

	updated, err := svc.Events.Update(primaryCalendar, id, toGoogle(ev)).Context(ctx).Do()
	if err != nil {
		return Event{}, classify("update", err)
	}
	return fromGoogle(updated), nil
}

func (g *GoogleClient) Delete(ctx context.Context, creds Credentials, id string) error {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(primaryCalendar, id).Context(ctx).Do(); err != nil {
		return classify("delete", err)
	}
	return nil
}

// classify maps a googleapi error to the package taxonomy.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
	}
	return &RemoteError{Op: op, Err: err}
}

func toGoogle(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Title,
		Location:    ev.Location,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
}

func fromGoogle(item *gcal.Event) Event {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Location:    item.Location,
		Description: item.Description,
	}
	if item.Start != nil {
		ev.Start = parseBoundary(item.Start)
	}
	if item.End != nil {
		ev.End = parseBoundary(item.End)
	}
	return ev
}

// parseBoundary handles both timed events (DateTime) and all-day events (Date),
// treating an all-day boundary as local midnight.
func parseBoundary(b *gcal.EventDateTime) time.Time {
	if b.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, b.DateTime); err == nil {
			return t
		}
	}
	if b.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", b.Date, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
