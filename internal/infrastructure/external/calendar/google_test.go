package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

func testConfig() *config.CalendarConfig {
	return &config.CalendarConfig{
		CalendarID: "primary",
		TimeZone:   "Asia/Kolkata",
		BotEmail:   "bot@focusgroup.local",
	}
}

func TestBuildEvent(t *testing.T) {
	g := newGoogleCalendar(nil, testConfig(), nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	event := g.buildEvent(Invite{
		Title:       "Tea tasting",
		MeetingLink: "https://meet.example.com/fg-1",
		Start:       start,
		Duration:    90 * time.Minute,
		Attendees:   []string{"Ann@Example.com", "ann@example.com", "bob@example.com", " "},
	})

	assert.Equal(t, "Tea tasting", event.Summary)
	assert.Contains(t, event.Description, "Focus Group Discussion")
	assert.Contains(t, event.Description, "https://meet.example.com/fg-1")
	assert.Equal(t, "Asia/Kolkata", event.Start.TimeZone)

	gotStart, err := time.Parse(time.RFC3339, event.Start.DateTime)
	require.NoError(t, err)
	gotEnd, err := time.Parse(time.RFC3339, event.End.DateTime)
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start))
	assert.Equal(t, 90*time.Minute, gotEnd.Sub(gotStart))

	var emails []string
	for _, a := range event.Attendees {
		emails = append(emails, a.Email)
	}
	assert.Equal(t, []string{"bot@focusgroup.local", "ann@example.com", "bob@example.com"}, emails)

	require.Len(t, event.Reminders.Overrides, 2)
	assert.Equal(t, "email", event.Reminders.Overrides[0].Method)
	assert.Equal(t, int64(30), event.Reminders.Overrides[0].Minutes)
	assert.Equal(t, "popup", event.Reminders.Overrides[1].Method)
	assert.Equal(t, int64(10), event.Reminders.Overrides[1].Minutes)
}

func TestBuildEventDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.TimeZone = "Not/AZone"
	g := newGoogleCalendar(nil, cfg, nil)

	event := g.buildEvent(Invite{Title: "x", Start: time.Unix(0, 0), Description: "About tea"})
	assert.Equal(t, "UTC", event.Start.TimeZone)
	assert.Equal(t, "About tea", event.Description)

	start, _ := time.Parse(time.RFC3339, event.Start.DateTime)
	end, _ := time.Parse(time.RFC3339, event.End.DateTime)
	assert.Equal(t, time.Hour, end.Sub(start))
}

func TestCreateEvent(t *testing.T) {
	var received gcal.Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"evt-123"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	service, err := gcal.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	g := newGoogleCalendar(service, testConfig(), nil)
	id, err := g.CreateEvent(ctx, Invite{Title: "Tea", Start: time.Now(), Attendees: []string{"ann@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", id)
	assert.Equal(t, "Tea", received.Summary)
	assert.Len(t, received.Attendees, 2)
}

func TestCreateEventError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	service, err := gcal.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	_, err = newGoogleCalendar(service, testConfig(), nil).CreateEvent(ctx, Invite{Title: "Tea", Start: time.Now()})
	assert.Error(t, err)
}
