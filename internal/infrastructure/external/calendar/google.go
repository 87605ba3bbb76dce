package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/johnquangdev/focus-group-bot/pkg/config"
)

const (
	emailReminderMinutes = 30
	popupReminderMinutes = 10
)

// Invite describes the calendar event sent for a focus group
type Invite struct {
	Title       string
	Description string
	MeetingLink string
	Start       time.Time
	Duration    time.Duration
	Attendees   []string
}

// GoogleCalendar creates focus group events in Google Calendar
type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
	botEmail   string
	location   *time.Location
	logger     *zap.Logger
}

// NewGoogleCalendar builds an OAuth client from the configured refresh token
func NewGoogleCalendar(ctx context.Context, cfg *config.CalendarConfig, logger *zap.Logger) (*GoogleCalendar, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}

	// The token source refreshes the access token as needed
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	service, err := gcal.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newGoogleCalendar(service, cfg, logger), nil
}

func newGoogleCalendar(service *gcal.Service, cfg *config.CalendarConfig, logger *zap.Logger) *GoogleCalendar {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil || cfg.TimeZone == "" {
		loc = time.UTC
	}
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{
		service:    service,
		calendarID: calendarID,
		botEmail:   cfg.BotEmail,
		location:   loc,
		logger:     logger,
	}
}

// CreateEvent inserts the event, notifies attendees and returns its ID
func (g *GoogleCalendar) CreateEvent(ctx context.Context, invite Invite) (string, error) {
	event := g.buildEvent(invite)

	created, err := g.service.Events.Insert(g.calendarID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}

	g.logger.Info("Calendar event created",
		zap.String("event_id", created.Id),
		zap.Int("attendees", len(event.Attendees)))
	return created.Id, nil
}

// buildEvent maps an invite onto a Google Calendar event. The bot is always
// the first attendee and duplicate addresses are dropped.
func (g *GoogleCalendar) buildEvent(invite Invite) *gcal.Event {
	duration := invite.Duration
	if duration <= 0 {
		duration = time.Hour
	}
	start := invite.Start.In(g.location)
	end := start.Add(duration)

	description := strings.TrimSpace(invite.Description)
	if description == "" {
		description = "Focus Group Discussion"
	}
	if invite.MeetingLink != "" {
		description += "\n\nJoin the meeting: " + invite.MeetingLink
	}

	seen := make(map[string]bool)
	var attendees []*gcal.EventAttendee
	for _, email := range append([]string{g.botEmail}, invite.Attendees...) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	return &gcal.Event{
		Summary:     invite.Title,
		Description: description,
		Location:    invite.MeetingLink,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		Attendees: attendees,
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: emailReminderMinutes},
				{Method: "popup", Minutes: popupReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
}
