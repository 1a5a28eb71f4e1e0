package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// ErrCredentialsMissing is returned when the OAuth client secrets file does
// not exist. Reminder creation fails loudly in that case instead of silently
// skipping the calendar.
var ErrCredentialsMissing = errors.New("google calendar credentials file not found")

// ErrNotAuthorized is returned when no cached token exists yet and the user
// has to go through the consent flow first.
var ErrNotAuthorized = errors.New("google calendar not authorized, complete the OAuth flow first")

// Manager creates reminder events in the user's primary Google Calendar.
// The OAuth token is cached in a file and re-persisted after refresh.
type Manager struct {
	credentialsPath string
	tokenPath       string
}

func NewManager(credentialsPath, tokenPath string) *Manager {
	if credentialsPath == "" {
		credentialsPath = "credentials.json"
	}
	if tokenPath == "" {
		tokenPath = "token.json"
	}
	return &Manager{
		credentialsPath: credentialsPath,
		tokenPath:       tokenPath,
	}
}

func (m *Manager) oauthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(m.credentialsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsMissing, m.credentialsPath)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, calendarapi.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// AuthURL returns the consent URL to start the OAuth flow.
func (m *Manager) AuthURL(state string) (string, error) {
	cfg, err := m.oauthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades the consent code for a token and caches it.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	cfg, err := m.oauthConfig()
	if err != nil {
		return err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	return m.saveToken(tok)
}

// Authorized reports whether a cached token exists.
func (m *Manager) Authorized() bool {
	_, err := m.loadToken()
	return err == nil
}

func (m *Manager) loadToken() (*oauth2.Token, error) {
	f, err := os.Open(m.tokenPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (m *Manager) saveToken(tok *oauth2.Token) error {
	f, err := os.OpenFile(m.tokenPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(tok)
}

// CreateEvent inserts a reminder into the primary calendar and returns its
// link. Expired tokens are refreshed and the refreshed token is written back
// to the cache file.
func (m *Manager) CreateEvent(ctx context.Context, summary, description string, start time.Time, durationMinutes int) (string, error) {
	cfg, err := m.oauthConfig()
	if err != nil {
		return "", err
	}

	tok, err := m.loadToken()
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotAuthorized
		}
		return "", fmt.Errorf("load token: %w", err)
	}

	ts := cfg.TokenSource(ctx, tok)
	freshTok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if freshTok.AccessToken != tok.AccessToken {
		if err := m.saveToken(freshTok); err != nil {
			return "", err
		}
	}

	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", fmt.Errorf("calendar service: %w", err)
	}

	if durationMinutes <= 0 {
		durationMinutes = 30
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	event := &calendarapi.Event{
		Summary:     summary,
		Description: description,
		Start: &calendarapi.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendarapi.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}

	return created.HtmlLink, nil
}
