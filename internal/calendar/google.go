package calendar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
	_ "time/tzdata"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/groupcal/calbot/core/logger"
)

const (
	// DefaultTimeZone is used for created events and all-day dates.
	DefaultTimeZone = "Europe/Moscow"
	// DefaultCalendarID addresses the account's primary calendar.
	DefaultCalendarID = "primary"
	// DefaultRedirectURL matches the loopback redirect of a desktop OAuth client.
	DefaultRedirectURL = "http://localhost:8080/"
)

// GoogleConfig configures GoogleProvider.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CalendarID   string
	TimeZone     string
	TokenFile    string
	// AuthCode is exchanged once when no token file exists yet.
	AuthCode string
	// Endpoint overrides the API base URL.
	Endpoint string
}

// GoogleProvider talks to Google Calendar v3. It authenticates on first use
// and keeps the service for the process lifetime.
type GoogleProvider struct {
	cfg        GoogleConfig
	oauth      *oauth2.Config
	httpClient *http.Client
	loc        *time.Location

	auth singleflight.Group
	mu   sync.Mutex
	svc  *gcal.Service
}

// NewGoogleProvider validates cfg. No network call happens here.
func NewGoogleProvider(cfg GoogleConfig, httpClient *http.Client) (*GoogleProvider, error) {
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	if cfg.TokenFile == "" {
		return nil, errors.New("calendar: token file is required")
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("calendar: time zone %q: %w", cfg.TimeZone, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleProvider{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gcal.CalendarScope},
			Endpoint:     google.Endpoint,
		},
		httpClient: httpClient,
		loc:        loc,
	}, nil
}

// Location returns the calendar time zone.
func (p *GoogleProvider) Location() *time.Location { return p.loc }

// service returns the authenticated client. The first caller authenticates
// without holding p.mu; concurrent callers join that attempt and give up
// when their own context ends.
func (p *GoogleProvider) service(ctx context.Context) (*gcal.Service, error) {
	p.mu.Lock()
	svc := p.svc
	p.mu.Unlock()
	if svc != nil {
		return svc, nil
	}

	ch := p.auth.DoChan("service", func() (any, error) {
		return p.connect(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*gcal.Service), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func (p *GoogleProvider) connect(ctx context.Context) (*gcal.Service, error) {
	// Token refreshes outlive any single request.
	baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
	tok, err := loadToken(p.cfg.TokenFile)
	switch {
	case errors.Is(err, fs.ErrNotExist) && p.cfg.AuthCode != "":
		tok, err = p.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.httpClient), p.cfg.AuthCode)
		if err != nil {
			return nil, fmt.Errorf("%w: exchange auth code: %v", ErrUnavailable, err)
		}
		if err := saveToken(p.cfg.TokenFile, tok); err != nil {
			logger.Warn(ctx, "calendar", "token.save_failed", slog.String("err", err.Error()))
		}
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn(ctx, "calendar", "auth.required",
			slog.String("auth_url", p.oauth.AuthCodeURL("calbot", oauth2.AccessTypeOffline, oauth2.ApprovalForce)),
		)
		return nil, fmt.Errorf("%w: no token, authorization required", ErrUnavailable)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	src := newPersistingSource(oauth2.ReuseTokenSource(tok, p.oauth.TokenSource(baseCtx, tok)), p.cfg.TokenFile, tok)
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(baseCtx, src))}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.svc == nil {
		p.svc = svc
		logger.Info(ctx, "calendar", "auth.ready", slog.String("calendar", p.cfg.CalendarID))
	}
	return p.svc, nil
}

// ListEvents returns single events starting in [from, to) ordered by start.
func (p *GoogleProvider) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	res, err := svc.Events.List(p.cfg.CalendarID).Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		Do()
	if err != nil {
		return nil, mapError(err)
	}
	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		ev, err := p.fromAPI(item)
		if err != nil {
			logger.Warn(ctx, "calendar", "event.skip",
				slog.String("event_id", item.Id),
				slog.String("err", err.Error()),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// InsertEvent creates ev in the configured calendar and time zone.
func (p *GoogleProvider) InsertEvent(ctx context.Context, ev Event) (Event, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return Event{}, err
	}
	created, err := svc.Events.Insert(p.cfg.CalendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.In(p.loc).Format(time.RFC3339), TimeZone: p.cfg.TimeZone},
		End:         &gcal.EventDateTime{DateTime: ev.End.In(p.loc).Format(time.RFC3339), TimeZone: p.cfg.TimeZone},
	}).Context(ctx).Do()
	if err != nil {
		return Event{}, mapError(err)
	}
	return p.fromAPI(created)
}

// DeleteEvent removes the event with id.
func (p *GoogleProvider) DeleteEvent(ctx context.Context, id string) error {
	svc, err := p.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(p.cfg.CalendarID, id).Context(ctx).Do(); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *GoogleProvider) fromAPI(item *gcal.Event) (Event, error) {
	ev := Event{ID: item.Id, Summary: item.Summary, Description: item.Description}
	var err error
	if ev.Start, ev.AllDay, err = p.parseTime(item.Start); err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	if ev.End, _, err = p.parseTime(item.End); err != nil {
		return Event{}, fmt.Errorf("end: %w", err)
	}
	return ev, nil
}

func (p *GoogleProvider) parseTime(dt *gcal.EventDateTime) (time.Time, bool, error) {
	switch {
	case dt == nil:
		return time.Time{}, false, errors.New("missing time")
	case dt.DateTime != "":
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t.In(p.loc), false, err
	default:
		t, err := time.ParseInLocation(time.DateOnly, dt.Date, p.loc)
		return t, true, err
	}
}

// mapError folds transport and auth failures into ErrUnavailable and missing
// events into ErrNotFound.
func mapError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: token refresh: %v", ErrUnavailable, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("calendar api: %w", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("calendar: %w", err)
}
