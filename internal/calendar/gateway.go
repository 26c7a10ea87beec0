package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/groupcal/calbot/core/logger"
)

// DefaultCacheTTL bounds how long a listed window is served from memory.
const DefaultCacheTTL = 10 * time.Second

// Provider is the remote calendar API.
type Provider interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	InsertEvent(ctx context.Context, ev Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// GatewayOptions tune the cache. Zero values take defaults.
type GatewayOptions struct {
	TTL time.Duration
	Now func() time.Time
}

type cacheEntry struct {
	events  []Event
	expires time.Time
}

// Gateway caches event listings per window size. Any successful create or
// delete clears the whole cache. No lock is held during provider calls.
type Gateway struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu    sync.Mutex
	gen   uint64
	cache map[int]cacheEntry
}

// NewGateway wraps provider with a short-lived listing cache.
func NewGateway(provider Provider, opts GatewayOptions) *Gateway {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		provider: provider,
		ttl:      opts.TTL,
		now:      opts.Now,
		cache:    make(map[int]cacheEntry),
	}
}

// ListEvents returns the events starting within the next days days.
func (g *Gateway) ListEvents(ctx context.Context, days int) ([]Event, error) {
	if days <= 0 {
		return nil, fmt.Errorf("list events: window must be positive, got %d", days)
	}
	if events, ok := g.cached(days); ok {
		logger.Debug(ctx, "calendar", "list", slog.String("cache", "hit"), slog.Int("events", len(events)))
		return events, nil
	}

	v, err, _ := g.group.Do(strconv.Itoa(days), func() (any, error) {
		g.mu.Lock()
		gen := g.gen
		g.mu.Unlock()

		start := time.Now()
		from := g.now()
		events, err := g.provider.ListEvents(ctx, from, from.AddDate(0, 0, days))
		if err != nil {
			logger.Warn(ctx, "calendar", "list",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
				slog.Duration("duration", logger.Took(start)),
			)
			return nil, err
		}

		g.mu.Lock()
		if g.gen == gen {
			g.cache[days] = cacheEntry{events: events, expires: g.now().Add(g.ttl)}
		}
		g.mu.Unlock()
		logger.Debug(ctx, "calendar", "list",
			slog.String("cache", "miss"),
			slog.Int("events", len(events)),
			slog.Duration("duration", logger.Took(start)),
		)
		return events, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Event)), nil
}

func (g *Gateway) cached(days int) ([]Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.cache[days]
	if !ok {
		return nil, false
	}
	if !g.now().Before(entry.expires) {
		delete(g.cache, days)
		return nil, false
	}
	return slices.Clone(entry.events), true
}

// CreateEvent adds an event and clears the cache on success.
func (g *Gateway) CreateEvent(ctx context.Context, summary string, start, end time.Time, description string) (Event, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return Event{}, fmt.Errorf("%w: empty summary", ErrInvalidEvent)
	}
	if end.Before(start) {
		return Event{}, fmt.Errorf("%w: end before start", ErrInvalidEvent)
	}
	ev, err := g.provider.InsertEvent(ctx, Event{Summary: summary, Description: description, Start: start, End: end})
	if err != nil {
		return Event{}, err
	}
	g.Invalidate()
	logger.Info(ctx, "calendar", "event.created", slog.String("event_id", ev.ID))
	return ev, nil
}

// DeleteEvent removes the event with id and clears the cache on success.
func (g *Gateway) DeleteEvent(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEvent)
	}
	if err := g.provider.DeleteEvent(ctx, id); err != nil {
		return err
	}
	g.Invalidate()
	logger.Info(ctx, "calendar", "event.deleted", slog.String("event_id", id))
	return nil
}

// Invalidate drops every cached listing, including listings still in flight.
func (g *Gateway) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	clear(g.cache)
}
