package calendar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	events  map[string]Event
	nextID  int
	lists   atomic.Int32
	listErr error
	block   chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{events: map[string]Event{}}
}

func (f *fakeProvider) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	f.lists.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, ev := range f.events {
		if !ev.Start.Before(from) && ev.Start.Before(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeProvider) InsertEvent(_ context.Context, ev Event) (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ev.ID = fmt.Sprintf("ev%d", f.nextID)
	f.events[ev.ID] = ev
	return ev, nil
}

func (f *fakeProvider) DeleteEvent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return ErrNotFound
	}
	delete(f.events, id)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGateway(p Provider) (*Gateway, *clock) {
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewGateway(p, GatewayOptions{TTL: 10 * time.Second, Now: clk.Now}), clk
}

func TestListEventsCachesWithinTTL(t *testing.T) {
	p := newFakeProvider()
	g, clk := newTestGateway(p)
	ctx := context.Background()

	_, err := g.ListEvents(ctx, 7)
	require.NoError(t, err)
	_, err = g.ListEvents(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.lists.Load())

	_, err = g.ListEvents(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.lists.Load(), "windows are cached separately")

	clk.Advance(11 * time.Second)
	_, err = g.ListEvents(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.lists.Load())
}

func TestCreateAndDeleteInvalidateCache(t *testing.T) {
	p := newFakeProvider()
	g, clk := newTestGateway(p)
	ctx := context.Background()

	events, err := g.ListEvents(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, events)

	start := clk.Now().Add(24 * time.Hour)
	ev, err := g.CreateEvent(ctx, "Lecture", start, start.Add(90*time.Minute), "room 5")
	require.NoError(t, err)

	events, err = g.ListEvents(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Lecture", events[0].Summary)
	assert.Equal(t, "room 5", events[0].Description)
	assert.Equal(t, start.Add(90*time.Minute), events[0].End)

	require.NoError(t, g.DeleteEvent(ctx, ev.ID))
	events, err = g.ListEvents(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.EqualValues(t, 3, p.lists.Load())
}

func TestFailuresKeepCache(t *testing.T) {
	p := newFakeProvider()
	g, _ := newTestGateway(p)
	ctx := context.Background()

	_, err := g.ListEvents(ctx, 7)
	require.NoError(t, err)

	err = g.DeleteEvent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = g.ListEvents(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.lists.Load())
}

func TestListErrorIsReturned(t *testing.T) {
	p := newFakeProvider()
	p.listErr = fmt.Errorf("%w: refresh failed", ErrUnavailable)
	g, _ := newTestGateway(p)

	_, err := g.ListEvents(context.Background(), 7)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = g.ListEvents(context.Background(), 0)
	assert.Error(t, err)
}

func TestCreateEventValidation(t *testing.T) {
	g, clk := newTestGateway(newFakeProvider())
	now := clk.Now()

	_, err := g.CreateEvent(context.Background(), "  ", now, now, "")
	assert.ErrorIs(t, err, ErrInvalidEvent)
	_, err = g.CreateEvent(context.Background(), "x", now, now.Add(-time.Minute), "")
	assert.ErrorIs(t, err, ErrInvalidEvent)

	ev, err := g.CreateEvent(context.Background(), "x", now, now, "")
	require.NoError(t, err)
	assert.Equal(t, now, ev.End, "zero duration is allowed")
}

func TestInvalidateDuringListSkipsCacheFill(t *testing.T) {
	p := newFakeProvider()
	p.block = make(chan struct{})
	g, _ := newTestGateway(p)

	done := make(chan error, 1)
	go func() {
		_, err := g.ListEvents(context.Background(), 7)
		done <- err
	}()
	require.Eventually(t, func() bool { return p.lists.Load() == 1 }, time.Second, time.Millisecond)
	g.Invalidate()
	close(p.block)
	require.NoError(t, <-done)

	_, err := g.ListEvents(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.lists.Load())
}
