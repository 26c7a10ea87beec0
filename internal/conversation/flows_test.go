package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupcal/calbot/core/telegram/state"
)

func TestCreateFlowWalksEveryStep(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	steps := []struct {
		event string
		want  state.State
	}{
		{EventStartCreate, WaitingEventName},
		{EventNameEntered, WaitingEventDate},
		{EventDateEntered, WaitingEventTime},
		{EventTimeEntered, WaitingEventDuration},
		{EventDurationEntered, WaitingEventDescription},
		{EventDone, state.StateIdle},
	}
	for _, s := range steps {
		got, err := m.Transition(ctx, 1, s.event, nil)
		require.NoError(t, err, s.event)
		assert.Equal(t, s.want, got)
	}
}

func TestStepsCannotBeSkipped(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	_, err := m.Transition(ctx, 1, EventDateEntered, nil)
	assert.ErrorIs(t, err, state.ErrTransition)

	_, err = m.Transition(ctx, 1, EventStartCreate, nil)
	require.NoError(t, err)
	_, err = m.Transition(ctx, 1, EventTimeEntered, nil)
	assert.ErrorIs(t, err, state.ErrTransition)
	assert.Equal(t, WaitingEventName, m.State(1))

	_, err = m.Transition(ctx, 1, EventDone, nil)
	assert.ErrorIs(t, err, state.ErrTransition, "create flow ends only after the description")
}

func TestFlowsStartOnlyFromIdle(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	_, err := m.Transition(ctx, 1, EventStartBroadcast, nil)
	require.NoError(t, err)

	for _, ev := range []string{EventStartCreate, EventStartDelete, EventStartLanguage, EventStartBroadcast} {
		_, err := m.Transition(ctx, 1, ev, nil)
		assert.ErrorIs(t, err, state.ErrTransition, ev)
	}
	assert.Equal(t, WaitingBroadcastMessage, m.State(1))
}

func TestCancelFromEveryStep(t *testing.T) {
	for _, st := range active {
		ev := findEntry(t, state.State(st))
		m := NewManager()
		ctx := context.Background()
		for _, e := range ev {
			_, err := m.Transition(ctx, 1, e, nil)
			require.NoError(t, err)
		}
		require.Equal(t, state.State(st), m.State(1))
		got, err := m.Transition(ctx, 1, EventCancel, nil)
		require.NoError(t, err)
		assert.Equal(t, state.StateIdle, got)
	}

	_, err := NewManager().Transition(context.Background(), 1, EventCancel, nil)
	assert.ErrorIs(t, err, state.ErrTransition)
}

// findEntry returns the event path from idle to st.
func findEntry(t *testing.T, st state.State) []string {
	t.Helper()
	create := []string{EventStartCreate, EventNameEntered, EventDateEntered, EventTimeEntered, EventDurationEntered}
	switch st {
	case WaitingEventName:
		return create[:1]
	case WaitingEventDate:
		return create[:2]
	case WaitingEventTime:
		return create[:3]
	case WaitingEventDuration:
		return create[:4]
	case WaitingEventDescription:
		return create
	case WaitingEventIDToDelete:
		return []string{EventStartDelete}
	case WaitingLanguageSelection:
		return []string{EventStartLanguage}
	case WaitingBroadcastMessage:
		return []string{EventStartBroadcast}
	}
	t.Fatalf("no path to %s", st)
	return nil
}

func TestDraftFrom(t *testing.T) {
	start := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	d := DraftFrom(state.Session{Data: map[string]any{
		KeyName:  "Lecture",
		KeyStart: start,
		KeyEnd:   start.Add(time.Hour),
	}})
	assert.Equal(t, "Lecture", d.Name)
	assert.Equal(t, start, d.Start)
	assert.Equal(t, start.Add(time.Hour), d.End)
	assert.True(t, d.Date.IsZero())
}
