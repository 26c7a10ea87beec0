package state

import (
	"context"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stName State = "await_name"
	stDesc State = "await_desc"
)

var testEvents = fsm.Events{
	{Name: "start", Src: []string{string(StateIdle)}, Dst: string(stName)},
	{Name: "name", Src: []string{string(stName)}, Dst: string(stDesc)},
	{Name: "retry", Src: []string{string(stName), string(stDesc)}, Dst: string(stDesc)},
	{Name: "cancel", Src: []string{string(stName), string(stDesc)}, Dst: string(StateIdle)},
}

func TestTransitionFlow(t *testing.T) {
	m := NewManager(testEvents)
	ctx := context.Background()

	assert.Equal(t, StateIdle, m.State(1))
	assert.False(t, m.Active(1))

	st, err := m.Transition(ctx, 1, "start", nil)
	require.NoError(t, err)
	assert.Equal(t, stName, st)
	assert.True(t, m.Active(1))

	st, err = m.Transition(ctx, 1, "name", map[string]any{"name": "Lecture"})
	require.NoError(t, err)
	assert.Equal(t, stDesc, st)
	assert.Equal(t, "Lecture", m.Get(1).String("name"))

	st, err = m.Transition(ctx, 1, "retry", map[string]any{"desc": "room 5"})
	require.NoError(t, err)
	assert.Equal(t, stDesc, st)
	sess := m.Get(1)
	assert.Equal(t, "Lecture", sess.String("name"))
	assert.Equal(t, "room 5", sess.String("desc"))

	st, err = m.Transition(ctx, 1, "cancel", nil)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
	assert.Equal(t, StateIdle, m.State(1))
	assert.Empty(t, m.Get(1).Data)
}

func TestTransitionRejected(t *testing.T) {
	m := NewManager(testEvents)
	ctx := context.Background()

	_, err := m.Transition(ctx, 7, "name", nil)
	assert.ErrorIs(t, err, ErrTransition)
	assert.Equal(t, StateIdle, m.State(7))

	_, err = m.Transition(ctx, 7, "nope", nil)
	assert.ErrorIs(t, err, ErrTransition)
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager(testEvents)
	_, err := m.Transition(context.Background(), 3, "start", map[string]any{"k": "v"})
	require.NoError(t, err)

	sess := m.Get(3)
	sess.Data["k"] = "changed"
	assert.Equal(t, "v", m.Get(3).String("k"))
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(testEvents)
	ctx := context.Background()
	_, err := m.Transition(ctx, 1, "start", nil)
	require.NoError(t, err)

	assert.True(t, m.Active(1))
	assert.False(t, m.Active(2))

	m.Clear(1)
	assert.False(t, m.Active(1))
}

func TestHandlersLookup(t *testing.T) {
	h := Handlers{stName: nil}
	_, ok := h.Lookup(stName)
	assert.False(t, ok)
	_, ok = h.Lookup(stDesc)
	assert.False(t, ok)
}
