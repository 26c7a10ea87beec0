package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/looplab/fsm"

	"github.com/groupcal/calbot/core/logger"
)

// Manager stores one session per user in memory. Concurrent updates for the
// same user are serialized and the last write wins.
type Manager struct {
	events fsm.Events

	mu       sync.Mutex
	sessions map[int64]Session
}

// NewManager builds a Manager that accepts the transitions listed in events.
func NewManager(events fsm.Events) *Manager {
	return &Manager{
		events:   events,
		sessions: make(map[int64]Session),
	}
}

// Get returns a copy of the user's session, or an idle session.
func (m *Manager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return Session{State: StateIdle, Data: map[string]any{}}
	}
	return Session{State: sess.State, Data: maps.Clone(sess.Data)}
}

// State returns the user's current step.
func (m *Manager) State(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess.State
	}
	return StateIdle
}

// Active reports whether the user is inside a flow.
func (m *Manager) Active(userID int64) bool {
	return m.State(userID) != StateIdle
}

// Transition fires event from the user's current state and merges data into
// the session. Reaching StateIdle drops the session together with its data.
// An event that keeps the current state only merges data.
func (m *Manager) Transition(ctx context.Context, userID int64, event string, data map[string]any) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		sess = Session{State: StateIdle}
	}
	machine := fsm.NewFSM(string(sess.State), m.events, fsm.Callbacks{})
	if err := machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			logger.Debug(ctx, "state", "transition.reject",
				slog.String("state", string(sess.State)),
				slog.String("fsm_event", event),
				slog.String("err", err.Error()),
			)
			return sess.State, fmt.Errorf("%w: %s from %s: %v", ErrTransition, event, sess.State, err)
		}
	}

	next := State(machine.Current())
	if next == StateIdle {
		delete(m.sessions, userID)
		return next, nil
	}
	merged := maps.Clone(sess.Data)
	if merged == nil {
		merged = make(map[string]any, len(data))
	}
	maps.Copy(merged, data)
	m.sessions[userID] = Session{State: next, Data: merged}
	return next, nil
}

// Clear drops the user's session.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
