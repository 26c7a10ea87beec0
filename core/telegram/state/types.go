// Package state keeps per-user conversation sessions whose transitions are
// validated against a looplab/fsm event table.
package state

import (
	"errors"

	tele "gopkg.in/telebot.v4"
)

// State identifies a conversation step.
type State string

// StateIdle means the user has no active conversation.
const StateIdle State = "idle"

// ErrTransition wraps every rejected transition.
var ErrTransition = errors.New("state: transition rejected")

// Session is a snapshot of a user's conversation. Data holds the values
// collected so far by the current flow.
type Session struct {
	State State
	Data  map[string]any
}

// String returns the value stored under key as a string.
func (s Session) String(key string) string {
	v, _ := s.Data[key].(string)
	return v
}

// Handlers maps a conversation step to the handler that consumes the next message.
type Handlers map[State]tele.HandlerFunc

// Lookup returns the handler registered for st.
func (h Handlers) Lookup(st State) (tele.HandlerFunc, bool) {
	fn, ok := h[st]
	return fn, ok && fn != nil
}
