// Package conversation declares the bot's multi-step flows and parses their input.
package conversation

import (
	"github.com/looplab/fsm"

	"github.com/groupcal/calbot/core/telegram/state"
)

// Conversation steps.
const (
	WaitingEventName         state.State = "waiting_event_name"
	WaitingEventDate         state.State = "waiting_event_date"
	WaitingEventTime         state.State = "waiting_event_time"
	WaitingEventDuration     state.State = "waiting_event_duration"
	WaitingEventDescription  state.State = "waiting_event_description"
	WaitingEventIDToDelete   state.State = "waiting_event_id_to_delete"
	WaitingLanguageSelection state.State = "waiting_language_selection"
	WaitingBroadcastMessage  state.State = "waiting_broadcast_message"
)

// Transition events.
const (
	EventStartCreate     = "start_create"
	EventNameEntered     = "name_entered"
	EventDateEntered     = "date_entered"
	EventTimeEntered     = "time_entered"
	EventDurationEntered = "duration_entered"
	EventStartDelete     = "start_delete"
	EventStartLanguage   = "start_language"
	EventStartBroadcast  = "start_broadcast"
	// EventDone ends a flow from its last step.
	EventDone            = "done"
	// EventCancel leaves any flow.
	EventCancel          = "cancel"
)

// Draft keys stored in the session while creating an event.
const (
	KeyName  = "name"
	KeyDate  = "date"
	KeyStart = "start"
	KeyEnd   = "end"
)

var active = []string{
	string(WaitingEventName),
	string(WaitingEventDate),
	string(WaitingEventTime),
	string(WaitingEventDuration),
	string(WaitingEventDescription),
	string(WaitingEventIDToDelete),
	string(WaitingLanguageSelection),
	string(WaitingBroadcastMessage),
}

// Events is the complete transition table. Flows start only from idle and
// advance one step at a time.
var Events = fsm.Events{
	{Name: EventStartCreate, Src: []string{string(state.StateIdle)}, Dst: string(WaitingEventName)},
	{Name: EventNameEntered, Src: []string{string(WaitingEventName)}, Dst: string(WaitingEventDate)},
	{Name: EventDateEntered, Src: []string{string(WaitingEventDate)}, Dst: string(WaitingEventTime)},
	{Name: EventTimeEntered, Src: []string{string(WaitingEventTime)}, Dst: string(WaitingEventDuration)},
	{Name: EventDurationEntered, Src: []string{string(WaitingEventDuration)}, Dst: string(WaitingEventDescription)},

	{Name: EventStartDelete, Src: []string{string(state.StateIdle)}, Dst: string(WaitingEventIDToDelete)},
	{Name: EventStartLanguage, Src: []string{string(state.StateIdle)}, Dst: string(WaitingLanguageSelection)},
	{Name: EventStartBroadcast, Src: []string{string(state.StateIdle)}, Dst: string(WaitingBroadcastMessage)},

	{Name: EventDone, Src: []string{
		string(WaitingEventDescription),
		string(WaitingEventIDToDelete),
		string(WaitingLanguageSelection),
		string(WaitingBroadcastMessage),
	}, Dst: string(state.StateIdle)},
	{Name: EventCancel, Src: active, Dst: string(state.StateIdle)},
}

// NewManager returns a state manager bound to Events.
func NewManager() *state.Manager {
	return state.NewManager(Events)
}
