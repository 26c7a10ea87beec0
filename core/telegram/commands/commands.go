package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
	// StatKey is the click-statistics key recorded on each run; empty records nothing.
	StatKey string
}

// Button is a reply-keyboard action addressed by a stable key whose label
// is localized per user.
type Button struct {
	Handler   tele.HandlerFunc
	AdminOnly bool
	// Cancels marks navigation controls that stay reachable inside an active flow.
	Cancels bool
}
