package bot

import (
	"fmt"

	tg "github.com/groupcal/calbot/core/telegram"
	"github.com/groupcal/calbot/core/telegram/commands"
)

// Button keys double as locale keys of their labels and as statistics keys.
const (
	BtnCalendar   = "button_calendar"
	BtnHelp       = "button_help"
	BtnLanguage   = "button_language"
	BtnAdminMenu  = "button_admin_menu"
	BtnCreate     = "button_create_event"
	BtnWeek       = "button_week_events"
	BtnDelete     = "button_delete_event"
	BtnBack       = "button_back"
	BtnStats      = "button_stats"
	BtnBroadcast  = "button_broadcast"
	BtnBackToMain = "button_back_to_main"

	callbackDelete = "event_delete"
)

// Register adds the bot's commands, buttons and callbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	b.reg = reg

	reg.RegisterCommand("/start", commands.Command{
		Handler: b.start, Description: "Start the bot", StatKey: "command_start",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler: b.leaveFlow(b.help), Description: "Show help", StatKey: BtnHelp,
	})
	reg.RegisterCommand("/calendar", commands.Command{
		Handler: b.leaveFlow(b.calendarMenu), Description: "Open the calendar menu", StatKey: "command_calendar",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler: b.leaveFlow(b.stats), Description: "Usage statistics", AdminOnly: true, StatKey: BtnStats,
	})
	reg.RegisterCommand("/broadcast", commands.Command{
		Handler: b.leaveFlow(b.startBroadcast), Description: "Message all users", AdminOnly: true, StatKey: BtnBroadcast,
	})

	buttons := []struct {
		key string
		btn commands.Button
	}{
		{BtnCalendar, commands.Button{Handler: b.calendarMenu}},
		{BtnHelp, commands.Button{Handler: b.help}},
		{BtnLanguage, commands.Button{Handler: b.startLanguage}},
		{BtnAdminMenu, commands.Button{Handler: b.adminMenu, AdminOnly: true}},
		{BtnCreate, commands.Button{Handler: b.startCreate, AdminOnly: true}},
		{BtnWeek, commands.Button{Handler: b.weekEvents}},
		{BtnDelete, commands.Button{Handler: b.startDelete, AdminOnly: true}},
		{BtnBack, commands.Button{Handler: b.back, Cancels: true}},
		{BtnStats, commands.Button{Handler: b.stats, AdminOnly: true}},
		{BtnBroadcast, commands.Button{Handler: b.startBroadcast, AdminOnly: true}},
		{BtnBackToMain, commands.Button{Handler: b.back, Cancels: true}},
	}
	for _, e := range buttons {
		if err := reg.RegisterButton(e.key, e.btn); err != nil {
			return fmt.Errorf("register %s: %w", e.key, err)
		}
	}

	if err := reg.RegisterCallback(callbackDelete, b.deleteFromCallback); err != nil {
		return err
	}
	reg.SetCallbackNotFound(b.unknownCallback)
	reg.SetTextFallback(b.showMainMenu)
	return nil
}
