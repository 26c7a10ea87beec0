package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/groupcal/calbot/core/logger"
	"github.com/groupcal/calbot/core/telegram/format"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/core/telegram/keyboard"
	"github.com/groupcal/calbot/internal/calendar"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"

	tele "gopkg.in/telebot.v4"
)

const (
	dayLayout          = "02.01.2006"
	// Telegram limits callback data to 64 bytes.
	maxCallbackPayload = 48
	inlineSummaryRunes = 24
)

// start resets any flow and greets the user by role.
func (b *Bot) start(c tele.Context) error {
	b.states.Clear(senderID(c))
	if b.isAdmin(c) {
		if err := tghelpers.SendText(c, b.t(c, "welcome_admin_start")); err != nil {
			return err
		}
		return b.showMainMenu(c)
	}
	if err := tghelpers.SendText(c, b.t(c, "welcome_student_start")); err != nil {
		return err
	}
	if err := b.weekEvents(c); err != nil {
		return err
	}
	return b.showMainMenu(c)
}

// leaveFlow drops an unfinished flow before navigating elsewhere.
func (b *Bot) leaveFlow(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		id := senderID(c)
		if b.states.Active(id) {
			logger.Debug(tghelpers.BuildContext(c), "bot", "flow.abandoned",
				slog.String("state", string(b.states.State(id))))
			b.states.Clear(id)
		}
		return next(c)
	}
}

func (b *Bot) showMainMenu(c tele.Context) error {
	return tghelpers.SendText(c, b.t(c, "main_menu"), b.mainKeyboard(c))
}

func (b *Bot) help(c tele.Context) error {
	key := "help_student"
	if b.isAdmin(c) {
		key = "help_admin"
	}
	return tghelpers.SendText(c, b.t(c, key), b.mainKeyboard(c))
}

func (b *Bot) calendarMenu(c tele.Context) error {
	return tghelpers.SendText(c, b.t(c, "calendar_menu"), b.calendarKeyboard(c))
}

func (b *Bot) adminMenu(c tele.Context) error {
	return tghelpers.SendText(c, b.t(c, "admin_menu"), b.adminKeyboard(c))
}

// back cancels the active flow, if any, and returns to the main menu.
func (b *Bot) back(c tele.Context) error {
	id := senderID(c)
	prev := b.states.State(id)
	if b.states.Active(id) {
		if _, err := b.states.Transition(tghelpers.BuildContext(c), id, conversation.EventCancel, nil); err != nil {
			b.states.Clear(id)
		}
	}
	if prev == conversation.WaitingBroadcastMessage {
		if err := tghelpers.SendText(c, b.t(c, "broadcast_cancelled")); err != nil {
			return err
		}
	}
	return b.showMainMenu(c)
}

// weekEvents lists the coming events. Admins get an inline delete button per event.
func (b *Bot) weekEvents(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	events, err := b.calendar.ListEvents(ctx, b.weekDays)
	if err != nil {
		logger.Warn(ctx, "bot", "week.list_failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, b.t(c, "week_events_failed"))
	}
	window := i18n.Args{"days": b.weekDays}
	if len(events) == 0 {
		return tghelpers.SendText(c, i18n.Format(b.t(c, "week_events_empty"), window))
	}

	lang := b.lang(c)
	noDesc := format.V2(b.catalog.Text(lang, "no_description"))
	var sb strings.Builder
	sb.WriteString(format.V2(i18n.Format(b.catalog.Text(lang, "week_events_header"), window)))
	for _, ev := range events {
		desc := noDesc
		if strings.TrimSpace(ev.Description) != "" {
			desc = format.V2(ev.Description)
		}
		sb.WriteString(i18n.Format(b.catalog.Text(lang, "week_events_item"), i18n.Args{
			"summary":        format.V2(ev.Summary),
			"formatted_time": format.V2(b.when(ev)),
			"description":    desc,
			"event_id":       format.V2Code(ev.ID),
		}))
	}
	if !b.isAdmin(c) {
		return tghelpers.SendMDV2(c, sb.String())
	}
	return tghelpers.SendMDV2(c, sb.String(), b.deleteButtons(lang, events))
}

func (b *Bot) when(ev calendar.Event) string {
	if ev.AllDay {
		return ev.Start.Format(dayLayout)
	}
	return ev.Start.In(b.loc).Format(conversation.DisplayLayout)
}

func (b *Bot) deleteButtons(lang string, events []calendar.Event) *tele.ReplyMarkup {
	label := b.catalog.Text(lang, "button_delete_inline")
	rows := make([][]keyboard.InlineBtn, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" || len(ev.ID) > maxCallbackPayload {
			continue
		}
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   label + " " + truncate(ev.Summary, inlineSummaryRunes),
			Unique: callbackDelete,
			Data:   ev.ID,
		}})
	}
	if len(rows) == 0 {
		return nil
	}
	return keyboard.InlineButtonsRows(rows...)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// stats renders click counters, labelled in the admin's language.
func (b *Bot) stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	rows, err := b.users.Statistics(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return tghelpers.SendText(c, b.t(c, "stats_empty"), b.adminKeyboard(c))
	}

	lang := b.lang(c)
	var sb strings.Builder
	sb.WriteString(format.V2(b.catalog.Text(lang, "stats_header")))
	for _, row := range rows {
		name := row.ButtonKey
		if text, ok := b.catalog.Lookup(lang, row.ButtonKey); ok {
			name = text
		}
		sb.WriteString(i18n.Format(b.catalog.Text(lang, "stats_item"), i18n.Args{
			"handler_name": format.V2Code(name),
			"count":        strconv.FormatInt(row.ClickCount, 10),
		}))
	}
	return tghelpers.SendMDV2(c, sb.String(), b.adminKeyboard(c))
}

func (b *Bot) unknownCallback(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: b.t(c, "feature_unavailable")})
}

// transition runs event and tells the user to finish the current flow when
// the move is not allowed from their step.
func (b *Bot) transition(c tele.Context, event string, data map[string]any) (bool, error) {
	ctx := tghelpers.BuildContext(c)
	if _, err := b.states.Transition(ctx, senderID(c), event, data); err != nil {
		logger.Debug(ctx, "bot", "flow.transition_rejected",
			slog.String("event", event),
			slog.String("err", err.Error()),
		)
		return false, tghelpers.SendText(c, b.t(c, "flow_in_progress"))
	}
	return true, nil
}

// finish ends the flow before its side effect runs.
func (b *Bot) finish(ctx context.Context, userID int64) {
	if _, err := b.states.Transition(ctx, userID, conversation.EventDone, nil); err != nil {
		b.states.Clear(userID)
	}
}
