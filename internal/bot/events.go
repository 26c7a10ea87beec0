package bot

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/groupcal/calbot/core/logger"
	"github.com/groupcal/calbot/core/telegram/callbacks"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/internal/calendar"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) startCreate(c tele.Context) error {
	if ok, err := b.transition(c, conversation.EventStartCreate, nil); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "create_event_name_prompt"), b.flowKeyboard(c, BtnBack))
}

func (b *Bot) stepEventName(c tele.Context) error {
	name := c.Text()
	if strings.TrimSpace(name) == "" {
		return tghelpers.SendText(c, b.t(c, "create_event_name_empty"))
	}
	if ok, err := b.transition(c, conversation.EventNameEntered, map[string]any{conversation.KeyName: name}); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "create_event_date_prompt"))
}

func (b *Bot) stepEventDate(c tele.Context) error {
	date, err := conversation.ParseDate(c.Text())
	if err != nil {
		return tghelpers.SendText(c, b.t(c, "create_event_date_invalid"))
	}
	if ok, err := b.transition(c, conversation.EventDateEntered, map[string]any{conversation.KeyDate: date}); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "create_event_time_prompt"))
}

func (b *Bot) stepEventTime(c tele.Context) error {
	hour, minute, err := conversation.ParseClock(c.Text())
	if err != nil {
		return tghelpers.SendText(c, b.t(c, "create_event_time_invalid"))
	}
	draft := conversation.DraftFrom(b.states.Get(senderID(c)))
	start := conversation.At(draft.Date, hour, minute, b.loc)
	if ok, err := b.transition(c, conversation.EventTimeEntered, map[string]any{conversation.KeyStart: start}); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "create_event_duration_prompt"))
}

func (b *Bot) stepEventDuration(c tele.Context) error {
	d, err := conversation.ParseDuration(c.Text())
	if err != nil {
		return tghelpers.SendText(c, b.t(c, "create_event_duration_invalid"))
	}
	draft := conversation.DraftFrom(b.states.Get(senderID(c)))
	if ok, err := b.transition(c, conversation.EventDurationEntered, map[string]any{conversation.KeyEnd: draft.Start.Add(d)}); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "create_event_description_prompt"))
}

// stepEventDescription submits the draft. The flow ends whatever the outcome.
func (b *Bot) stepEventDescription(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := senderID(c)
	draft := conversation.DraftFrom(b.states.Get(id))
	desc := conversation.Description(c.Text())
	b.finish(ctx, id)

	ev, err := b.calendar.CreateEvent(ctx, draft.Name, draft.Start, draft.End, desc)
	if err != nil {
		logger.Warn(ctx, "bot", "event.create_failed", slog.String("err", err.Error()))
		key := "create_event_failed"
		if errors.Is(err, calendar.ErrUnavailable) {
			key = "create_event_api_error"
		}
		return tghelpers.SendText(c, b.t(c, key), b.calendarKeyboard(c))
	}
	logger.Info(ctx, "bot", "event.created", slog.String("event_id", ev.ID))

	shown := ev.Description
	if shown == "" {
		shown = b.t(c, "no_description")
	}
	return tghelpers.SendText(c, i18n.Format(b.t(c, "create_event_success"), i18n.Args{
		"summary":     ev.Summary,
		"start_time":  ev.Start.In(b.loc).Format(conversation.DisplayLayout),
		"end_time":    ev.End.In(b.loc).Format(conversation.DisplayLayout),
		"description": shown,
	}), b.calendarKeyboard(c))
}

func (b *Bot) startDelete(c tele.Context) error {
	if ok, err := b.transition(c, conversation.EventStartDelete, nil); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "delete_event_prompt"), b.flowKeyboard(c, BtnBack))
}

func (b *Bot) stepDeleteID(c tele.Context) error {
	eventID := strings.TrimSpace(c.Text())
	if eventID == "" {
		return tghelpers.SendText(c, b.t(c, "delete_event_empty_id"))
	}
	b.finish(tghelpers.BuildContext(c), senderID(c))
	return tghelpers.SendMD(c, b.deleteEvent(c, eventID), b.calendarKeyboard(c))
}

// deleteFromCallback handles the inline delete button under the week list.
func (b *Bot) deleteFromCallback(c tele.Context) error {
	if !b.isAdmin(c) {
		return b.rejectNonAdmin(c)
	}
	eventID := callbacks.CallbackPayload(c)
	if eventID == "" {
		return c.Respond()
	}
	text := b.deleteEvent(c, eventID)
	if err := c.Respond(); err != nil {
		logger.Debug(tghelpers.BuildContext(c), "bot", "callback.respond_failed", slog.String("err", err.Error()))
	}
	return tghelpers.SendMD(c, text)
}

// deleteEvent removes eventID and returns the Markdown reply.
func (b *Bot) deleteEvent(c tele.Context, eventID string) string {
	ctx := tghelpers.BuildContext(c)
	// The id sits inside a code span, where only a backtick would break out.
	shownID := strings.ReplaceAll(eventID, "`", "")
	if err := b.calendar.DeleteEvent(ctx, eventID); err != nil {
		logger.Warn(ctx, "bot", "event.delete_failed",
			slog.String("event_id", eventID),
			slog.String("err", err.Error()),
		)
		return i18n.Format(b.t(c, "delete_event_failed"), i18n.Args{"event_id": shownID})
	}
	logger.Info(ctx, "bot", "event.deleted", slog.String("event_id", eventID))
	return i18n.Format(b.t(c, "delete_event_success"), i18n.Args{"event_id": shownID})
}
