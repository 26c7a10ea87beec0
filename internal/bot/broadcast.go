package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/groupcal/calbot/core/logger"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/core/telegram/sender"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"
	"github.com/groupcal/calbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

var errNoMessenger = errors.New("bot: broadcast transport not ready")

func (b *Bot) startBroadcast(c tele.Context) error {
	if ok, err := b.transition(c, conversation.EventStartBroadcast, nil); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "broadcast_prompt"), b.flowKeyboard(c, BtnBackToMain))
}

// stepBroadcast sends the admin's text to every known user. Text equal to a
// menu label is taken as a misplaced button press and leaves the flow open.
func (b *Bot) stepBroadcast(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return tghelpers.SendText(c, b.t(c, "broadcast_empty"))
	}
	if _, _, isButton := b.reg.MatchButton(b.lang(c), text, b.buttonLabel); isButton {
		return tghelpers.SendText(c, b.t(c, "broadcast_button_text_error"))
	}

	ctx := tghelpers.BuildContext(c)
	b.finish(ctx, senderID(c))

	users, err := b.users.ListUsers(ctx)
	if err != nil {
		return err
	}
	sent, failed := b.deliver(ctx, users, text)
	logger.Info(ctx, "bot", "broadcast.done",
		slog.Int("recipients", len(users)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	err = tghelpers.SendText(c, i18n.Format(b.t(c, "broadcast_complete"), i18n.Args{
		"sent_count":   sent,
		"failed_count": failed,
	}))
	if err != nil {
		return err
	}
	return b.showMainMenu(c)
}

// deliver sends text to users one by one as plain text; a failed recipient
// never stops the rest.
func (b *Bot) deliver(ctx context.Context, users []storage.User, text string) (sent, failed int) {
	m := b.getMessenger()
	for _, u := range users {
		var err error
		if m == nil {
			err = errNoMessenger
		} else {
			_, err = m.Send(&tele.User{ID: u.ID}, text)
		}
		if err != nil {
			failed++
			logger.Warn(ctx, "bot", "broadcast.send_failed",
				slog.Int64("to", u.ID),
				slog.String("class", sender.ClassifyError(err)),
				slog.String("err", err.Error()),
			)
			continue
		}
		sent++
	}
	return sent, failed
}
