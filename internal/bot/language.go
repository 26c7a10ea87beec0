package bot

import (
	"log/slog"
	"strings"

	"github.com/groupcal/calbot/core/logger"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) startLanguage(c tele.Context) error {
	if ok, err := b.transition(c, conversation.EventStartLanguage, nil); !ok {
		return err
	}
	return tghelpers.SendText(c, b.t(c, "choose_language"), b.languageKeyboard(c))
}

// stepLanguage matches the pressed language name and stores the choice.
func (b *Bot) stepLanguage(c tele.Context) error {
	lang, ok := b.catalog.LanguageByName(strings.TrimSpace(c.Text()))
	if !ok {
		return tghelpers.SendText(c, b.t(c, "unknown_language"), b.languageKeyboard(c))
	}
	ctx := tghelpers.BuildContext(c)
	user, err := b.users.SetLanguage(ctx, senderID(c), lang.Code)
	if err != nil {
		return err
	}
	b.setUser(c, user)
	b.finish(ctx, user.ID)
	logger.Info(ctx, "bot", "language.changed", slog.String("lang", lang.Code))

	return tghelpers.SendText(c, i18n.Format(b.t(c, "language_changed"), i18n.Args{
		"language_name": lang.Name,
	}), b.mainKeyboard(c))
}
