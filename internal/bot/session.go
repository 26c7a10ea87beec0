package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groupcal/calbot/core/logger"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

const userKey = "calbot.user"

type sessionUserKey struct{}

var errNoSession = errors.New("bot: no session for update")

// sessionLanguages answers language lookups from the user cached in the
// request context, so a single update reads the users table once.
type sessionLanguages struct{}

func (sessionLanguages) Language(ctx context.Context, userID int64) (string, error) {
	u, ok := ctx.Value(sessionUserKey{}).(storage.User)
	if !ok || u.ID != userID {
		return "", errNoSession
	}
	return u.LanguageCode, nil
}

// Session registers the sender on first contact and caches the user for the
// handlers. Queries go through the pool, so no connection is held while a
// handler waits on the calendar or on Telegram.
func (b *Bot) Session(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return b.missingIdentity(c)
		}
		ctx := tghelpers.BuildContext(c)

		user, created, err := b.users.GetOrCreateUser(ctx, sender.ID, b.catalog.Default())
		if err != nil {
			return fmt.Errorf("load user %d: %w", sender.ID, err)
		}
		if created {
			logger.Info(ctx, "bot", "user.registered",
				slog.Int64("user_id", user.ID),
				slog.String("lang", user.LanguageCode),
			)
		}
		b.setUser(c, user)
		return next(c)
	}
}

func (b *Bot) missingIdentity(c tele.Context) error {
	logger.Warn(tghelpers.BuildContext(c), "bot", "update.no_sender")
	if c.Chat() == nil {
		return nil
	}
	return tghelpers.SendText(c, b.catalog.Text(b.catalog.Default(), "error_user_id_not_found"))
}

func (b *Bot) setUser(c tele.Context, u storage.User) {
	c.Set(userKey, u)
	tghelpers.StoreContext(c, context.WithValue(tghelpers.BuildContext(c), sessionUserKey{}, u))
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// lang is the effective language of the sender.
func (b *Bot) lang(c tele.Context) string {
	return b.resolver.Language(tghelpers.BuildContext(c), senderID(c))
}

// t resolves key in the sender's language.
func (b *Bot) t(c tele.Context, key string) string {
	return b.resolver.Resolve(tghelpers.BuildContext(c), key, senderID(c))
}

func (b *Bot) recordClick(c tele.Context, key string) error {
	return b.users.IncrementClick(tghelpers.BuildContext(c), key)
}

// OnLimited answers a throttled update in the default language.
func (b *Bot) OnLimited(c tele.Context) error {
	if c.Chat() == nil {
		return nil
	}
	return tghelpers.Notify(c, b.catalog.Text(b.catalog.Default(), "throttled"))
}

func (b *Bot) rejectNonAdmin(c tele.Context) error {
	logger.Info(tghelpers.BuildContext(c), "bot", "access.denied", slog.Int64("user_id", senderID(c)))
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: b.t(c, "feature_unavailable")})
	}
	return tghelpers.SendText(c, b.t(c, "feature_unavailable"), b.mainKeyboard(c))
}
