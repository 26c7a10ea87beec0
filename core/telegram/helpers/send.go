package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/groupcal/calbot/core/logger"
	"github.com/groupcal/calbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by Notify.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Notify sends a fire-and-forget notice through the async dispatcher with retries.
// Without a dispatcher, or when its queue rejects the job, it sends inline.
func Notify(c tele.Context, text string) error {
	run := func() error { return c.Send(text) }
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, "send.notice", "sendMessage", run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", "send.notice"),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) in order with other replies of the update.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, sendOptions("", markup))
}

// SendMD sends a message with legacy Markdown parse mode.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, sendOptions(tele.ModeMarkdown, markup))
}

// SendMDV2 sends a message with MarkdownV2 parse mode.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, sendOptions(tele.ModeMarkdownV2, markup))
}

func sendOptions(mode tele.ParseMode, markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: mode}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}
