// Package router turns registry entries into Telebot routes. It applies admin
// checks, click accounting and conversation dispatch in one place.
package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/groupcal/calbot/core/logger"
	tg "github.com/groupcal/calbot/core/telegram"
	"github.com/groupcal/calbot/core/telegram/commands"
	tghelpers "github.com/groupcal/calbot/core/telegram/helpers"
	"github.com/groupcal/calbot/core/telegram/middleware"
	"github.com/groupcal/calbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Hooks are shared by every route kind.
type Hooks struct {
	Admin middleware.AdminOptions
	// RecordClick counts a statistics key. Its error is logged and never
	// blocks the handler.
	RecordClick func(c tele.Context, key string) error
}

func (h Hooks) record(c tele.Context, key string) {
	if h.RecordClick == nil || key == "" {
		return
	}
	if err := h.RecordClick(c, key); err != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "stats.record_failed",
			slog.String("button", key),
			slog.String("err", err.Error()),
		)
	}
}

// wrapCommand checks access first; a rejected command is not counted.
func wrapCommand(cmd commands.Command, hooks Hooks) tele.HandlerFunc {
	inner := func(c tele.Context) error {
		hooks.record(c, cmd.StatKey)
		return cmd.Handler(c)
	}
	return middleware.WithAdminCheck(hooks.Admin, cmd.AdminOnly, inner)
}

// wrapButton counts the press once, before the access check.
func wrapButton(key string, btn commands.Button, hooks Hooks) tele.HandlerFunc {
	guarded := middleware.WithAdminCheck(hooks.Admin, btn.AdminOnly, btn.Handler)
	return func(c tele.Context) error {
		hooks.record(c, key)
		return guarded(c)
	}
}

// CommandRoutes binds every registered command and alias to its endpoint.
func CommandRoutes(reg *tg.Registry, hooks Hooks) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := commandHandler(name, def, hooks)
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: h})
		}
	}
	logger.TWire.Info("routes wired",
		slog.String("event", "wire.commands"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("buttons", len(reg.ButtonKeys())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func commandHandler(name string, def commands.Command, hooks Hooks) tele.HandlerFunc {
	wrapped := wrapCommand(def, hooks)
	handlerName := "command." + normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), func() error { return wrapped(c) },
			slog.String("command", name))
	}
}

// StateSource exposes the conversation step of a user.
type StateSource interface {
	State(userID int64) state.State
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	Hooks
	State StateSource
	Steps state.Handlers
	// Language returns the language used to match button labels.
	Language func(c tele.Context) string
	Label    tg.LabelFunc
	Fallback tele.HandlerFunc
}

// TextRoutes builds the OnText route. Resolution order: slash commands, the
// active conversation step (navigation buttons marked Cancels still apply),
// localized buttons, then the fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if strings.HasPrefix(text, "/") {
			name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
			if key, cmd, ok := reg.LookupCommand(name); ok {
				return commandHandler(key, cmd, opts.Hooks)(c)
			}
		}

		lang := ""
		if opts.Language != nil {
			lang = opts.Language(c)
		}
		btnKey, btn, matched := reg.MatchButton(lang, text, opts.Label)

		if st := currentState(c, opts.State); st != state.StateIdle {
			if matched && btn.Cancels {
				return runButton(c, btnKey, btn, opts.Hooks, start)
			}
			if step, ok := opts.Steps.Lookup(st); ok {
				return handleWithSummary(c, "state."+string(st), start, func() error { return step(c) },
					slog.String("state", string(st)))
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "state.no_handler", slog.String("state", string(st)))
		}

		if matched {
			return runButton(c, btnKey, btn, opts.Hooks, start)
		}

		fallback := opts.Fallback
		if fallback == nil {
			fallback = reg.TextFallback()
		}
		if fallback == nil {
			logHandlerSummary(c, "unknown_text", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "unknown_text", start, func() error { return fallback(c) })
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}

func runButton(c tele.Context, key string, btn commands.Button, hooks Hooks, start time.Time) error {
	wrapped := wrapButton(key, btn, hooks)
	return handleWithSummary(c, "button."+key, start, func() error { return wrapped(c) },
		slog.String("button", key))
}

func currentState(c tele.Context, src StateSource) state.State {
	if src == nil || c.Sender() == nil {
		return state.StateIdle
	}
	return src.State(c.Sender().ID)
}
