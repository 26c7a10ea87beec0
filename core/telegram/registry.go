package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/groupcal/calbot/core/logger"
	"github.com/groupcal/calbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// LabelFunc returns the display label of a button key in a language.
type LabelFunc func(lang, key string) string

// Registry holds bot commands, reply-keyboard buttons and callbacks.
type Registry struct {
	commands map[string]commands.Command

	buttons     map[string]commands.Button
	buttonOrder []string
	labelsMu    sync.RWMutex
	labels      map[string]map[string]string // lang -> label -> key

	callbacks        map[string]tele.HandlerFunc
	callbacksMu      sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		buttons:   make(map[string]commands.Button),
		labels:    make(map[string]map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds a new command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("command", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("command", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("command", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu, optionally without hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand finds a command by name or alias and returns its canonical key.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterButton binds a handler to a button key. Registration must finish
// before the first MatchButton call.
func (r *Registry) RegisterButton(key string, btn commands.Button) error {
	if key == "" || btn.Handler == nil {
		return errors.New("invalid button registration")
	}
	if _, exists := r.buttons[key]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.button.duplicate",
			slog.String("button", key),
		)
		return fmt.Errorf("button already registered: %s", key)
	}
	r.buttons[key] = btn
	r.buttonOrder = append(r.buttonOrder, key)
	return nil
}

// ButtonKeys lists button keys in registration order.
func (r *Registry) ButtonKeys() []string {
	return append([]string(nil), r.buttonOrder...)
}

// MatchButton resolves text against the labels of every button in lang.
// The label index of a language is built on first use and reused afterwards.
func (r *Registry) MatchButton(lang, text string, label LabelFunc) (string, commands.Button, bool) {
	if text == "" || label == nil {
		return "", commands.Button{}, false
	}
	key, ok := r.labelIndex(lang, label)[text]
	if !ok {
		return "", commands.Button{}, false
	}
	return key, r.buttons[key], true
}

func (r *Registry) labelIndex(lang string, label LabelFunc) map[string]string {
	r.labelsMu.RLock()
	idx, ok := r.labels[lang]
	r.labelsMu.RUnlock()
	if ok {
		return idx
	}

	idx = make(map[string]string, len(r.buttonOrder))
	for _, key := range r.buttonOrder {
		text := label(lang, key)
		if text == "" {
			continue
		}
		if prev, dup := idx[text]; dup {
			logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.button.label_clash",
				slog.String("lang", lang),
				slog.String("button", key),
				slog.String("kept", prev),
			)
			continue
		}
		idx[text] = key
	}

	r.labelsMu.Lock()
	defer r.labelsMu.Unlock()
	if existing, ok := r.labels[lang]; ok {
		return existing
	}
	r.labels[lang] = idx
	return idx
}

// RegisterCallback adds a callback handler mapped to its unique key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.skip",
			slog.String("cb_key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback safely returns handler by key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted keys (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches nothing.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands as the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
