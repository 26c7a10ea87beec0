package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupcal/calbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func labels(table map[string]map[string]string) LabelFunc {
	return func(lang, key string) string { return table[lang][key] }
}

func TestRegisterCommandRules(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "Help"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noop})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true, Aliases: []string{"s"}})

	assert.Len(t, reg.Commands(), 2)

	key, _, ok := reg.LookupCommand("s")
	require.True(t, ok)
	assert.Equal(t, "/stats", key)

	assert.Equal(t, []tele.Command{{Text: "start", Description: "Start"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 2)
}

func TestMatchButtonPerLanguage(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterButton("help", commands.Button{Handler: noop}))
	require.NoError(t, reg.RegisterButton("back", commands.Button{Handler: noop, Cancels: true}))
	require.Error(t, reg.RegisterButton("help", commands.Button{Handler: noop}))
	require.Error(t, reg.RegisterButton("empty", commands.Button{}))

	label := labels(map[string]map[string]string{
		"en": {"help": "Help", "back": "Back"},
		"ru": {"help": "Помощь", "back": "Назад"},
	})

	key, btn, ok := reg.MatchButton("ru", "Назад", label)
	require.True(t, ok)
	assert.Equal(t, "back", key)
	assert.True(t, btn.Cancels)

	_, _, ok = reg.MatchButton("en", "Назад", label)
	assert.False(t, ok, "labels of another language do not match")

	_, _, ok = reg.MatchButton("en", "", label)
	assert.False(t, ok)
	assert.Equal(t, []string{"help", "back"}, reg.ButtonKeys())
}

func TestMatchButtonLabelClashKeepsFirst(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterButton("back", commands.Button{Handler: noop}))
	require.NoError(t, reg.RegisterButton("back_to_main", commands.Button{Handler: noop}))

	key, _, ok := reg.MatchButton("en", "Back", func(string, string) string { return "Back" })
	require.True(t, ok)
	assert.Equal(t, "back", key)
}

func TestCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("b", noop))
	require.NoError(t, reg.RegisterCallback("a", noop))
	require.Error(t, reg.RegisterCallback("a", noop))
	require.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, reg.ListCallbacks())

	assert.NotNil(t, reg.CallbackNotFound())
	reg.SetCallbackNotFound(nil)
	assert.NotNil(t, reg.CallbackNotFound(), "nil keeps the previous fallback")
}
