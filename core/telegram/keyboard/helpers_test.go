package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtonsSkipsEmptyLabels(t *testing.T) {
	m := ReplyButtons([]string{"Calendar"}, []string{""}, []string{"Help", ""})
	assert.True(t, m.ResizeKeyboard)
	assert.False(t, m.OneTimeKeyboard)
	assert.Equal(t, [][]string{{"Calendar"}, {"Help"}}, Labels(m))
}

func TestOneTimeButtons(t *testing.T) {
	m := OneTimeButtons([]string{"English"}, []string{"Русский"})
	assert.True(t, m.OneTimeKeyboard)
	assert.Equal(t, [][]string{{"English"}, {"Русский"}}, Labels(m))
}

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows([]InlineBtn{{Text: "Delete", Unique: "event_delete", Data: "abc"}})
	require.Len(t, m.InlineKeyboard, 1)
	require.Len(t, m.InlineKeyboard[0], 1)
	assert.Equal(t, "Delete", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "event_delete", m.InlineKeyboard[0][0].Unique)
}
