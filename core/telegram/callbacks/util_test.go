package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name          string
		cb            *tele.Callback
		key, payload  string
	}{
		{"nil", nil, "", ""},
		{"raw", &tele.Callback{Data: "\fevent_delete|abc123"}, "event_delete", "abc123"},
		{"raw without payload", &tele.Callback{Data: "\fevent_delete"}, "event_delete", ""},
		{"payload with separator", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
		{"resolved", &tele.Callback{Unique: "event_delete", Data: "xyz"}, "event_delete", "xyz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.payload, payload)
		})
	}
}
