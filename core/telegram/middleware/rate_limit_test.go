package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd    tele.Update
	values map[string]any
}

func message(from int64) *fakeContext {
	return &fakeContext{
		upd:    tele.Update{Message: &tele.Message{Sender: &tele.User{ID: from}, Chat: &tele.Chat{ID: from}}},
		values: map[string]any{},
	}
}

func callback(from int64) *fakeContext {
	return &fakeContext{
		upd:    tele.Update{Callback: &tele.Callback{Sender: &tele.User{ID: from}}},
		values: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update   { return f.upd }
func (f *fakeContext) Get(key string) any    { return f.values[key] }
func (f *fakeContext) Set(key string, v any) { f.values[key] = v }

func (f *fakeContext) Sender() *tele.User {
	if f.upd.Callback != nil {
		return f.upd.Callback.Sender
	}
	if f.upd.Message != nil {
		return f.upd.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func TestLimiterRejectionKeepsTimestamp(t *testing.T) {
	now := time.Unix(0, 0)
	l := NewLimiter(time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	now = now.Add(600 * time.Millisecond)
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "users are limited independently")

	// The rejected message at 600ms must not push the window forward.
	now = now.Add(400 * time.Millisecond)
	assert.True(t, l.Allow(1))
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(1))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	var handled, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Limiter:   NewLimiter(time.Hour),
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	assert.NoError(t, h(message(1)))
	assert.NoError(t, h(message(1)))
	assert.Equal(t, 1, handled)
	assert.Equal(t, 1, limited)

	assert.NoError(t, h(callback(1)))
	assert.Equal(t, 2, handled, "excluded update kinds bypass the limiter")
}

func TestUpdateKind(t *testing.T) {
	assert.Equal(t, "message", UpdateKind(message(1).upd))
	assert.Equal(t, "callback", UpdateKind(callback(1).upd))
	assert.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestAdminCheck(t *testing.T) {
	var rejected int
	opts := AdminOptions{
		AdminIDs: map[int64]struct{}{10: {}},
		OnReject: func(tele.Context) error { rejected++; return nil },
	}
	var ran int
	h := WithAdminCheck(opts, true, func(tele.Context) error { ran++; return nil })

	assert.NoError(t, h(message(10)))
	assert.NoError(t, h(message(11)))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, rejected)

	open := WithAdminCheck(opts, false, func(tele.Context) error { ran++; return nil })
	assert.NoError(t, open(message(11)))
	assert.Equal(t, 2, ran)

	assert.False(t, AdminOptions{}.IsAdmin(10), "an empty admin set grants nobody")
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(message(1))
	assert.ErrorContains(t, err, "boom")
}
