package i18n

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLanguages = []Language{{Code: "ru", Name: "Русский"}, {Code: "en", Name: "English"}}

func testCatalog() *Catalog {
	return NewCatalog("ru", testLanguages, map[string]map[string]string{
		"ru": {"hello": "Привет", "only_ru": "Только"},
		"en": {"hello": "Hello"},
	})
}

type fakeSource map[int64]string

func (f fakeSource) Language(_ context.Context, id int64) (string, error) {
	lang, ok := f[id]
	if !ok {
		return "", errors.New("not found")
	}
	return lang, nil
}

func TestTextFallbackChain(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, "Hello", c.Text("en", "hello"))
	assert.Equal(t, "Только", c.Text("en", "only_ru"))
	assert.Equal(t, "Привет", c.Text("de", "hello"))
	assert.Equal(t, "no_such_key", c.Text("en", "no_such_key"))

	_, ok := c.Lookup("en", "no_such_key")
	assert.False(t, ok)
}

func TestResolverUsesUserLanguage(t *testing.T) {
	r := NewResolver(testCatalog(), fakeSource{1: "en", 2: "fr"})
	ctx := context.Background()
	assert.Equal(t, "Hello", r.Resolve(ctx, "hello", 1))
	assert.Equal(t, "Привет", r.Resolve(ctx, "hello", 2), "unloaded language falls back")
	assert.Equal(t, "Привет", r.Resolve(ctx, "hello", 3), "unknown user falls back")
}

func TestLanguageByNameIsCaseSensitive(t *testing.T) {
	c := testCatalog()
	l, ok := c.LanguageByName("English")
	require.True(t, ok)
	assert.Equal(t, "en", l.Code)
	_, ok = c.LanguageByName("english")
	assert.False(t, ok)
}

func TestLanguagesSkipUnloaded(t *testing.T) {
	c := NewCatalog("ru", append(testLanguages, Language{Code: "de", Name: "Deutsch"}), map[string]map[string]string{
		"ru": {}, "en": {},
	})
	assert.Equal(t, testLanguages, c.Languages())
	_, ok := c.LanguageByName("Deutsch")
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	got := Format("Sent: {sent_count}, failed: {failed_count} {unknown}", Args{"sent_count": 3, "failed_count": 0})
	assert.Equal(t, "Sent: 3, failed: 0 {unknown}", got)
	assert.Equal(t, "plain", Format("plain", nil))
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"ru.yaml": {Data: []byte("hello: Привет\n")},
	}
	c, err := Load(fsys, "ru", testLanguages)
	require.NoError(t, err)
	assert.True(t, c.Has("ru"))
	assert.False(t, c.Has("en"))

	_, err = Load(fstest.MapFS{}, "ru", testLanguages)
	assert.Error(t, err)
}

func TestEmbeddedTablesShareKeys(t *testing.T) {
	c, err := Load(mustSub(t), "ru", testLanguages)
	require.NoError(t, err)
	for key := range c.tables["ru"] {
		_, ok := c.tables["en"][key]
		assert.True(t, ok, "en misses %s", key)
	}
	for key := range c.tables["en"] {
		_, ok := c.tables["ru"][key]
		assert.True(t, ok, "ru misses %s", key)
	}
}

func mustSub(t *testing.T) fs.FS {
	t.Helper()
	sub, err := fs.Sub(Locales, "locales")
	require.NoError(t, err)
	return sub
}
