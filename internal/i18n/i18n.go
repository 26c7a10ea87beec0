// Package i18n resolves localized bot texts from embedded YAML tables.
package i18n

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/groupcal/calbot/core/logger"
)

//go:embed locales/*.yaml
var Locales embed.FS

// Language is a supported interface language.
type Language struct {
	Code string `yaml:"code" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

// Catalog holds the loaded text tables. It is read-only after Load.
type Catalog struct {
	def       string
	languages []Language
	tables    map[string]map[string]string
}

// Load reads <code>.yaml from fsys for every language. The default table is
// required; other languages without a table are skipped with a warning.
func Load(fsys fs.FS, defaultLang string, languages []Language) (*Catalog, error) {
	tables := make(map[string]map[string]string, len(languages))
	for _, lang := range languages {
		data, err := fs.ReadFile(fsys, lang.Code+".yaml")
		if errors.Is(err, fs.ErrNotExist) && lang.Code != defaultLang {
			logger.Warn(logger.Background(), "i18n", "table.missing", slog.String("lang", lang.Code))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", lang.Code, err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", lang.Code, err)
		}
		tables[lang.Code] = table
	}
	if _, ok := tables[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is not configured", defaultLang)
	}
	return NewCatalog(defaultLang, languages, tables), nil
}

// NewCatalog builds a Catalog from in-memory tables.
func NewCatalog(defaultLang string, languages []Language, tables map[string]map[string]string) *Catalog {
	return &Catalog{def: defaultLang, languages: slices.Clone(languages), tables: tables}
}

// Default returns the default language code.
func (c *Catalog) Default() string { return c.def }

// Has reports whether a table for lang is loaded.
func (c *Catalog) Has(lang string) bool {
	_, ok := c.tables[lang]
	return ok
}

// Effective returns lang when its table is loaded, else the default language.
func (c *Catalog) Effective(lang string) string {
	if c.Has(lang) {
		return lang
	}
	return c.def
}

// Text returns the text for key in lang. A key missing in lang falls back to
// the default table, and a key missing there comes back verbatim.
func (c *Catalog) Text(lang, key string) string {
	if s, ok := c.tables[c.Effective(lang)][key]; ok {
		return s
	}
	if s, ok := c.tables[c.def][key]; ok {
		return s
	}
	logger.Warn(logger.Background(), "i18n", "key.missing",
		slog.String("lang", lang),
		slog.String("key", key),
	)
	return key
}

// Lookup is Text without the verbatim fallback: ok is false when no table has key.
func (c *Catalog) Lookup(lang, key string) (string, bool) {
	if s, ok := c.tables[c.Effective(lang)][key]; ok {
		return s, true
	}
	s, ok := c.tables[c.def][key]
	return s, ok
}

// Languages lists the loaded languages in configured order.
func (c *Catalog) Languages() []Language {
	out := make([]Language, 0, len(c.languages))
	for _, l := range c.languages {
		if c.Has(l.Code) {
			out = append(out, l)
		}
	}
	return out
}

// LanguageByName finds a loaded language by its exact display name.
func (c *Catalog) LanguageByName(name string) (Language, bool) {
	for _, l := range c.Languages() {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageSource returns the stored language of a user.
type LanguageSource interface {
	Language(ctx context.Context, userID int64) (string, error)
}

// Resolver maps (key, user) to a localized string.
type Resolver struct {
	catalog *Catalog
	source  LanguageSource
}

// NewResolver binds a catalog to the user directory.
func NewResolver(catalog *Catalog, source LanguageSource) *Resolver {
	return &Resolver{catalog: catalog, source: source}
}

// Language returns the effective language of userID. Lookup errors degrade
// to the default language.
func (r *Resolver) Language(ctx context.Context, userID int64) string {
	if r.source == nil {
		return r.catalog.def
	}
	lang, err := r.source.Language(ctx, userID)
	if err != nil {
		logger.Debug(ctx, "i18n", "language.lookup_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return r.catalog.def
	}
	return r.catalog.Effective(lang)
}

// Resolve returns the text for key in the language of userID.
func (r *Resolver) Resolve(ctx context.Context, key string, userID int64) string {
	return r.catalog.Text(r.Language(ctx, userID), key)
}

// Args are named placeholder values for Format.
type Args map[string]any

// Format replaces {name} placeholders with args. Unknown placeholders stay as is.
func Format(text string, args Args) string {
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
