// Package app wires configuration, storage, the calendar gateway and the bot
// handlers into a runnable Telegram application.
package app

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	coreconfig "github.com/groupcal/calbot/core/config"
	coredatabase "github.com/groupcal/calbot/core/database"
	"github.com/groupcal/calbot/internal/calendar"
	"github.com/groupcal/calbot/internal/i18n"
)

// DefaultLanguage is used when i18n.default_language is unset.
const DefaultLanguage = "ru"

// CalendarConfig configures the Google Calendar provider.
type CalendarConfig struct {
	ClientID     string `yaml:"client_id" envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" envconfig:"GOOGLE_REDIRECT_URI"`
	CalendarID   string `yaml:"calendar_id" envconfig:"GOOGLE_CALENDAR_ID"`
	TimeZone     string `yaml:"time_zone" envconfig:"CALENDAR_TIME_ZONE"`
	// TokenFile stores the OAuth token between runs.
	TokenFile string `yaml:"token_file" envconfig:"GOOGLE_TOKEN_FILE" validate:"required"`
	// AuthCode is exchanged for a token once when TokenFile does not exist yet.
	AuthCode        string `yaml:"auth_code" envconfig:"GOOGLE_AUTH_CODE"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" envconfig:"CALENDAR_CACHE_TTL_SECONDS" validate:"gte=0"`
	WeekDays        int    `yaml:"week_days" envconfig:"CALENDAR_WEEK_DAYS" validate:"gte=0,lte=62"`
}

// I18nConfig lists the interface languages.
type I18nConfig struct {
	DefaultLanguage string          `yaml:"default_language" envconfig:"DEFAULT_LANGUAGE" validate:"required"`
	Languages       []i18n.Language `yaml:"languages" ignored:"true" validate:"min=1,dive"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Calendar CalendarConfig      `yaml:"calendar"`
	I18n     I18nConfig          `yaml:"i18n"`
}

// CoreConfig exposes the core section to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads the YAML file at path, overlays the environment, fills defaults
// and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return nil, err
	}
	setDefaults(&cfg)
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !hasLanguage(cfg.I18n.Languages, cfg.I18n.DefaultLanguage) {
		return nil, fmt.Errorf("i18n.default_language %q is not among i18n.languages", cfg.I18n.DefaultLanguage)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.I18n.DefaultLanguage = strings.TrimSpace(cfg.I18n.DefaultLanguage)
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = DefaultLanguage
	}
	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = []i18n.Language{
			{Code: "ru", Name: "Русский"},
			{Code: "en", Name: "English"},
		}
	}
	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = calendar.DefaultCalendarID
	}
	if cfg.Calendar.TimeZone == "" {
		cfg.Calendar.TimeZone = calendar.DefaultTimeZone
	}
	if cfg.Calendar.RedirectURL == "" {
		cfg.Calendar.RedirectURL = calendar.DefaultRedirectURL
	}
	if cfg.Calendar.CacheTTLSeconds == 0 {
		cfg.Calendar.CacheTTLSeconds = int(calendar.DefaultCacheTTL.Seconds())
	}
}

func hasLanguage(langs []i18n.Language, code string) bool {
	for _, l := range langs {
		if l.Code == code {
			return true
		}
	}
	return false
}
