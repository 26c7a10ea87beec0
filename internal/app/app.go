package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/groupcal/calbot/core/bootstrap"
	"github.com/groupcal/calbot/core/logger"
	tg "github.com/groupcal/calbot/core/telegram"
	"github.com/groupcal/calbot/internal/bot"
	"github.com/groupcal/calbot/internal/calendar"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"
	"github.com/groupcal/calbot/migrations"
)

// App is a bootstrapped bot ready to run.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	bot      *bot.Bot
	registry *tg.Registry
}

// Bootstrap prepares logging, the database, translations and the calendar.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	a, err := build(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

func build(cfg *Config, db *sqlx.DB) (*App, error) {
	locales, err := fs.Sub(i18n.Locales, "locales")
	if err != nil {
		return nil, err
	}
	catalog, err := i18n.Load(locales, cfg.I18n.DefaultLanguage, cfg.I18n.Languages)
	if err != nil {
		return nil, err
	}

	provider, err := calendar.NewGoogleProvider(calendar.GoogleConfig{
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		RedirectURL:  cfg.Calendar.RedirectURL,
		CalendarID:   cfg.Calendar.CalendarID,
		TimeZone:     cfg.Calendar.TimeZone,
		TokenFile:    cfg.Calendar.TokenFile,
		AuthCode:     cfg.Calendar.AuthCode,
	}, tg.BuildHTTPClient())
	if err != nil {
		return nil, err
	}
	gateway := calendar.NewGateway(provider, calendar.GatewayOptions{
		TTL: time.Duration(cfg.Calendar.CacheTTLSeconds) * time.Second,
	})

	b := bot.New(bot.Deps{
		DB:       db,
		Catalog:  catalog,
		Calendar: gateway,
		States:   conversation.NewManager(),
		Admins:   cfg.AdminSet(),
		Location: provider.Location(),
		WeekDays: cfg.Calendar.WeekDays,
	})
	reg := tg.NewRegistry()
	if err := b.Register(reg); err != nil {
		return nil, fmt.Errorf("register handlers: %w", err)
	}

	logger.Info(logger.Background(), "app", "bootstrap.done",
		slog.String("default_lang", catalog.Default()),
		slog.Int("languages", len(catalog.Languages())),
		slog.Int("admins", len(cfg.Telegram.AdminIDs)),
		slog.String("calendar_tz", provider.Location().String()),
	)
	return &App{cfg: cfg, db: db, bot: b, registry: reg}, nil
}

// TelegramRunOptions assembles middlewares and routes for the runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, a.bot.OnLimited, a.bot.Middlewares()...),
		Routes:      a.bot.Routes(a.registry),
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			a.bot.SetMessenger(rt.Bot)
			return nil
		},
	}, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.db.Close()
}
