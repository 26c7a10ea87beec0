// Package bot implements the group calendar bot's handlers on top of the core
// Telegram runtime.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	tg "github.com/groupcal/calbot/core/telegram"
	"github.com/groupcal/calbot/core/telegram/middleware"
	"github.com/groupcal/calbot/core/telegram/router"
	"github.com/groupcal/calbot/core/telegram/state"
	"github.com/groupcal/calbot/internal/calendar"
	"github.com/groupcal/calbot/internal/conversation"
	"github.com/groupcal/calbot/internal/i18n"
	"github.com/groupcal/calbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// DefaultWeekDays is the window of the week events list.
const DefaultWeekDays = 7

// Calendar is the calendar gateway used by the handlers.
type Calendar interface {
	ListEvents(ctx context.Context, days int) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, summary string, start, end time.Time, description string) (calendar.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Messenger delivers broadcast messages. *tele.Bot satisfies it.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Deps are the collaborators of Bot.
type Deps struct {
	DB       *sqlx.DB
	Catalog  *i18n.Catalog
	Calendar Calendar
	States   *state.Manager
	Admins   map[int64]struct{}
	Location *time.Location
	WeekDays int
}

// Bot holds handler dependencies. Handlers are safe for concurrent updates.
type Bot struct {
	users    *storage.Store
	catalog  *i18n.Catalog
	resolver *i18n.Resolver
	calendar Calendar
	states   *state.Manager
	admin    middleware.AdminOptions
	loc      *time.Location
	weekDays int
	reg      *tg.Registry

	mu        sync.RWMutex
	messenger Messenger
}

// New builds a Bot.
func New(d Deps) *Bot {
	if d.States == nil {
		d.States = conversation.NewManager()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.WeekDays <= 0 {
		d.WeekDays = DefaultWeekDays
	}
	b := &Bot{
		users:    storage.New(d.DB),
		catalog:  d.Catalog,
		resolver: i18n.NewResolver(d.Catalog, sessionLanguages{}),
		calendar: d.Calendar,
		states:   d.States,
		loc:      d.Location,
		weekDays: d.WeekDays,
	}
	b.admin = middleware.AdminOptions{AdminIDs: d.Admins, OnReject: b.rejectNonAdmin}
	return b
}

// SetMessenger sets the broadcast transport once the bot is running.
func (b *Bot) SetMessenger(m Messenger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messenger = m
}

func (b *Bot) getMessenger() Messenger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.messenger
}

// Hooks returns the admin check and click recorder shared by all routes.
func (b *Bot) Hooks() router.Hooks {
	return router.Hooks{Admin: b.admin, RecordClick: b.recordClick}
}

// Routes builds the command, text and callback routes for reg.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, b.Hooks())
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Hooks:    b.Hooks(),
		State:    b.states,
		Steps:    b.steps(),
		Language: b.lang,
		Label:    b.buttonLabel,
		Fallback: b.showMainMenu,
	})...)
	return append(routes, router.CallbackRoute(reg))
}

// Middlewares returns the bot's own middlewares, run after the core chain.
func (b *Bot) Middlewares() []tg.Middleware {
	return []tg.Middleware{{Name: "session", Use: b.Session}}
}

func (b *Bot) steps() state.Handlers {
	return state.Handlers{
		conversation.WaitingEventName:         b.stepEventName,
		conversation.WaitingEventDate:         b.stepEventDate,
		conversation.WaitingEventTime:         b.stepEventTime,
		conversation.WaitingEventDuration:     b.stepEventDuration,
		conversation.WaitingEventDescription:  b.stepEventDescription,
		conversation.WaitingEventIDToDelete:   b.stepDeleteID,
		conversation.WaitingLanguageSelection: b.stepLanguage,
		conversation.WaitingBroadcastMessage:  b.stepBroadcast,
	}
}

func (b *Bot) isAdmin(c tele.Context) bool {
	return b.admin.Allowed(c)
}

// buttonLabel is the registry label source; missing texts yield no label.
func (b *Bot) buttonLabel(lang, key string) string {
	s, _ := b.catalog.Lookup(lang, key)
	return s
}
