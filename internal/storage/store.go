// Package storage is the user directory and click statistics store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groupcal/calbot/core/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// User is a bot user and their interface language.
type User struct {
	ID           int64  `db:"id"`
	LanguageCode string `db:"language_code"`
}

// ButtonStatistic is the click counter of one button key.
type ButtonStatistic struct {
	ButtonKey  string `db:"button_key"`
	ClickCount int64  `db:"click_count"`
}

// Querier is the part of *sqlx.DB and *sqlx.Conn the store needs.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Store runs directory queries against q. Queries use ? placeholders and are
// rebound for the driver.
type Store struct {
	q Querier
}

// New returns a Store over q.
func New(q Querier) *Store {
	return &Store{q: q}
}

// GetUser returns the user with id or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	var u User
	err := s.q.GetContext(ctx, &u, s.q.Rebind(`SELECT id, language_code FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetOrCreateUser returns the user, inserting it with defaultLang when absent.
// created is true only for the call whose insert added the row, so concurrent
// first messages of one user create a single record.
func (s *Store) GetOrCreateUser(ctx context.Context, id int64, defaultLang string) (User, bool, error) {
	u, err := s.GetUser(ctx, id)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}

	res, err := s.q.ExecContext(ctx,
		s.q.Rebind(`INSERT INTO users (id, language_code) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`),
		id, defaultLang)
	if err != nil {
		return User{}, false, fmt.Errorf("create user %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	u, err = s.GetUser(ctx, id)
	if err != nil {
		return User{}, false, err
	}
	if n > 0 {
		logger.Info(ctx, "storage", "user.created",
			slog.Int64("user_id", id),
			slog.String("lang", defaultLang),
		)
	}
	return u, n > 0, nil
}

// SetLanguage stores code for the user and returns the updated record.
func (s *Store) SetLanguage(ctx context.Context, id int64, code string) (User, error) {
	res, err := s.q.ExecContext(ctx, s.q.Rebind(`UPDATE users SET language_code = ? WHERE id = ?`), code, id)
	if err != nil {
		return User{}, fmt.Errorf("set language of %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrNotFound
	}
	return User{ID: id, LanguageCode: code}, nil
}

// ListUsers returns every known user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.q.SelectContext(ctx, &users, `SELECT id, language_code FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// IncrementClick adds one click to key in a single upsert statement.
func (s *Store) IncrementClick(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("increment click: empty key")
	}
	_, err := s.q.ExecContext(ctx, s.q.Rebind(`
		INSERT INTO button_statistics (button_key, click_count) VALUES (?, 1)
		ON CONFLICT (button_key) DO UPDATE SET click_count = button_statistics.click_count + 1`), key)
	if err != nil {
		return fmt.Errorf("increment click %q: %w", key, err)
	}
	return nil
}

// Statistics returns all counters, most clicked first.
func (s *Store) Statistics(ctx context.Context) ([]ButtonStatistic, error) {
	var stats []ButtonStatistic
	err := s.q.SelectContext(ctx, &stats,
		`SELECT button_key, click_count FROM button_statistics ORDER BY click_count DESC, button_key`)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}
