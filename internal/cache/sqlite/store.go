// Package sqlite implements the local event and profile cache on an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dtroode/sportify-server/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions:
// 1 - events and profiles tables
// 2 - index on events.synced_at for pruning
const currentSchemaVersion = 2

var (
	_ model.EventCache   = (*Store)(nil)
	_ model.ProfileCache = (*Store)(nil)
)

// Store is the local cache. Rows carry the instant they were last written
// from a successful remote read.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	// single writer avoids SQLITE_BUSY between overlapping reconciliations
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return New(db), nil
}

// New wraps an already initialized database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_synced_at ON events(synced_at)`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

const upsertEventQuery = `INSERT OR REPLACE INTO events
	(id, event_name, sport_type, location, date, time, participants, description, event_image, owner_id, registered_users, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// UpsertEvent replaces the row of event.ID with the given snapshot.
func (s *Store) UpsertEvent(ctx context.Context, event model.Event) error {
	args, err := s.eventArgs(event)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertEventQuery, args...); err != nil {
		return fmt.Errorf("failed to upsert event %s: %w", event.ID, err)
	}
	return nil
}

// UpsertEvents replaces the rows of all events in a single transaction.
func (s *Store) UpsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertEventQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		args, err := s.eventArgs(event)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert event %s: %w", event.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upserts: %w", err)
	}
	return nil
}

// QueryEvents returns cached rows matching filter ordered by date and time.
func (s *Store) QueryEvents(ctx context.Context, filter model.EventFilter) ([]model.CachedEvent, error) {
	var (
		where []string
		args  []any
	)
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return nil, nil
		}
		where = append(where, "id IN ("+strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.SportType != "" {
		where = append(where, "sport_type = ?")
		args = append(args, filter.SportType)
	}
	if !filter.SyncedAfter.IsZero() {
		where = append(where, "synced_at >= ?")
		args = append(args, filter.SyncedAfter.UnixMilli())
	}

	query := `SELECT id, event_name, sport_type, location, date, time, participants, description,
		event_image, owner_id, registered_users, synced_at FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, time ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []model.CachedEvent
	for rows.Next() {
		var (
			e          model.CachedEvent
			registered string
			syncedAt   int64
		)
		err := rows.Scan(&e.ID, &e.Name, &e.SportType, &e.Location, &e.Date, &e.Time, &e.Participants,
			&e.Description, &e.Picture, &e.OwnerID, &registered, &syncedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		if err := json.Unmarshal([]byte(registered), &e.RegisteredUsers); err != nil {
			return nil, fmt.Errorf("failed to decode registered users of %s: %w", e.ID, err)
		}
		e.SyncedAt = time.UnixMilli(syncedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// Prune evicts event and profile rows last synced before olderThan and
// returns the number of removed rows.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	cutoff := olderThan.UnixMilli()
	var total int64
	for _, table := range []string{"events", "profiles"} {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE synced_at < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

// GetProfile returns the cached user document. The boolean is false when no
// profile is cached.
func (s *Store) GetProfile(ctx context.Context, userID string) (model.User, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM profiles WHERE user_id = ?`, userID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}

	var u model.User
	if err := json.Unmarshal([]byte(blob), &u); err != nil {
		return model.User{}, false, fmt.Errorf("failed to decode profile %s: %w", userID, err)
	}
	u.ID = userID
	return u, true, nil
}

// SetProfile overwrites the whole cached blob of user.ID.
func (s *Store) SetProfile(ctx context.Context, user model.User) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", user.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO profiles (user_id, blob, synced_at) VALUES (?, ?, ?)`,
		user.ID, string(blob), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set profile %s: %w", user.ID, err)
	}
	return nil
}

func (s *Store) ClearProfile(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear profile %s: %w", userID, err)
	}
	return nil
}

func (s *Store) eventArgs(event model.Event) ([]any, error) {
	registered := event.RegisteredUsers
	if registered == nil {
		registered = []string{}
	}
	raw, err := json.Marshal(registered)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registered users of %s: %w", event.ID, err)
	}
	return []any{
		event.ID, event.Name, event.SportType, event.Location, event.Date, event.Time, event.Participants,
		event.Description, event.Picture, event.OwnerID, string(raw), s.now().UnixMilli(),
	}, nil
}
