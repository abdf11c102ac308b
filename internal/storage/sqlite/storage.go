package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/connectaword/internal/model"
	"github.com/mcoot/connectaword/internal/storage"
)

// Config holds SQLite connection settings
type Config struct {
	// Path is the database file; ":memory:" keeps everything in process
	Path string
	// BusyTimeoutMs is how long a writer waits on a locked database
	BusyTimeoutMs int
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path:          "connectaword.db",
		BusyTimeoutMs: 5000,
	}
}

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (creating if missing) the database and applies the schema
func New(ctx context.Context, cfg Config) (*Storage, error) {
	dsn := cfg.Path
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on", cfg.Path, cfg.BusyTimeoutMs)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, host_id, language, word_source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			host_id = excluded.host_id,
			language = excluded.language,
			word_source = excluded.word_source,
			created_at = excluded.created_at`,
		room.ID, room.Name, room.HostID, room.Language, room.WordSource, room.CreatedAt.UTC())
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, host_id, language, word_source, created_at
		FROM rooms WHERE id = ?`, id)

	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRoomNotFound
	}
	return room, err
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host_id, language, word_source, created_at
		FROM rooms ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (*model.Room, error) {
	var room model.Room
	if err := row.Scan(&room.ID, &room.Name, &room.HostID, &room.Language, &room.WordSource, &room.CreatedAt); err != nil {
		return nil, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	return &room, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, rating, games_played)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			rating = excluded.rating,
			games_played = excluded.games_played`,
		user.ID, user.Username, user.Rating, user.GamesPlayed)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, rating, games_played FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Username, &user.Rating, &user.GamesPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetRatingStats(ctx context.Context, ids []model.UserID) (map[model.UserID]model.RatingStats, error) {
	stats := make(map[model.UserID]model.RatingStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rating, games_played FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id model.UserID
		var st model.RatingStats
		if err := rows.Scan(&id, &st.Rating, &st.GamesPlayed); err != nil {
			return nil, err
		}
		stats[id] = st
	}
	return stats, rows.Err()
}

func (s *Storage) ApplyNewRatings(ctx context.Context, ratings map[model.UserID]int) error {
	if len(ratings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE users SET rating = ?, games_played = games_played + 1 WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for id, rating := range ratings {
		if _, err := stmt.ExecContext(ctx, rating, id); err != nil {
			return fmt.Errorf("update rating for %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Credential operations

func (s *Storage) CreateCredentials(ctx context.Context, creds *model.Credentials) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (email, user_id, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		creds.Email, creds.UserID, creds.PasswordHash, creds.CreatedAt.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrEmailTaken
	}
	return nil
}

func (s *Storage) GetCredentials(ctx context.Context, email string) (*model.Credentials, error) {
	var creds model.Credentials
	err := s.db.QueryRowContext(ctx, `
		SELECT email, user_id, password_hash, created_at FROM credentials WHERE email = ?`, email).
		Scan(&creds.Email, &creds.UserID, &creds.PasswordHash, &creds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	creds.CreatedAt = creds.CreatedAt.UTC()
	return &creds, nil
}

// Catalog operations

func (s *Storage) SaveCatalog(ctx context.Context, lang model.Language, entries []model.WordEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM word_entries WHERE language = ?`, lang); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO catalogs (language) VALUES (?)`, lang); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO word_entries (language, position, id, word, length, form, frequency, dialect)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, lang, i, e.ID, e.Word, e.Length, e.Form, e.Frequency, e.Dialect); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) GetCatalog(ctx context.Context, lang model.Language) ([]model.WordEntry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM catalogs WHERE language = ?`, lang).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCatalogNotLoaded
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, word, length, form, frequency, dialect
		FROM word_entries WHERE language = ? ORDER BY position`, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.WordEntry{}
	for rows.Next() {
		var e model.WordEntry
		if err := rows.Scan(&e.ID, &e.Word, &e.Length, &e.Form, &e.Frequency, &e.Dialect); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
