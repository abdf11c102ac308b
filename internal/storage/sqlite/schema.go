package sqlite

// schema is applied on open; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		host_id     TEXT NOT NULL,
		language    TEXT NOT NULL,
		word_source TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms (created_at)`,
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		username     TEXT NOT NULL,
		rating       INTEGER NOT NULL DEFAULT 1500,
		games_played INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS credentials (
		email         TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users (id),
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS word_entries (
		language  TEXT NOT NULL,
		position  INTEGER NOT NULL,
		id        INTEGER NOT NULL,
		word      TEXT NOT NULL,
		length    INTEGER NOT NULL,
		form      TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		dialect   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (language, position)
	)`,
	`CREATE TABLE IF NOT EXISTS catalogs (
		language TEXT PRIMARY KEY
	)`,
}
