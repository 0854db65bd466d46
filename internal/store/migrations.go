package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS domains (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	name               TEXT NOT NULL UNIQUE,
	verified           BOOLEAN NOT NULL DEFAULT FALSE,
	is_default         BOOLEAN NOT NULL DEFAULT FALSE,
	verification_token TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS domains_one_default_per_user
	ON domains (user_id) WHERE is_default;

CREATE TABLE IF NOT EXISTS links (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	domain_id       TEXT NOT NULL REFERENCES domains (id) ON DELETE CASCADE,
	slug            TEXT NOT NULL,
	destination_url TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	tags            TEXT[] NOT NULL DEFAULT '{}',
	clicks          BIGINT NOT NULL DEFAULT 0,
	password_hash   TEXT NOT NULL DEFAULT '',
	expires_at      TIMESTAMPTZ,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	utm_source      TEXT NOT NULL DEFAULT '',
	utm_medium      TEXT NOT NULL DEFAULT '',
	utm_campaign    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (domain_id, slug)
);

CREATE TABLE IF NOT EXISTS clicks (
	id          TEXT PRIMARY KEY,
	link_id     TEXT NOT NULL REFERENCES links (id) ON DELETE CASCADE,
	clicked_at  TIMESTAMPTZ NOT NULL,
	ip          TEXT NOT NULL,
	user_agent  TEXT NOT NULL DEFAULT '',
	referrer    TEXT NOT NULL DEFAULT 'direct',
	browser     TEXT NOT NULL DEFAULT 'unknown',
	os          TEXT NOT NULL DEFAULT 'unknown',
	device_type TEXT NOT NULL DEFAULT 'desktop',
	country     TEXT NOT NULL DEFAULT 'unknown',
	city        TEXT NOT NULL DEFAULT 'unknown',
	region      TEXT NOT NULL DEFAULT 'unknown'
);

CREATE INDEX IF NOT EXISTS clicks_link_id_clicked_at ON clicks (link_id, clicked_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS domains (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	name               TEXT NOT NULL UNIQUE,
	verified           INTEGER NOT NULL DEFAULT 0,
	is_default         INTEGER NOT NULL DEFAULT 0,
	verification_token TEXT NOT NULL DEFAULT '',
	created_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	domain_id       TEXT NOT NULL REFERENCES domains (id) ON DELETE CASCADE,
	slug            TEXT NOT NULL,
	destination_url TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '[]',
	clicks          INTEGER NOT NULL DEFAULT 0,
	password_hash   TEXT NOT NULL DEFAULT '',
	expires_at      INTEGER,
	is_active       INTEGER NOT NULL DEFAULT 1,
	utm_source      TEXT NOT NULL DEFAULT '',
	utm_medium      TEXT NOT NULL DEFAULT '',
	utm_campaign    TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	UNIQUE (domain_id, slug)
);

CREATE TABLE IF NOT EXISTS clicks (
	id          TEXT PRIMARY KEY,
	link_id     TEXT NOT NULL REFERENCES links (id) ON DELETE CASCADE,
	clicked_at  INTEGER NOT NULL,
	ip          TEXT NOT NULL,
	user_agent  TEXT NOT NULL DEFAULT '',
	referrer    TEXT NOT NULL DEFAULT 'direct',
	browser     TEXT NOT NULL DEFAULT 'unknown',
	os          TEXT NOT NULL DEFAULT 'unknown',
	device_type TEXT NOT NULL DEFAULT 'desktop',
	country     TEXT NOT NULL DEFAULT 'unknown',
	city        TEXT NOT NULL DEFAULT 'unknown',
	region      TEXT NOT NULL DEFAULT 'unknown'
);

CREATE INDEX IF NOT EXISTS clicks_link_id_clicked_at ON clicks (link_id, clicked_at);
`

// MigratePostgres applies the schema. It is safe to run repeatedly.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}

	return nil
}

// MigrateSQLite applies the schema. It is safe to run repeatedly.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	return nil
}
