package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order, once each, tracked in schema_migrations.
// The rest of the codebase assumes this schema exists and never branches
// on table or column presence.
var migrations = []string{
	// 1: subscribers
	`CREATE TABLE IF NOT EXISTS subscribers (
		id         BIGSERIAL PRIMARY KEY,
		mobile     TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		credit     NUMERIC(12,1) NOT NULL DEFAULT 0 CHECK (credit >= 0),
		verified   BOOLEAN NOT NULL DEFAULT FALSE,
		branch_id  INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 2: purchases
	`CREATE TABLE IF NOT EXISTS purchases (
		id              BIGSERIAL PRIMARY KEY,
		subscriber_id   BIGINT REFERENCES subscribers(id),
		mobile          TEXT NOT NULL,
		amount          BIGINT NOT NULL CHECK (amount > 0),
		branch_id       INT,
		sales_center_id INT,
		admin_mobile    TEXT NOT NULL DEFAULT '',
		active          SMALLINT NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 3: credit_usages
	`CREATE TABLE IF NOT EXISTS credit_usages (
		id            BIGSERIAL PRIMARY KEY,
		subscriber_id BIGINT REFERENCES subscribers(id),
		mobile        TEXT NOT NULL,
		amount        NUMERIC(12,1) NOT NULL CHECK (amount > 0),
		admin_mobile  TEXT NOT NULL DEFAULT '',
		active        SMALLINT NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 4: pending_credits
	`CREATE TABLE IF NOT EXISTS pending_credits (
		id              BIGSERIAL PRIMARY KEY,
		subscriber_id   BIGINT NOT NULL REFERENCES subscribers(id),
		mobile          TEXT NOT NULL,
		purchase_id     BIGINT REFERENCES purchases(id),
		credit_amount   NUMERIC(12,1) NOT NULL CHECK (credit_amount > 0),
		branch_id       INT,
		sales_center_id INT,
		admin_mobile    TEXT NOT NULL DEFAULT '',
		active          SMALLINT NOT NULL DEFAULT 1,
		transferred     SMALLINT NOT NULL DEFAULT 0,
		transferred_at  TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (purchase_id, subscriber_id)
	)`,

	// 5: settlement scan index
	`CREATE INDEX IF NOT EXISTS idx_pending_credits_unsettled
		ON pending_credits (created_at) WHERE transferred = 0`,

	// 6: audit_log
	`CREATE TABLE IF NOT EXISTS audit_log (
		id               BIGSERIAL PRIMARY KEY,
		actor_mobile     TEXT NOT NULL,
		event            TEXT NOT NULL,
		transaction_kind TEXT NOT NULL DEFAULT '',
		transaction_id   BIGINT,
		amount           NUMERIC(14,1),
		reason           TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// 7: admins
	`CREATE TABLE IF NOT EXISTS admins (
		id            BIGSERIAL PRIMARY KEY,
		mobile        TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('manager','seller')),
		branch_id     INT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies all pending migrations. Safe to run from every binary
// at startup; concurrent callers serialize on a transaction-level
// advisory lock.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(427001)`); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := tx.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		log.Info().Int("version", version).Msg("Applied migration")
	}

	return tx.Commit()
}
