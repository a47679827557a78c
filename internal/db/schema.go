package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id           TEXT PRIMARY KEY,
		display_name      TEXT NOT NULL,
		cash              BIGINT NOT NULL DEFAULT 0 CHECK (cash >= 0),
		savings           BIGINT NOT NULL DEFAULT 0 CHECK (savings >= 0),
		total_earned      BIGINT NOT NULL DEFAULT 0,
		level             INT NOT NULL DEFAULT 1,
		experience        BIGINT NOT NULL DEFAULT 0,
		checkin_streak    INT NOT NULL DEFAULT 0,
		total_checkins    INT NOT NULL DEFAULT 0,
		last_checkin_date DATE,
		last_work_time    TIMESTAMPTZ,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS bank_transactions (
		id             BIGSERIAL PRIMARY KEY,
		tx_group_id    UUID NOT NULL,
		user_id        TEXT NOT NULL REFERENCES accounts(user_id),
		type           TEXT NOT NULL,
		amount         BIGINT NOT NULL CHECK (amount > 0),
		balance_before BIGINT NOT NULL,
		balance_after  BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_tx_user_type_time
		ON bank_transactions (user_id, type, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_tx_group
		ON bank_transactions (tx_group_id)`,

	`CREATE TABLE IF NOT EXISTS work_records (
		id           BIGSERIAL PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES accounts(user_id),
		job_name     TEXT NOT NULL,
		base_salary  BIGINT NOT NULL,
		bonus        BIGINT NOT NULL,
		total_earned BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_work_user_time
		ON work_records (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_work_user_job_time
		ON work_records (user_id, job_name, created_at)`,

	`CREATE TABLE IF NOT EXISTS checkin_records (
		id               BIGSERIAL PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES accounts(user_id),
		checkin_date     DATE NOT NULL,
		reward_amount    BIGINT NOT NULL,
		consecutive_days INT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, checkin_date)
	)`,

	`CREATE TABLE IF NOT EXISTS robbery_records (
		id         BIGSERIAL PRIMARY KEY,
		robber_id  TEXT NOT NULL REFERENCES accounts(user_id),
		victim_id  TEXT NOT NULL REFERENCES accounts(user_id),
		success    BOOLEAN NOT NULL,
		amount     BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_robbery_robber_time
		ON robbery_records (robber_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_robbery_victim_time
		ON robbery_records (victim_id, created_at)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
