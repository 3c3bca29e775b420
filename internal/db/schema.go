package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// incomes and expenses stay two separate tables on purpose: they share a
// shape but are independent ledgers, queried and charted separately.
//
// users.email carries a unique index. The signup flow does an existence
// check first, but the index is the only guard that actually holds under
// two concurrent signups with the same email.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS incomes (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		description TEXT NOT NULL,
		date        DATE NOT NULL,
		amount      DOUBLE PRECISION NOT NULL,
		category    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		description TEXT NOT NULL,
		date        DATE NOT NULL,
		amount      DOUBLE PRECISION NOT NULL,
		category    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS incomes_user_id_idx ON incomes (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS expenses_user_id_idx ON expenses (user_id, created_at)`,
}

// EnsureSchema creates the tables on startup. user_id on the entry tables is
// deliberately not a foreign key; ownership is an application convention.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
