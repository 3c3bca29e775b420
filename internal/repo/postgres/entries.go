package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendsmart/spendsmart/internal/domain/ledger"
	"github.com/spendsmart/spendsmart/internal/observability"
)

// EntriesRepo serves both ledgers; the Kind picks the table. The two tables
// are identical in shape, so the SQL only differs in the relation name.
type EntriesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewEntriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *EntriesRepo {
	return &EntriesRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EntriesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func tableFor(kind ledger.Kind) string {
	if kind == ledger.KindIncome {
		return "incomes"
	}

	return "expenses"
}

func (r *EntriesRepo) Insert(ctx context.Context, kind ledger.Kind, e ledger.Entry) error {
	return r.observe("entries.insert", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO `+tableFor(kind)+` (id, user_id, description, date, amount, category, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, e.UserID, e.Description, e.Date, e.Amount, e.Category, e.CreatedAt,
		)

		return err
	})
}

// ListByUser returns every entry owned by userID in insertion order. The
// ledger has no pagination: a personal ledger stays small enough to chart
// in one response.
func (r *EntriesRepo) ListByUser(ctx context.Context, kind ledger.Kind, userID string) ([]ledger.Entry, error) {
	var output []ledger.Entry

	err := r.observe("entries.list_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, user_id, description, date, amount, category, created_at
			 FROM `+tableFor(kind)+`
			 WHERE user_id = $1
			 ORDER BY created_at ASC, id ASC`,
			userID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]ledger.Entry, 0)

		for rows.Next() {
			var e ledger.Entry

			err = rows.Scan(&e.ID, &e.UserID, &e.Description, &e.Date, &e.Amount, &e.Category, &e.CreatedAt)

			if err != nil {
				return err
			}

			output = append(output, e)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}
