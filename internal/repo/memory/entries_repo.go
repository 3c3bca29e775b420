package memory

import (
	"context"
	"sync"

	"github.com/spendsmart/spendsmart/internal/domain/ledger"
)

// EntriesRepo keeps both ledgers in process memory. Used by tests and for
// running the API without Postgres.
type EntriesRepo struct {
	mu    sync.RWMutex
	items map[ledger.Kind][]ledger.Entry
}

func NewEntriesRepo() *EntriesRepo {
	return &EntriesRepo{
		items: map[ledger.Kind][]ledger.Entry{
			ledger.KindIncome:  {},
			ledger.KindExpense: {},
		},
	}
}

func (r *EntriesRepo) Insert(ctx context.Context, kind ledger.Kind, e ledger.Entry) error {
	r.mu.Lock()
	r.items[kind] = append(r.items[kind], e)
	r.mu.Unlock()

	return nil
}

func (r *EntriesRepo) ListByUser(ctx context.Context, kind ledger.Kind, userID string) ([]ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// append order is insertion order, matching the postgres repo
	output := make([]ledger.Entry, 0)

	for _, e := range r.items[kind] {
		if e.UserID == userID {
			output = append(output, e)
		}
	}

	return output, nil
}
