package pg

import (
	"context"
	"fmt"

	"connector_runner/internal/models"
	"connector_runner/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Queue implement db store
type Queue struct {
	db *db.PgTxManager
}

// NewQueue instance
func NewQueue(manager *db.PgTxManager) *Queue {
	return &Queue{
		db: manager,
	}
}

// Get returns the execution queue entry keyed by the account id, or nil when
// no entry exists.
func (q *Queue) Get(ctx context.Context, id string) (entry *models.QueueEntry, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Queue.Get: %w", err)
		}
	}()

	row := q.db.Conn().QueryRow(ctx, `
		SELECT id, type, user_ex_acc_id, state, remove_on_complete, remove_on_fail, updated_at
		  FROM connector_queue
		 WHERE id = $1;`, id)

	var e models.QueueEntry
	err = row.Scan(&e.ID, &e.Type, &e.UserExAccID, &e.State,
		&e.RemoveOnComplete, &e.RemoveOnFail, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Add inserts the entry if and only if no entry with the same id exists.
// The primary key makes the insert-if-absent atomic: a concurrent insert for
// the same account loses the conflict and degrades to a no-op, which is
// exactly the admission rule.
func (q *Queue) Add(ctx context.Context, entry models.QueueEntry) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Queue.Add: %w", err)
		}
	}()

	_, err = q.db.Conn().Exec(ctx, `
		INSERT INTO connector_queue
			(id, type, user_ex_acc_id, state, remove_on_complete, remove_on_fail, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO NOTHING;`,
		entry.ID, entry.Type, entry.UserExAccID, entry.State,
		entry.RemoveOnComplete, entry.RemoveOnFail,
	)
	return err
}

// Remove deletes a terminal entry. The state guard keeps a concurrently
// re-activated entry from being deleted; deleting a row that is already gone
// is not an error.
func (q *Queue) Remove(ctx context.Context, id string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Queue.Remove: %w", err)
		}
	}()

	_, err = q.db.Conn().Exec(ctx, `
		DELETE FROM connector_queue
		 WHERE id = $1
		   AND state IN ('completed', 'failed', 'stuck');`, id)
	return err
}
