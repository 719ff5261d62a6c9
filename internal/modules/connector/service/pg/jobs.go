package pg

import (
	"context"
	"fmt"
	"time"

	"connector_runner/internal/models"
	"connector_runner/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ConnectorJobs implement db store
type ConnectorJobs struct {
	db *db.PgTxManager
}

// NewConnectorJobs instance
func NewConnectorJobs(manager *db.PgTxManager) *ConnectorJobs {
	return &ConnectorJobs{
		db: manager,
	}
}

// Create persists the intent record. Records accumulate independently of
// dispatch; the execution worker drains them in (priority, nextJobAt) order.
func (j *ConnectorJobs) Create(ctx context.Context, job *models.ConnectorJob) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ConnectorJobs.Create: %w", err)
		}
	}()

	var data []byte
	if job.Data != nil {
		data, err = sonic.Marshal(job.Data)
		if err != nil {
			return err
		}
	}
	_, err = j.db.Conn().Exec(ctx, `
		INSERT INTO connector_jobs
			(id, user_ex_acc_id, order_id, next_job_at, priority, type, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		job.ID, job.UserExAccID, job.OrderID, job.NextJobAt,
		int(job.Priority), job.Type, data,
	)
	return err
}

// IdleAccounts returns the distinct enabled accounts that have a persisted
// job due for dispatch.
func (j *ConnectorJobs) IdleAccounts(ctx context.Context, now time.Time) (accounts []string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ConnectorJobs.IdleAccounts: %w", err)
		}
	}()

	rows, err := j.db.Conn().Query(ctx, `
		SELECT DISTINCT cj.user_ex_acc_id
		  FROM connector_jobs cj
		  JOIN user_exchange_accs uea ON uea.id = cj.user_ex_acc_id
		 WHERE uea.status = 'enabled'
		   AND cj.next_job_at <= $1;`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		accounts = append(accounts, id)
	}
	return accounts, rows.Err()
}

// NextJob returns the account's most urgent due record, or nil when none is
// due. This is the drain order the execution worker services.
func (j *ConnectorJobs) NextJob(ctx context.Context, accountID string) (job *models.ConnectorJob, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ConnectorJobs.NextJob: %w", err)
		}
	}()

	row := j.db.Conn().QueryRow(ctx, `
		SELECT id, user_ex_acc_id, order_id, next_job_at, priority, type, data
		  FROM connector_jobs
		 WHERE user_ex_acc_id = $1
		   AND next_job_at <= now()
		 ORDER BY priority, next_job_at
		 LIMIT 1;`, accountID)

	var (
		res models.ConnectorJob
		raw []byte
	)
	err = row.Scan(&res.ID, &res.UserExAccID, &res.OrderID, &res.NextJobAt,
		&res.Priority, &res.Type, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err = sonic.Unmarshal(raw, &res.Data); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// Delete removes a consumed record.
func (j *ConnectorJobs) Delete(ctx context.Context, id string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ConnectorJobs.Delete: %w", err)
		}
	}()

	_, err = j.db.Conn().Exec(ctx, `DELETE FROM connector_jobs WHERE id = $1;`, id)
	return err
}
