package pg

import (
	"context"
	"fmt"
	"time"

	"connector_runner/internal/models"
	"connector_runner/pkg/db"
)

// Accounts implement db store
type Accounts struct {
	db *db.PgTxManager
}

// NewAccounts instance
func NewAccounts(manager *db.PgTxManager) *Accounts {
	return &Accounts{
		db: manager,
	}
}

func (a *Accounts) GetStatus(ctx context.Context, accountID string) (status models.AccountStatus, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Accounts.GetStatus: %w", err)
		}
	}()

	row := a.db.Conn().QueryRow(ctx,
		`SELECT status FROM user_exchange_accs WHERE id = $1;`, accountID)
	err = row.Scan(&status)
	return status, err
}

// StaleBalanceAccounts returns enabled accounts whose balance snapshot is
// missing or older than the cutoff.
func (a *Accounts) StaleBalanceAccounts(ctx context.Context, olderThan time.Time) (accounts []string, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Accounts.StaleBalanceAccounts: %w", err)
		}
	}()

	rows, err := a.db.Conn().Query(ctx, `
		SELECT id
		  FROM user_exchange_accs
		 WHERE status = 'enabled'
		   AND (balances->>'updatedAt' IS NULL
		    OR (balances->>'updatedAt')::timestamptz < $1);`, olderThan)
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
