package service

import (
	"context"
	"time"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/config"
	"connector_runner/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

type JobScheduler interface {
	QueueJob(ctx context.Context, accountID string, jobType models.QueueJobType) error
}

type IdleJobStore interface {
	IdleAccounts(ctx context.Context, now time.Time) ([]string, error)
}

type StaleBalanceStore interface {
	StaleBalanceAccounts(ctx context.Context, olderThan time.Time) ([]string, error)
}

// Reconciler re-derives missing dispatches from persisted intent and from
// account staleness. Its two sweeps are independent and idempotent: when no
// account qualifies the qualifying query returns nothing and the queue is
// untouched.
type Reconciler struct {
	idleInterval    time.Duration
	balanceInterval time.Duration
	staleAfter      time.Duration

	scheduler JobScheduler
	jobs      IdleJobStore
	accounts  StaleBalanceStore

	now func() time.Time
}

func NewReconciler(
	cfg *config.Config,
	scheduler JobScheduler,
	jobs IdleJobStore,
	accounts StaleBalanceStore,
) *Reconciler {
	return &Reconciler{
		idleInterval:    cfg.IdleScanInterval,
		balanceInterval: cfg.BalanceScanInterval,
		staleAfter:      cfg.BalanceStaleAfter,
		scheduler:       scheduler,
		jobs:            jobs,
		accounts:        accounts,
		now:             time.Now,
	}
}

// RunIdleScan redrives dispatch for accounts with persisted jobs whose
// nextJobAt has passed.
func (r *Reconciler) RunIdleScan(ctx context.Context) {
	ticker := time.NewTicker(r.idleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.CheckIdleJobs(ctx); err != nil {
				logger.Error("failed to check idle connector jobs: %v", err)
			}
		}
	}
}

// RunBalanceScan requests balance refresh jobs for accounts whose balance
// snapshot went stale.
func (r *Reconciler) RunBalanceScan(ctx context.Context) {
	ticker := time.NewTicker(r.balanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.CheckBalances(ctx); err != nil {
				logger.Error("failed to check stale balances: %v", err)
			}
		}
	}
}

func (r *Reconciler) CheckIdleJobs(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reconciler.checkIdleJobs")
	defer span.Finish()

	accounts, err := r.jobs.IdleAccounts(ctx, r.now().UTC())
	if err != nil {
		return err
	}
	for _, accountID := range accounts {
		// one account's failure must not stop the scan
		if err := r.scheduler.QueueJob(ctx, accountID, models.QueueJobOrder); err != nil {
			logger.Error("idle scan: queue order job for account %s: %v", accountID, err)
		}
	}
	return nil
}

func (r *Reconciler) CheckBalances(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reconciler.checkBalances")
	defer span.Finish()

	cutoff := r.now().UTC().Add(-r.staleAfter)
	accounts, err := r.accounts.StaleBalanceAccounts(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, accountID := range accounts {
		if err := r.scheduler.QueueJob(ctx, accountID, models.QueueJobBalance); err != nil {
			logger.Error("balance scan: queue balance job for account %s: %v", accountID, err)
		}
	}
	return nil
}
