package service

import (
	"context"
	"testing"
	"time"

	"connector_runner/internal/models"
	"connector_runner/pkg/logger"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

type queuedJob struct {
	accountID string
	jobType   models.QueueJobType
}

type fakeScheduler struct {
	queued  []queuedJob
	failFor map[string]error
}

func (f *fakeScheduler) QueueJob(_ context.Context, accountID string, jobType models.QueueJobType) error {
	if err := f.failFor[accountID]; err != nil {
		return err
	}
	f.queued = append(f.queued, queuedJob{accountID: accountID, jobType: jobType})
	return nil
}

type fakeIdleJobs struct {
	accounts []string
	err      error

	gotNow time.Time
}

func (f *fakeIdleJobs) IdleAccounts(_ context.Context, now time.Time) ([]string, error) {
	f.gotNow = now
	return f.accounts, f.err
}

type fakeBalanceAccounts struct {
	accounts []string
	err      error

	gotCutoff time.Time
}

func (f *fakeBalanceAccounts) StaleBalanceAccounts(_ context.Context, olderThan time.Time) ([]string, error) {
	f.gotCutoff = olderThan
	return f.accounts, f.err
}

func newTestReconciler(s *fakeScheduler, jobs *fakeIdleJobs, accounts *fakeBalanceAccounts, now time.Time) *Reconciler {
	return &Reconciler{
		idleInterval:    15 * time.Second,
		balanceInterval: 60 * time.Second,
		staleAfter:      50 * time.Minute,
		scheduler:       s,
		jobs:            jobs,
		accounts:        accounts,
		now:             func() time.Time { return now },
	}
}

func TestCheckIdleJobs_QueuesOrderJobs(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	scheduler := &fakeScheduler{}
	jobs := &fakeIdleJobs{accounts: []string{"acc-1", "acc-2"}}
	r := newTestReconciler(scheduler, jobs, &fakeBalanceAccounts{}, now)

	require.NoError(t, r.CheckIdleJobs(context.Background()))

	assert.Equal(t, now, jobs.gotNow)
	require.Len(t, scheduler.queued, 2)
	for _, q := range scheduler.queued {
		assert.Equal(t, models.QueueJobOrder, q.jobType)
	}
}

func TestCheckIdleJobs_OneAccountFailureDoesNotStopScan(t *testing.T) {
	scheduler := &fakeScheduler{failFor: map[string]error{"acc-2": errors.New("queue unreachable")}}
	jobs := &fakeIdleJobs{accounts: []string{"acc-1", "acc-2", "acc-3"}}
	r := newTestReconciler(scheduler, jobs, &fakeBalanceAccounts{}, time.Now())

	require.NoError(t, r.CheckIdleJobs(context.Background()))

	require.Len(t, scheduler.queued, 2)
	assert.Equal(t, "acc-1", scheduler.queued[0].accountID)
	assert.Equal(t, "acc-3", scheduler.queued[1].accountID)
}

func TestCheckIdleJobs_StoreError(t *testing.T) {
	jobs := &fakeIdleJobs{err: errors.New("pg down")}
	r := newTestReconciler(&fakeScheduler{}, jobs, &fakeBalanceAccounts{}, time.Now())

	assert.Error(t, r.CheckIdleJobs(context.Background()))
}

func TestCheckBalances_CutoffIsStaleAfterAgo(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	scheduler := &fakeScheduler{}
	accounts := &fakeBalanceAccounts{accounts: []string{"acc-1"}}
	r := newTestReconciler(scheduler, &fakeIdleJobs{}, accounts, now)

	require.NoError(t, r.CheckBalances(context.Background()))

	assert.Equal(t, now.Add(-50*time.Minute), accounts.gotCutoff)
	require.Len(t, scheduler.queued, 1)
	assert.Equal(t, models.QueueJobBalance, scheduler.queued[0].jobType)
}

func TestCheckBalances_NoStaleAccounts(t *testing.T) {
	scheduler := &fakeScheduler{}
	r := newTestReconciler(scheduler, &fakeIdleJobs{}, &fakeBalanceAccounts{}, time.Now())

	require.NoError(t, r.CheckBalances(context.Background()))
	assert.Empty(t, scheduler.queued)
}

func TestBalancesStale(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	fresh := now.Add(-40 * time.Minute)
	stale := now.Add(-51 * time.Minute)

	assert.False(t, models.Balances{UpdatedAt: &fresh}.Stale(now, 50*time.Minute))
	assert.True(t, models.Balances{UpdatedAt: &stale}.Stale(now, 50*time.Minute))
	// never refreshed counts as stale
	assert.True(t, models.Balances{}.Stale(now, 50*time.Minute))
}
