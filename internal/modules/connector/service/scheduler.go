package service

import (
	"context"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/config"
	"connector_runner/pkg/logger"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

type AccountStore interface {
	GetStatus(ctx context.Context, accountID string) (models.AccountStatus, error)
}

type JobStore interface {
	Create(ctx context.Context, job *models.ConnectorJob) error
}

// ExecutionQueue is the shared dispatch queue. Add must be an atomic
// insert-if-absent on the entry id; a losing insert is a no-op, never an
// error. That is the only concurrency control across replicas.
type ExecutionQueue interface {
	Get(ctx context.Context, id string) (*models.QueueEntry, error)
	Add(ctx context.Context, entry models.QueueEntry) error
	Remove(ctx context.Context, id string) error
}

// Scheduler admits at most one in-flight execution job per exchange account.
type Scheduler struct {
	accounts AccountStore
	jobs     JobStore
	queue    ExecutionQueue

	removeOnFail int
}

func NewScheduler(cfg *config.Config, accounts AccountStore, jobs JobStore, queue ExecutionQueue) *Scheduler {
	return &Scheduler{
		accounts:     accounts,
		jobs:         jobs,
		queue:        queue,
		removeOnFail: cfg.RemoveOnFailCount,
	}
}

// QueueJob enqueues one execution entry keyed by the account id. If an entry
// is already waiting or active the call is a no-op. A terminal entry is
// removed first; when that removal fails the whole attempt is aborted and
// left to the next idle scan, without inserting anything.
func (s *Scheduler) QueueJob(ctx context.Context, accountID string, jobType models.QueueJobType) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "connector.queueJob")
	defer span.Finish()

	status, err := s.accounts.GetStatus(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "get account status")
	}
	if status != models.AccountStatusEnabled {
		logger.Info("account %s is %s, skipping %s dispatch", accountID, status, jobType)
		return nil
	}

	entry, err := s.queue.Get(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "get queue entry")
	}
	if entry != nil {
		if !entry.State.Terminal() {
			// invariant already satisfied
			return nil
		}
		if err := s.queue.Remove(ctx, accountID); err != nil {
			// fail-open: the next idle scan retries this account
			logger.Warn("failed to remove %s queue entry for account %s: %v", entry.State, accountID, err)
			return nil
		}
	}

	err = s.queue.Add(ctx, models.QueueEntry{
		ID:               accountID,
		Type:             jobType,
		UserExAccID:      accountID,
		State:            models.QueueStateWaiting,
		RemoveOnComplete: true,
		RemoveOnFail:     s.removeOnFail,
	})
	if err != nil {
		return errors.Wrap(err, "enqueue")
	}
	return nil
}

// AddConnectorJob persists the job record and then requests dispatch. The
// record is written first so that a crash between the two steps is always
// recoverable by the idle scan.
func (s *Scheduler) AddConnectorJob(ctx context.Context, job *models.ConnectorJob) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "connector.addConnectorJob")
	defer span.Finish()

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return errors.Wrap(err, "persist connector job")
	}

	return s.QueueJob(ctx, job.UserExAccID, models.QueueJobOrder)
}
