package connector

import (
	"context"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/connector/service"
	"connector_runner/internal/modules/connector/service/pg"
	"connector_runner/pkg/logger"

	"go.uber.org/fx"
)

func newJobRequestsChan() chan models.ConnectorJobRequest {
	return make(chan models.ConnectorJobRequest, 1024)
}
func asSendOnlyJobRequests(ch chan models.ConnectorJobRequest) chan<- models.ConnectorJobRequest {
	return ch
}
func asRecvOnlyJobRequests(ch chan models.ConnectorJobRequest) <-chan models.ConnectorJobRequest {
	return ch
}

func Module() fx.Option {
	return fx.Module("connector",
		// 1. Repositories
		fx.Provide(
			pg.NewConnectorJobs, // *pg.ConnectorJobs
			pg.NewAccounts,      // *pg.Accounts
			pg.NewQueue,         // *pg.Queue
		),

		// 2. Adapters: repos -> scheduler interfaces
		fx.Provide(
			func(j *pg.ConnectorJobs) service.JobStore {
				return j
			},
			func(a *pg.Accounts) service.AccountStore {
				return a
			},
			func(q *pg.Queue) service.ExecutionQueue {
				return q
			},
		),

		// 3. Scheduler and the upstream request channel
		fx.Provide(
			service.NewScheduler, // *service.Scheduler
			newJobRequestsChan,
			asSendOnlyJobRequests,
			asRecvOnlyJobRequests,
		),

		// Drain upstream order-lifecycle events into AddConnectorJob.
		fx.Invoke(func(
			lc fx.Lifecycle,
			s *service.Scheduler,
			requests <-chan models.ConnectorJobRequest,
		) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var runCtx context.Context
					runCtx, cancel = context.WithCancel(context.Background())
					go drainJobRequests(runCtx, s, requests)
					return nil
				},
				OnStop: func(_ context.Context) error {
					if cancel != nil {
						cancel()
					}
					return nil
				},
			})
		}),
	)
}

type jobSink interface {
	AddConnectorJob(ctx context.Context, job *models.ConnectorJob) error
}

func drainJobRequests(ctx context.Context, sink jobSink, requests <-chan models.ConnectorJobRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			job := &models.ConnectorJob{
				UserExAccID: req.UserExAccID,
				OrderID:     req.OrderID,
				NextJobAt:   req.NextJobAt,
				Priority:    req.Priority,
				Type:        req.Type,
				Data:        req.Data,
			}
			if err := sink.AddConnectorJob(ctx, job); err != nil {
				logger.Error("add connector job for account %s: %v", req.UserExAccID, err)
			}
		}
	}
}
