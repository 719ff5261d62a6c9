package reconciler

import (
	"context"

	connector "connector_runner/internal/modules/connector/service"
	connectorpg "connector_runner/internal/modules/connector/service/pg"
	"connector_runner/internal/modules/reconciler/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("reconciler",
		// Adapters: connector repos and scheduler -> reconciler interfaces
		fx.Provide(
			func(s *connector.Scheduler) service.JobScheduler {
				return s
			},
			func(j *connectorpg.ConnectorJobs) service.IdleJobStore {
				return j
			},
			func(a *connectorpg.Accounts) service.StaleBalanceStore {
				return a
			},
			service.NewReconciler, // *service.Reconciler
		),

		// Two independent sweeps with no ordering dependency; both stop
		// cleanly on shutdown.
		fx.Invoke(func(lc fx.Lifecycle, r *service.Reconciler) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var runCtx context.Context
					runCtx, cancel = context.WithCancel(context.Background())
					go r.RunIdleScan(runCtx)
					go r.RunBalanceScan(runCtx)
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
