package alerts

import (
	"context"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/alerts/service"
	"connector_runner/internal/modules/alerts/service/pg"
	"connector_runner/pkg/logger"

	"go.uber.org/fx"
)

func newTriggersChan() chan models.Trigger {
	return make(chan models.Trigger, 4096)
}
func asSendOnlyTriggers(ch chan models.Trigger) chan<- models.Trigger { return ch }
func asRecvOnlyTriggers(ch chan models.Trigger) <-chan models.Trigger { return ch }

func Module() fx.Option {
	return fx.Module("alerts",
		fx.Provide(
			newTriggersChan,
			asSendOnlyTriggers,
			asRecvOnlyTriggers,
			pg.NewPositions, // *pg.Positions
			func(p *pg.Positions) service.PositionStore {
				return p
			},
			service.NewEvaluator, // *service.Evaluator
			service.NewChecker,   // *service.Checker
		),

		// Evaluation loop through Lifecycle.
		fx.Invoke(func(lc fx.Lifecycle, checker *service.Checker) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var runCtx context.Context
					runCtx, cancel = context.WithCancel(context.Background())
					go checker.Run(runCtx)
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

		// The signal pipeline consuming triggers lives outside this service;
		// here they are only surfaced in the log.
		fx.Invoke(func(lc fx.Lifecycle, triggers <-chan models.Trigger) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var runCtx context.Context
					runCtx, cancel = context.WithCancel(context.Background())
					go logTriggers(runCtx, triggers)
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

func logTriggers(ctx context.Context, triggers <-chan models.Trigger) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			logger.Info("alert triggered for robot %s (%s)", t.RobotID, t.Status)
		}
	}
}
