package main

import (
	"context"
	"log"

	"connector_runner/internal/modules/alerts"
	"connector_runner/internal/modules/candles"
	"connector_runner/internal/modules/config"
	"connector_runner/internal/modules/connector"
	"connector_runner/internal/modules/postgres"
	"connector_runner/internal/modules/reconciler"
	"connector_runner/pkg/logger"
	"connector_runner/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		candles.Module(),
		alerts.Module(),
		connector.Module(),
		reconciler.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			logger.SetServiceName(cfg.Service.Name)
			tracing.SetServiceName(cfg.Service.Name)

			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
