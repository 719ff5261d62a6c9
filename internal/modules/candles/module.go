package candles

import (
	"context"

	"connector_runner/internal/models"
	alerts "connector_runner/internal/modules/alerts/service"
	"connector_runner/internal/modules/candles/service"
	"connector_runner/internal/modules/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("candles",
		fx.Provide(
			service.NewClient, // *service.Client
			service.NewCache,  // *service.Cache
			func(c *service.Cache) alerts.CandleSource {
				return c
			},
		),

		// Feed the cache from the websocket stream.
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, client *service.Client, cache *service.Cache) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					var runCtx context.Context
					runCtx, cancel = context.WithCancel(context.Background())

					markets := make([]models.MarketKey, 0, len(cfg.Markets))
					for _, m := range cfg.Markets {
						markets = append(markets, models.MarketKey{
							Exchange:  m.Exchange,
							Asset:     m.Asset,
							Currency:  m.Currency,
							Timeframe: m.Timeframe,
						})
					}

					stream := client.StreamCandles(runCtx, markets)
					go func() {
						for candle := range stream {
							cache.Put(candle)
						}
					}()
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
