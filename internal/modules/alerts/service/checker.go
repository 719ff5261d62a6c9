package service

import (
	"context"
	"time"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/config"
	"connector_runner/pkg/logger"
)

type CandleSource interface {
	Latest(key models.MarketKey) *models.Candle
}

type PositionStore interface {
	PositionsWithAlerts(ctx context.Context, key models.MarketKey) ([]models.RobotPosition, error)
}

// Checker periodically evaluates every watched market against the latest
// cached candle and publishes triggers. Each tuple is checked independently;
// a failure on one never stops the others.
type Checker struct {
	markets   []models.MarketKey
	interval  time.Duration
	eval      *Evaluator
	candles   CandleSource
	positions PositionStore
	out       chan<- models.Trigger
}

func NewChecker(
	cfg *config.Config,
	eval *Evaluator,
	candles CandleSource,
	positions PositionStore,
	out chan<- models.Trigger,
) *Checker {
	markets := make([]models.MarketKey, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		markets = append(markets, models.MarketKey{
			Exchange:  m.Exchange,
			Asset:     m.Asset,
			Currency:  m.Currency,
			Timeframe: m.Timeframe,
		})
	}
	return &Checker{
		markets:   markets,
		interval:  cfg.AlertCheckInterval,
		eval:      eval,
		candles:   candles,
		positions: positions,
		out:       out,
	}
}

func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, key := range c.markets {
				if err := c.checkMarket(ctx, key); err != nil {
					logger.Error("alert check %s-%d: %v", key, key.Timeframe, err)
				}
			}
		}
	}
}

func (c *Checker) checkMarket(ctx context.Context, key models.MarketKey) error {
	positions, err := c.positions.PositionsWithAlerts(ctx, key)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return nil
	}

	triggers, err := c.eval.Evaluate(key, positions, c.candles.Latest(key))
	if err != nil {
		return err
	}

	for _, trigger := range triggers {
		select {
		case c.out <- trigger:
		default:
			logger.Error("trigger channel full, drop robot %s", trigger.RobotID)
		}
	}
	return nil
}
