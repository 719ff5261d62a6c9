package service

import (
	"math"

	"connector_runner/internal/models"

	"github.com/pkg/errors"
)

// checkAlert applies the crossing rule for the alert's order type against the
// current candle. Returns the trigger price and whether the alert fired.
func checkAlert(alert models.AlertInfo, candle *models.Candle) (float64, bool, error) {
	switch alert.OrderType {
	case models.OrderTypeStop:
		return checkStop(alert.Action, alert.Price, candle)
	case models.OrderTypeLimit:
		return checkLimit(alert.Action, alert.Price, candle)
	case models.OrderTypeMarket:
		return checkMarket(alert.Action, alert.Price, candle)
	}
	return 0, false, errors.Errorf("unknown order type %s", alert.OrderType)
}

// checkStop fires when the candle range reaches or crosses the stop level in
// the breach direction for the action. Bounds are inclusive; a gap through
// the level still fires because the comparison is against high/low. The
// trigger price is clamped against the candle close.
func checkStop(action models.TradeAction, price float64, candle *models.Candle) (float64, bool, error) {
	switch action {
	case models.ActionLong, models.ActionCloseShort:
		if candle.High >= price {
			return math.Max(candle.Close, price), true, nil
		}
	case models.ActionShort, models.ActionCloseLong:
		if candle.Low <= price {
			return math.Min(candle.Close, price), true, nil
		}
	default:
		return 0, false, errors.Errorf("unknown action %s", action)
	}
	return 0, false, nil
}

// checkLimit fires when price is reached or bettered in the favorable
// direction for the action.
func checkLimit(action models.TradeAction, price float64, candle *models.Candle) (float64, bool, error) {
	switch action {
	case models.ActionLong, models.ActionCloseShort:
		if candle.High <= price {
			return math.Min(candle.Close, price), true, nil
		}
	case models.ActionShort, models.ActionCloseLong:
		if candle.Low >= price {
			return math.Max(candle.Close, price), true, nil
		}
	default:
		return 0, false, errors.Errorf("unknown action %s", action)
	}
	return 0, false, nil
}

// checkMarket fires unconditionally once evaluated (forced exits).
func checkMarket(action models.TradeAction, price float64, candle *models.Candle) (float64, bool, error) {
	switch action {
	case models.ActionLong, models.ActionCloseShort:
		return math.Max(candle.Close, price), true, nil
	case models.ActionShort, models.ActionCloseLong:
		return math.Min(candle.Close, price), true, nil
	}
	return 0, false, errors.Errorf("unknown action %s", action)
}
