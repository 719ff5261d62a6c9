package service

import (
	"sort"
	"strconv"
	"time"

	"connector_runner/internal/models"
	"connector_runner/internal/modules/config"
	"connector_runner/pkg/logger"
)

// Evaluator decides which pending alerts fire against the latest closed
// candle. It holds no shared state; callers must serialize evaluations per
// market tuple.
type Evaluator struct {
	gapTolerance time.Duration

	now func() time.Time
}

func NewEvaluator(cfg *config.Config) *Evaluator {
	return &Evaluator{
		gapTolerance: cfg.CandleGapTolerance,
		now:          time.Now,
	}
}

// Evaluate checks every position with a non-empty alerts map. All positions
// must share the market key; candle is the latest ingested candle for that
// key or nil when none arrived yet. A candle older than the last closed
// period is treated as absent, so a stalled feed reads as a data gap rather
// than as current prices.
//
// Alert keys are visited in ascending numeric order and scanning stops at
// the first alert that fires, so the lowest key wins a tie. A position with
// an unrecognized order type or action is logged and excluded; the batch
// never aborts.
func (e *Evaluator) Evaluate(key models.MarketKey, positions []models.RobotPosition, candle *models.Candle) ([]models.Trigger, error) {
	now := e.now().UTC()
	expected := key.PeriodStart(now)
	if candle != nil && candle.Time < expected.Add(-key.Duration()).UnixMilli() {
		candle = nil
	}
	if candle == nil {
		if now.Sub(expected) < e.gapTolerance {
			// data simply not arrived yet
			return nil, nil
		}
		return nil, &DataGapError{Key: key, ExpectedStart: expected}
	}

	var triggered []models.Trigger
	for _, position := range positions {
		if len(position.Alerts) == 0 {
			continue
		}
		for _, alertKey := range sortedAlertKeys(position.Alerts) {
			alert := position.Alerts[alertKey]
			_, fired, err := checkAlert(alert, candle)
			if err != nil {
				failure := &UnknownAlertTypeError{RobotID: position.RobotID, Key: alertKey, Cause: err}
				logger.Error("skipping position: %v", failure)
				break
			}
			if fired {
				triggered = append(triggered, models.Trigger{
					RobotID: position.RobotID,
					Status:  position.Status,
				})
				break
			}
		}
	}

	return triggered, nil
}

// sortedAlertKeys orders the numeric string keys ascending. Keys that fail
// to parse sort after all numeric ones.
func sortedAlertKeys(alerts map[string]models.AlertInfo) []string {
	keys := make([]string, 0, len(alerts))
	for k := range alerts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		if aErr != nil || bErr != nil {
			if aErr == nil {
				return true
			}
			if bErr == nil {
				return false
			}
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}
