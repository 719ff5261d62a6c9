package service

import (
	"fmt"
	"time"

	"connector_runner/internal/models"
)

// DataGapError means the current-timeframe candle is missing beyond the
// configured tolerance. Other market tuples are unaffected.
type DataGapError struct {
	Key           models.MarketKey
	ExpectedStart time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("no current candle for %s-%d expected since %s",
		e.Key, e.Key.Timeframe, e.ExpectedStart.Format(time.RFC3339))
}

// UnknownAlertTypeError is fatal for one position only; the rest of the
// batch is still evaluated.
type UnknownAlertTypeError struct {
	RobotID string
	Key     string
	Cause   error
}

func (e *UnknownAlertTypeError) Error() string {
	return fmt.Sprintf("robot %s alert %q: %v", e.RobotID, e.Key, e.Cause)
}

func (e *UnknownAlertTypeError) Unwrap() error { return e.Cause }
