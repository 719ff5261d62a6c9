package models

import "time"

// MarketKey identifies one watched market tuple. All positions evaluated
// together share the same key.
type MarketKey struct {
	Exchange  string
	Asset     string
	Currency  string
	Timeframe int // minutes
}

func (k MarketKey) Duration() time.Duration {
	return time.Duration(k.Timeframe) * time.Minute
}

// PeriodStart returns the start of the current timeframe period, i.e. the
// time of the candle the evaluator expects to see.
func (k MarketKey) PeriodStart(now time.Time) time.Time {
	return now.UTC().Truncate(k.Duration())
}

func (k MarketKey) String() string {
	return k.Exchange + "-" + k.Asset + "-" + k.Currency
}

// Candle is immutable once ingested, identified by
// (exchange, asset, currency, timeframe, time).
type Candle struct {
	Exchange  string
	Asset     string
	Currency  string
	Timeframe int
	Time      int64 // period start, unix ms
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

func (c *Candle) Key() MarketKey {
	return MarketKey{
		Exchange:  c.Exchange,
		Asset:     c.Asset,
		Currency:  c.Currency,
		Timeframe: c.Timeframe,
	}
}
