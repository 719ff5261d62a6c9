package models

type OrderType string

const (
	OrderTypeStop   OrderType = "stop"
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

type TradeAction string

const (
	ActionLong       TradeAction = "long"
	ActionShort      TradeAction = "short"
	ActionCloseLong  TradeAction = "closeLong"
	ActionCloseShort TradeAction = "closeShort"
)

// Entry reports whether the action opens a position (long/short) as opposed
// to closing one (closeLong/closeShort).
func (a TradeAction) Entry() bool {
	return a == ActionLong || a == ActionShort
}

type PositionStatus string

const (
	PositionStatusNew    PositionStatus = "new"
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// AlertInfo is a pending price condition owned by exactly one RobotPosition.
type AlertInfo struct {
	OrderType OrderType   `json:"orderType"`
	Action    TradeAction `json:"action"`
	Price     float64     `json:"price"`
}

// RobotPosition carries the alerts map keyed by insertion-ordered numeric
// string keys. A position with an empty map is not evaluated.
type RobotPosition struct {
	RobotID string
	Status  PositionStatus
	Alerts  map[string]AlertInfo
}

// Trigger is emitted for every position whose first matching alert fired.
type Trigger struct {
	RobotID string
	Status  PositionStatus
}
