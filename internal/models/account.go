package models

import "time"

type AccountStatus string

const (
	AccountStatusEnabled  AccountStatus = "enabled"
	AccountStatusDisabled AccountStatus = "disabled"
	AccountStatusInvalid  AccountStatus = "invalid"
)

// Balances mirrors the balances jsonb column of user_exchange_accs.
type Balances struct {
	Info      map[string]any `json:"info,omitempty"`
	TotalUSD  float64        `json:"totalUSD"`
	UpdatedAt *time.Time     `json:"updatedAt"`
}

// Stale reports whether the balance snapshot is missing or older than the
// staleness threshold at the given time.
func (b Balances) Stale(now time.Time, maxAge time.Duration) bool {
	if b.UpdatedAt == nil {
		return true
	}
	return b.UpdatedAt.Before(now.Add(-maxAge))
}

type UserExchangeAccount struct {
	ID       string
	Status   AccountStatus
	Balances Balances
}
