package entities

import (
	"slices"
	"time"
)

// Account is a player's wallet and profile as seen by the economy
type Account struct {
	ID               int64     `db:"id"`
	ExternalID       string    `db:"external_id"`
	DisplayName      string    `db:"display_name"`
	Balance          int64     `db:"balance"`
	MaxBalance       int64     `db:"max_balance"`
	Role             Role      `db:"role"`
	Turma            string    `db:"turma"`
	Cargos           []string  `db:"cargos"`
	Blocked          bool      `db:"blocked"`
	ReceivedThisYear int64     `db:"received_this_year"`
	ReceivedYear     int       `db:"received_year"`
	Buffs            []Buff    `db:"-"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// CanAfford checks if the account balance covers an amount
func (a *Account) CanAfford(amount int64) bool {
	return a.Balance >= amount
}

// HasCargo reports whether the account carries the given special-role tag
func (a *Account) HasCargo(cargo string) bool {
	return slices.Contains(a.Cargos, cargo)
}

// InflowForYear returns the transfer inflow counted toward the given year.
// The stored counter belongs to ReceivedYear and reads as zero afterwards.
func (a *Account) InflowForYear(year int) int64 {
	if a.ReceivedYear != year {
		return 0
	}
	return a.ReceivedThisYear
}

// AddInflow adds to the annual inflow counter, resetting it on a new year
func (a *Account) AddInflow(amount int64, year int) {
	a.ReceivedThisYear = a.InflowForYear(year) + amount
	a.ReceivedYear = year
}

// SharesCollectiveCost reports whether the member pays a share of a
// collective purchase made by their classroom.
func (a *Account) SharesCollectiveCost() bool {
	if a.Blocked || a.HasCargo(CargoCollectiveExempt) {
		return false
	}
	return a.Role == RoleStudent || a.Role == RoleMonitor
}

// ActiveBuff returns the unexpired buff for an effect, if any
func (a *Account) ActiveBuff(effect string, now time.Time) (Buff, bool) {
	for _, b := range a.Buffs {
		if b.Effect == effect && b.ExpiresAt.After(now) {
			return b, true
		}
	}
	return Buff{}, false
}

// Buff is a time-boxed effect installed on an account
type Buff struct {
	Effect    string    `db:"effect" json:"effect"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// IsActive reports whether the buff is still in effect
func (b Buff) IsActive(now time.Time) bool {
	return b.ExpiresAt.After(now)
}
