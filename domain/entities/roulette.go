package entities

import "time"

// PrizeType decides how a roulette prize pays out
type PrizeType string

const (
	PrizeTypeCurrency PrizeType = "CURRENCY"
	PrizeTypeItem     PrizeType = "ITEM"
)

// Roulette is a gacha wheel with a weighted prize table
type Roulette struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Cost      int64           `db:"cost"`
	Active    bool            `db:"active"`
	StartsAt  *time.Time      `db:"starts_at"`
	EndsAt    *time.Time      `db:"ends_at"`
	Prizes    []RoulettePrize `db:"-"`
	CreatedAt time.Time       `db:"created_at"`
}

// IsOpen reports whether the roulette accepts spins at now
func (r *Roulette) IsOpen(now time.Time) bool {
	if !r.Active {
		return false
	}
	return withinWindow(now, r.StartsAt, r.EndsAt)
}

// AvailablePrizes returns the prizes whose own window contains now, in table order
func (r *Roulette) AvailablePrizes(now time.Time) []RoulettePrize {
	prizes := make([]RoulettePrize, 0, len(r.Prizes))
	for _, p := range r.Prizes {
		if withinWindow(now, p.AvailableFrom, p.AvailableUntil) {
			prizes = append(prizes, p)
		}
	}
	return prizes
}

// RoulettePrize is one weighted entry of a prize table
type RoulettePrize struct {
	ID             int64        `db:"id" json:"id"`
	RouletteID     int64        `db:"roulette_id" json:"-"`
	Position       int          `db:"position" json:"-"`
	Name           string       `db:"name" json:"name"`
	Type           PrizeType    `db:"prize_type" json:"type"`
	Value          int64        `db:"value" json:"value"`
	CatalogItemID  *int64       `db:"catalog_item_id" json:"catalog_item_id,omitempty"`
	Weight         float64      `db:"weight" json:"weight"`
	Rarity         Rarity       `db:"rarity" json:"rarity"`
	Image          string       `db:"image" json:"image,omitempty"`
	Category       SlotCategory `db:"category" json:"category,omitempty"`
	IsHouse        bool         `db:"is_house" json:"is_house"`
	ValidityDays   int          `db:"validity_days" json:"validity_days,omitempty"`
	AvailableFrom  *time.Time   `db:"available_from" json:"-"`
	AvailableUntil *time.Time   `db:"available_until" json:"-"`
}

// TieBreakWeight ranks a prize when keeping the best of several rolls.
// It mixes the rarity rank with the prize value.
func (p RoulettePrize) TieBreakWeight() int64 {
	return p.Rarity.TieBreakWeight() + p.Value
}

func withinWindow(now time.Time, from, until *time.Time) bool {
	if from != nil && now.Before(*from) {
		return false
	}
	if until != nil && now.After(*until) {
		return false
	}
	return true
}
