package entities

import "time"

// DefaultHouseValidity applies to room items whose validity does not resolve
const DefaultHouseValidity = 14 * 24 * time.Hour

// CatalogItem is a store entry
type CatalogItem struct {
	ID           int64        `db:"id"`
	Name         string       `db:"name"`
	Description  string       `db:"description"`
	Image        string       `db:"image"`
	Rarity       Rarity       `db:"rarity"`
	Category     SlotCategory `db:"category"`
	Effect       string       `db:"effect"`
	Price        int64        `db:"price"`
	Stock        int          `db:"stock"`
	Active       bool         `db:"active"`
	IsHouse      bool         `db:"is_house"`
	ValidityDays int          `db:"validity_days"`
	Uses         int          `db:"uses"`
	BuffHours    int          `db:"buff_hours"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

// InStock reports whether at least n units remain
func (c *CatalogItem) InStock(n int) bool {
	return c.Stock >= n && c.Stock > 0
}

// Expiry returns the expiry of a unit granted at now. House items fall back
// to DefaultHouseValidity; personal items without validity are permanent.
func (c *CatalogItem) Expiry(now time.Time, house bool) *time.Time {
	return ExpiryFor(now, c.ValidityDays, house)
}

// NewSlot builds one freshly granted unit of the item
func (c *CatalogItem) NewSlot(owner ContainerRef, origin SlotOrigin, acquiredBy *int64, now time.Time) *InventorySlot {
	id := c.ID
	slot := &InventorySlot{
		Owner:         owner,
		CatalogItemID: &id,
		Name:          c.Name,
		Description:   c.Description,
		Image:         c.Image,
		Rarity:        c.Rarity,
		Category:      c.Category,
		Effect:        c.Effect,
		Origin:        origin,
		AcquiredAt:    now,
		ExpiresAt:     c.Expiry(now, owner.Kind == ContainerRoom),
		AcquiredBy:    acquiredBy,
	}
	if c.Category.UsesCharges() {
		slot.UsesRemaining = max(c.Uses, 1)
	} else {
		slot.Quantity = 1
	}
	return slot
}

// ExpiryFor computes an expiry from a validity in days
func ExpiryFor(now time.Time, validityDays int, house bool) *time.Time {
	var t time.Time
	switch {
	case validityDays > 0:
		t = now.AddDate(0, 0, validityDays)
	case house:
		t = now.Add(DefaultHouseValidity)
	default:
		return nil
	}
	return &t
}

// LegacyCatalogItem is an entry of the retired catalog, kept for base prices
type LegacyCatalogItem struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Price int64  `db:"price"`
}
