package entities

import (
	"strings"
	"time"
)

// SlotCategory decides how a slot is counted and consumed
type SlotCategory string

const (
	CategoryConsumable SlotCategory = "consumable"
	CategoryPermanent  SlotCategory = "permanent"
	CategoryRankSkill  SlotCategory = "rank_skill"
	CategoryBuff       SlotCategory = "buff"
	CategoryDecoration SlotCategory = "decoration"
)

// IsValid reports whether the category is known
func (c SlotCategory) IsValid() bool {
	switch c {
	case CategoryConsumable, CategoryPermanent, CategoryRankSkill, CategoryBuff, CategoryDecoration:
		return true
	}
	return false
}

// UsesCharges reports whether slots of this category count uses instead of quantity
func (c SlotCategory) UsesCharges() bool {
	return c == CategoryRankSkill
}

// Item effect tags recognized by the engine
const (
	EffectTransferFeeExempt = "transfer_fee_exempt"
	EffectCreditUnlock      = "credit_unlock"
	EffectRouletteLuck      = "roulette_luck"
	EffectFreeSpin          = "free_spin"
)

// SlotOrigin records how a slot was granted
type SlotOrigin string

const (
	OriginPurchase     SlotOrigin = "purchase"
	OriginCollective   SlotOrigin = "collective"
	OriginMarketplace  SlotOrigin = "marketplace"
	OriginTrade        SlotOrigin = "trade"
	OriginRoulette     SlotOrigin = "roulette"
	OriginGift         SlotOrigin = "gift"
	OriginTicketCancel SlotOrigin = "ticket_cancel"
)

// ContainerKind tells which kind of owner holds a slot
type ContainerKind string

const (
	ContainerPersonal ContainerKind = "account"
	ContainerRoom     ContainerKind = "classroom"
)

// ContainerRef addresses one inventory container
type ContainerRef struct {
	Kind ContainerKind `json:"kind"`
	ID   int64         `json:"id"`
}

// PersonalContainerRef addresses an account's backpack
func PersonalContainerRef(accountID int64) ContainerRef {
	return ContainerRef{Kind: ContainerPersonal, ID: accountID}
}

// RoomContainerRef addresses a classroom chest
func RoomContainerRef(classroomID int64) ContainerRef {
	return ContainerRef{Kind: ContainerRoom, ID: classroomID}
}

// InventorySlot is one line item in a container
type InventorySlot struct {
	ID            int64        `db:"id" json:"id"`
	Owner         ContainerRef `db:"-" json:"owner"`
	CatalogItemID *int64       `db:"catalog_item_id" json:"catalog_item_id"`
	Name          string       `db:"name" json:"name"`
	Description   string       `db:"description" json:"description"`
	Image         string       `db:"image" json:"image"`
	Rarity        Rarity       `db:"rarity" json:"rarity"`
	Category      SlotCategory `db:"category" json:"category"`
	Effect        string       `db:"effect" json:"effect"`
	Quantity      int          `db:"quantity" json:"quantity"`
	UsesRemaining int          `db:"uses_remaining" json:"uses_remaining"`
	Origin        SlotOrigin   `db:"origin" json:"origin"`
	AcquiredAt    time.Time    `db:"acquired_at" json:"acquired_at"`
	ExpiresAt     *time.Time   `db:"expires_at" json:"expires_at"`
	AcquiredBy    *int64       `db:"acquired_by" json:"acquired_by"`
}

// IsExpired reports whether the slot's expiry has passed
func (s *InventorySlot) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// MatchesReference reports whether ref names this slot or its catalog item
func (s *InventorySlot) MatchesReference(ref int64) bool {
	if s.ID == ref {
		return true
	}
	return s.CatalogItemID != nil && *s.CatalogItemID == ref
}

// IsAcquiredBy reports whether the slot is attributed to the account
func (s *InventorySlot) IsAcquiredBy(accountID int64) bool {
	return s.AcquiredBy != nil && *s.AcquiredBy == accountID
}

// Count returns the quantity or the remaining charges, per category
func (s *InventorySlot) Count() int {
	if s.Category.UsesCharges() {
		return s.UsesRemaining
	}
	return s.Quantity
}

// HasEffect reports whether the slot carries an effect tag
func (s *InventorySlot) HasEffect(effect string) bool {
	return s.Effect == effect
}

// SameStack reports whether other can be re-stacked onto this slot
// without changing provenance: same item, category and expiry.
func (s *InventorySlot) SameStack(other ItemSnapshot) bool {
	if s.Category != other.Category {
		return false
	}
	if s.CatalogItemID != nil || other.CatalogItemID != nil {
		if s.CatalogItemID == nil || other.CatalogItemID == nil || *s.CatalogItemID != *other.CatalogItemID {
			return false
		}
	} else if !strings.EqualFold(s.Name, other.Name) {
		return false
	}
	return sameExpiry(s.ExpiresAt, other.ExpiresAt)
}

// Snapshot copies the display and provenance data of one unit of the slot
func (s *InventorySlot) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		CatalogItemID: s.CatalogItemID,
		Name:          s.Name,
		Description:   s.Description,
		Image:         s.Image,
		Rarity:        s.Rarity,
		Category:      s.Category,
		Effect:        s.Effect,
		Origin:        s.Origin,
		AcquiredAt:    s.AcquiredAt,
		ExpiresAt:     s.ExpiresAt,
		AcquiredBy:    s.AcquiredBy,
	}
}

// ItemSnapshot is a self-contained copy of one unit of an item, decoupled
// from the live catalog. Listings, trades, tickets and gifts store it.
type ItemSnapshot struct {
	CatalogItemID *int64       `json:"catalog_item_id,omitempty"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Image         string       `json:"image,omitempty"`
	Rarity        Rarity       `json:"rarity"`
	Category      SlotCategory `json:"category"`
	Effect        string       `json:"effect,omitempty"`
	Origin        SlotOrigin   `json:"origin,omitempty"`
	AcquiredAt    time.Time    `json:"acquired_at"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	AcquiredBy    *int64       `json:"acquired_by,omitempty"`
}

// NewSlot builds a single-unit slot from the snapshot for the given owner
func (s ItemSnapshot) NewSlot(owner ContainerRef, origin SlotOrigin, acquiredAt time.Time) *InventorySlot {
	slot := &InventorySlot{
		Owner:         owner,
		CatalogItemID: s.CatalogItemID,
		Name:          s.Name,
		Description:   s.Description,
		Image:         s.Image,
		Rarity:        s.Rarity,
		Category:      s.Category,
		Effect:        s.Effect,
		Origin:        origin,
		AcquiredAt:    acquiredAt,
		ExpiresAt:     s.ExpiresAt,
		AcquiredBy:    s.AcquiredBy,
	}
	if s.Category.UsesCharges() {
		slot.UsesRemaining = 1
	} else {
		slot.Quantity = 1
	}
	return slot
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
