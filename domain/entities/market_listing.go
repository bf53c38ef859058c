package entities

import "time"

// ListingStatus is the lifecycle state of a marketplace listing
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusCancelled ListingStatus = "CANCELLED"
)

// MarketListing is an item offered by a player at an asking price
type MarketListing struct {
	ID           int64         `db:"id" json:"id"`
	SellerID     int64         `db:"seller_id" json:"seller_id"`
	Item         ItemSnapshot  `db:"item" json:"item"`
	ClassroomID  *int64        `db:"classroom_id" json:"classroom_id"`
	IsHouse      bool          `db:"is_house" json:"is_house"`
	Price        int64         `db:"price" json:"price"`
	BasePrice    int64         `db:"base_price" json:"base_price"`
	IsOverpriced bool          `db:"is_overpriced" json:"is_overpriced"`
	Status       ListingStatus `db:"status" json:"status"`
	BuyerID      *int64        `db:"buyer_id" json:"buyer_id"`
	SoldAt       *time.Time    `db:"sold_at" json:"sold_at"`
	TaxCollected int64         `db:"tax_collected" json:"tax_collected"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the listing can be bought or cancelled
func (l *MarketListing) IsActive() bool {
	return l.Status == ListingStatusActive
}

// MarkSold records the sale
func (l *MarketListing) MarkSold(buyerID int64, tax int64, at time.Time) {
	l.Status = ListingStatusSold
	l.BuyerID = &buyerID
	l.SoldAt = &at
	l.TaxCollected = tax
}
