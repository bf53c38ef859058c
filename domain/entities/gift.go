package entities

import "time"

// GiftStatus is the lifecycle state of a gift
type GiftStatus string

const (
	GiftStatusPending GiftStatus = "PENDING"
	GiftStatusClaimed GiftStatus = "CLAIMED"
)

// Gift is a staff grant waiting to be claimed by its recipient
type Gift struct {
	ID          int64         `db:"id" json:"id"`
	RecipientID int64         `db:"recipient_id" json:"recipient_id"`
	GrantedBy   *int64        `db:"granted_by" json:"granted_by"`
	Amount      int64         `db:"amount" json:"amount"`
	Item        *ItemSnapshot `db:"item" json:"item"`
	IsHouse     bool          `db:"is_house" json:"is_house"`
	Message     string        `db:"message" json:"message"`
	Status      GiftStatus    `db:"status" json:"status"`
	ExpiresAt   *time.Time    `db:"expires_at" json:"expires_at"`
	ClaimedAt   *time.Time    `db:"claimed_at" json:"claimed_at"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the claim window has closed
func (g *Gift) IsExpired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// MarkClaimed records the claim
func (g *Gift) MarkClaimed(at time.Time) {
	g.Status = GiftStatusClaimed
	g.ClaimedAt = &at
}
