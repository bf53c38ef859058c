package entities

import "time"

// PurchaseResult is returned by a store purchase
type PurchaseResult struct {
	ItemName   string         `json:"item_name"`
	Price      int64          `json:"price"`
	NewBalance int64          `json:"new_balance"`
	Container  ContainerKind  `json:"container"`
	Slot       *InventorySlot `json:"slot"`
}

// CollectivePurchaseResult is returned by a collective purchase
type CollectivePurchaseResult struct {
	ClassroomID    int64            `json:"classroom_id"`
	TotalCost      int64            `json:"total_cost"`
	CostPerMember  int64            `json:"cost_per_member"`
	MembersCharged int              `json:"members_charged"`
	Slots          []*InventorySlot `json:"slots"`
}

// TransferResult is returned by a peer transfer
type TransferResult struct {
	Amount        int64  `json:"amount"`
	Fee           int64  `json:"fee"`
	FeeWaived     bool   `json:"fee_waived"`
	NewBalance    int64  `json:"new_balance"`
	RecipientName string `json:"recipient_name"`
}

// MarketSaleResult is returned when a listing is bought
type MarketSaleResult struct {
	Listing    *MarketListing `json:"listing"`
	Tax        int64          `json:"tax"`
	NewBalance int64          `json:"new_balance"`
	Slot       *InventorySlot `json:"slot"`
}

// CreditLine describes what the borrower may draw right now
type CreditLine struct {
	Limit          int64 `json:"limit"`
	MinAmount      int64 `json:"min_amount"`
	Eligible       bool  `json:"eligible"`
	HasUnlockSkill bool  `json:"has_unlock_skill"`
	HasUnlockItem  bool  `json:"has_unlock_item"`
	ActiveLoan     *Loan `json:"active_loan,omitempty"`
}

// LoanResult is returned by loan issuance and repayment
type LoanResult struct {
	Loan       *Loan `json:"loan"`
	NewBalance int64 `json:"new_balance"`
}

// SpinResult is returned by a roulette spin
type SpinResult struct {
	Prize      RoulettePrize   `json:"prize"`
	Rolls      []RoulettePrize `json:"rolls"`
	LuckUsed   bool            `json:"luck_used"`
	NewBalance int64           `json:"new_balance"`
	Slot       *InventorySlot  `json:"slot,omitempty"`
}

// TicketIssueResult is returned by ticket issuance. Buff items install a Buff
// and carry no ticket.
type TicketIssueResult struct {
	Ticket *Ticket `json:"ticket,omitempty"`
	Buff   *Buff   `json:"buff,omitempty"`
}

// GiftClaimResult is returned by a gift claim
type GiftClaimResult struct {
	Gift       *Gift          `json:"gift"`
	NewBalance int64          `json:"new_balance"`
	Slot       *InventorySlot `json:"slot,omitempty"`
}

// PublicStats are low-churn aggregates safe to serve slightly stale
type PublicStats struct {
	PlayerCount         int64     `json:"player_count"`
	CirculatingCurrency int64     `json:"circulating_currency"`
	ActiveListings      int64     `json:"active_listings"`
	ClassroomCount      int64     `json:"classroom_count"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// SweepResult reports a maintenance pass
type SweepResult struct {
	ExpiredSlotsRemoved int64 `json:"expired_slots_removed"`
	LoansMarkedOverdue  int64 `json:"loans_marked_overdue"`
}
