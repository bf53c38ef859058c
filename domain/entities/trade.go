package entities

import "time"

// TradeStatus is the lifecycle state of a barter proposal
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusCompleted TradeStatus = "COMPLETED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
	TradeStatusRejected  TradeStatus = "REJECTED"
)

// TradeItem is one pledged slot unit
type TradeItem struct {
	InventoryID int64         `json:"inventory_id"`
	Container   ContainerKind `json:"container"`
	Item        ItemSnapshot  `json:"item"`
	BasePrice   int64         `json:"base_price"`
}

// IsHouse reports whether the pledged unit lives in a classroom chest
func (ti TradeItem) IsHouse() bool {
	return ti.Container == ContainerRoom
}

// TradeOffer is one side of a trade
type TradeOffer struct {
	Currency int64       `json:"currency"`
	Items    []TradeItem `json:"items"`
}

// TotalValue is the currency plus the base price of every pledged item
func (o TradeOffer) TotalValue() int64 {
	total := o.Currency
	for _, it := range o.Items {
		total += it.BasePrice
	}
	return total
}

// IsEmpty reports whether the offer pledges nothing
func (o TradeOffer) IsEmpty() bool {
	return o.Currency == 0 && len(o.Items) == 0
}

// Trade is a two-party barter
type Trade struct {
	ID             int64       `db:"id" json:"id"`
	InitiatorID    int64       `db:"initiator_id" json:"initiator_id"`
	TargetID       int64       `db:"target_id" json:"target_id"`
	InitiatorOffer TradeOffer  `db:"initiator_offer" json:"initiator_offer"`
	TargetOffer    TradeOffer  `db:"target_offer" json:"target_offer"`
	FairnessRatio  float64     `db:"fairness_ratio" json:"fairness_ratio"`
	Status         TradeStatus `db:"status" json:"status"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	ResolvedAt     *time.Time  `db:"resolved_at" json:"resolved_at"`
}

// IsPending reports whether the trade still awaits a decision
func (t *Trade) IsPending() bool {
	return t.Status == TradeStatusPending
}

// Resolve moves the trade into a terminal state
func (t *Trade) Resolve(status TradeStatus, at time.Time) {
	t.Status = status
	t.ResolvedAt = &at
}

// FairnessRatio returns min(total)/max(total) across both offers,
// or 1 when both sides are worth nothing.
func FairnessRatio(a, b TradeOffer) float64 {
	va, vb := a.TotalValue(), b.TotalValue()
	if va == 0 && vb == 0 {
		return 1
	}
	lo, hi := min(va, vb), max(va, vb)
	return float64(lo) / float64(hi)
}
